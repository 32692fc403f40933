package models

import "time"

// Snapshot is one row of the app_snapshots table.
type Snapshot struct {
	Slot      string    `db:"slot" json:"slot"`
	Version   int       `db:"version" json:"version"`
	Document  []byte    `db:"document" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
