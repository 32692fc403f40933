package models

import "time"

// SyncState is transient transfer bookkeeping. It is never persisted or exported.
type SyncState struct {
	Code      string     `json:"code,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	LastSync  *time.Time `json:"lastSync,omitempty"`
}
