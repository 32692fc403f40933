package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

const snapshotSchema = `CREATE TABLE IF NOT EXISTS app_snapshots (
    slot       TEXT PRIMARY KEY,
    version    INTEGER NOT NULL,
    document   JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// SnapshotRepository stores whole attendance documents in Postgres, one row per slot.
type SnapshotRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSnapshotRepository constructs the repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now}
}

// EnsureSchema creates the snapshot table when missing.
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("ensure app_snapshots: %w", err)
	}
	return nil
}

// Get fetches the snapshot row for slot.
func (r *SnapshotRepository) Get(ctx context.Context, slot string) (*models.Snapshot, error) {
	const query = `SELECT slot, version, document, updated_at FROM app_snapshots WHERE slot = $1`
	var snap models.Snapshot
	if err := r.db.GetContext(ctx, &snap, query, slot); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Load returns the stored document for slot, or nil when the slot is empty.
func (r *SnapshotRepository) Load(ctx context.Context, slot string) ([]byte, error) {
	snap, err := r.Get(ctx, slot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot %s: %w", slot, err)
	}
	return snap.Document, nil
}

// Save upserts the document for slot.
func (r *SnapshotRepository) Save(ctx context.Context, slot string, version int, document []byte) error {
	const query = `INSERT INTO app_snapshots (slot, version, document, updated_at)
VALUES (:slot, :version, :document, :updated_at)
ON CONFLICT (slot)
DO UPDATE SET version = EXCLUDED.version, document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	snap := models.Snapshot{Slot: slot, Version: version, Document: document, UpdatedAt: r.now().UTC()}
	if _, err := r.db.NamedExecContext(ctx, query, snap); err != nil {
		return fmt.Errorf("save snapshot %s: %w", slot, err)
	}
	return nil
}

// Delete removes the slot.
func (r *SnapshotRepository) Delete(ctx context.Context, slot string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM app_snapshots WHERE slot = $1`, slot); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", slot, err)
	}
	return nil
}
