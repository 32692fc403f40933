package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

// FileSnapshotRepository keeps each slot as <slot>.json under a local directory.
type FileSnapshotRepository struct {
	store *storage.LocalStorage
}

// NewFileSnapshotRepository constructs the repository on top of store.
func NewFileSnapshotRepository(store *storage.LocalStorage) *FileSnapshotRepository {
	return &FileSnapshotRepository{store: store}
}

func slotFile(slot string) string { return slot + ".json" }

// Load returns the slot contents, or nil when the slot file does not exist.
func (r *FileSnapshotRepository) Load(_ context.Context, slot string) ([]byte, error) {
	data, err := r.store.Read(slotFile(slot))
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot %s: %w", slot, err)
	}
	return data, nil
}

// Save atomically replaces the slot file. The version is embedded in the document.
func (r *FileSnapshotRepository) Save(_ context.Context, slot string, _ int, document []byte) error {
	if err := r.store.SaveAtomic(slotFile(slot), document); err != nil {
		return fmt.Errorf("save snapshot %s: %w", slot, err)
	}
	return nil
}

// Delete removes the slot file.
func (r *FileSnapshotRepository) Delete(_ context.Context, slot string) error {
	return r.store.Delete(slotFile(slot))
}
