package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

func TestFileSnapshotRepositoryRoundTrip(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewFileSnapshotRepository(store)
	ctx := context.Background()

	doc, err := repo.Load(ctx, "attendance-storage")
	require.NoError(t, err)
	assert.Nil(t, doc)

	require.NoError(t, repo.Save(ctx, "attendance-storage", 2, []byte(`{"version":2}`)))
	doc, err = repo.Load(ctx, "attendance-storage")
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, string(doc))

	require.NoError(t, repo.Delete(ctx, "attendance-storage"))
	doc, err = repo.Load(ctx, "attendance-storage")
	require.NoError(t, err)
	assert.Nil(t, doc)
}
