package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

func TestReportRepositoryCreateAndGet(t *testing.T) {
	repo := NewReportRepository()
	job := &models.ReportJob{Params: models.ReportJobParams{Scope: models.ReportScopeAll, Format: models.ReportFormatXLSX}}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.False(t, job.CreatedAt.IsZero())

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, *job, *fetched)

	assert.Error(t, repo.Create(context.Background(), job))
	_, err = repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestReportRepositoryUpdate(t *testing.T) {
	repo := NewReportRepository()
	job := &models.ReportJob{}
	require.NoError(t, repo.Create(context.Background(), job))

	status := models.ReportStatusFinished
	progress := 100
	url := "/api/v1/reports/download/token"
	path := "reports/a.xlsx"
	msg := "boom"
	now := time.Now().UTC()
	require.NoError(t, repo.Update(context.Background(), job.ID, UpdateReportJobParams{
		Status: &status, Progress: &progress, ResultURL: &url, FilePath: &path, ErrorMessage: &msg, FinishedAt: &now,
	}))

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, status, fetched.Status)
	assert.Equal(t, 100, fetched.Progress)
	assert.Equal(t, url, *fetched.ResultURL)
	assert.Equal(t, path, fetched.FilePath)
	assert.Equal(t, "boom", *fetched.ErrorMessage)

	clear := ""
	require.NoError(t, repo.Update(context.Background(), job.ID, UpdateReportJobParams{ErrorMessage: &clear}))
	fetched, err = repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.ErrorMessage)

	assert.True(t, errors.Is(repo.Update(context.Background(), "missing", UpdateReportJobParams{}), appErrors.ErrNotFound))
}

func TestReportRepositoryListings(t *testing.T) {
	repo := NewReportRepository()
	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.ReportJob{ID: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(2-i) * time.Minute)}))
	}
	queued, err := repo.ListQueued(ctx, 2)
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.Equal(t, "c", queued[0].ID)
	assert.Equal(t, "b", queued[1].ID)

	finished := models.ReportStatusFinished
	old := base.Add(-2 * time.Hour)
	require.NoError(t, repo.Update(ctx, "a", UpdateReportJobParams{Status: &finished, FinishedAt: &old}))
	recent := base
	require.NoError(t, repo.Update(ctx, "b", UpdateReportJobParams{Status: &finished, FinishedAt: &recent}))

	expired, err := repo.ListFinishedBefore(ctx, base.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "a", expired[0].ID)

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.GetByID(ctx, "a")
	assert.Error(t, err)
}
