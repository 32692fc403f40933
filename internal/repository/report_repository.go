package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

// ReportRepository keeps report job metadata in memory. Jobs only live as
// long as the rendered files they point to, so they are not persisted.
type ReportRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ReportJob
	now  func() time.Time
}

// NewReportRepository constructs the repository.
func NewReportRepository() *ReportRepository {
	return &ReportRepository{jobs: map[string]models.ReportJob{}, now: time.Now}
}

// Create stores a new job with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = r.now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return appErrors.Clone(appErrors.ErrConflict, "report job already exists")
	}
	r.jobs[job.ID] = *job
	return nil
}

// GetByID returns a job by its identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	return &job, nil
}

// UpdateReportJobParams defines the mutable fields.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	FilePath     *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies the provided changes to a job.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	if params.FilePath != nil {
		job.FilePath = *params.FilePath
	}
	if params.ErrorMessage != nil {
		if *params.ErrorMessage == "" {
			job.ErrorMessage = nil
		} else {
			msg := *params.ErrorMessage
			job.ErrorMessage = &msg
		}
	}
	if params.FinishedAt != nil {
		at := *params.FinishedAt
		job.FinishedAt = &at
	}
	r.jobs[id] = job
	return nil
}

// ListQueued returns queued jobs, oldest first.
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.list(limit, func(j models.ReportJob) bool {
		return j.Status == models.ReportStatusQueued
	}, func(j models.ReportJob) time.Time { return j.CreatedAt }), nil
}

// ListFinishedBefore returns jobs that finished or failed before cutoff.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(limit, func(j models.ReportJob) bool {
		done := j.Status == models.ReportStatusFinished || j.Status == models.ReportStatusFailed
		return done && j.FinishedAt != nil && j.FinishedAt.Before(cutoff)
	}, func(j models.ReportJob) time.Time { return *j.FinishedAt }), nil
}

// Delete forgets a job.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	return nil
}

func (r *ReportRepository) list(limit int, keep func(models.ReportJob) bool, order func(models.ReportJob) time.Time) []models.ReportJob {
	r.mu.RLock()
	out := make([]models.ReportJob, 0)
	for _, job := range r.jobs {
		if keep(job) {
			out = append(out, job)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return order(out[i]).Before(order(out[j])) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
