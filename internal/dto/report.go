package dto

import "github.com/noah-isme/attendance-tracker/internal/models"

// ReportRequest captures POST /reports/generate payload and the query of
// GET /reports/export.
type ReportRequest struct {
	Grade  int                 `json:"grade" form:"grade" validate:"omitempty,oneof=1 2"`
	Month  string              `json:"month" form:"month" validate:"omitempty,datetime=2006-01"`
	Scope  models.ReportScope  `json:"scope" form:"scope" validate:"omitempty,oneof=month first_term second_term year all"`
	Format models.ReportFormat `json:"format" form:"format" validate:"omitempty,oneof=xlsx csv pdf"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}

// StatsQuery scopes statistics endpoints.
type StatsQuery struct {
	Start string `form:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `form:"end" validate:"omitempty,datetime=2006-01-02"`
	Grade int    `form:"grade" validate:"omitempty,oneof=1 2"`
	Month string `form:"month" validate:"omitempty,datetime=2006-01"`
	Scope string `form:"scope" validate:"omitempty,oneof=month first_term second_term year"`
}
