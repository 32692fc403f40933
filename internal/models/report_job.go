package models

import "time"

// ReportScope selects which sheets a report contains.
type ReportScope string

const (
	ReportScopeMonth      ReportScope = "month"
	ReportScopeFirstTerm  ReportScope = "first_term"
	ReportScopeSecondTerm ReportScope = "second_term"
	ReportScopeYear       ReportScope = "year"
	ReportScopeAll        ReportScope = "all"
)

// Valid reports whether the scope is known.
func (s ReportScope) Valid() bool {
	switch s {
	case ReportScopeMonth, ReportScopeFirstTerm, ReportScopeSecondTerm, ReportScopeYear, ReportScopeAll:
		return true
	default:
		return false
	}
}

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
)

// Valid reports whether the format is known.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatXLSX || f == ReportFormatCSV || f == ReportFormatPDF
}

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJobParams are the inputs of a report job.
type ReportJobParams struct {
	Grade  int          `json:"grade"`
	Month  string       `json:"month"`
	Scope  ReportScope  `json:"scope"`
	Format ReportFormat `json:"format"`
}

// ReportJob tracks an asynchronous workbook render.
type ReportJob struct {
	ID           string          `json:"id"`
	Params       ReportJobParams `json:"params"`
	Status       ReportStatus    `json:"status"`
	Progress     int             `json:"progress"`
	ResultURL    *string         `json:"result_url,omitempty"`
	FilePath     string          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}
