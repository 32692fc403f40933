package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/stats"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/export"
	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

type documentSource interface {
	Snapshot() models.Document
	Now() time.Time
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type xlsxRenderer interface {
	Render(book export.Workbook) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// RenderedReport is an export produced in memory.
type RenderedReport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService turns statistics into workbook files.
type ExportService struct {
	source  documentSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	xlsx    xlsxRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService. storage and signer may be nil
// when only direct rendering is used.
func NewExportService(source documentSource, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		source:  source,
		storage: storage,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		xlsx:    export.NewXLSXExporter(),
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// NormalizeReportParams fills defaults and validates the combination of
// scope and format. Single-sheet formats cannot carry the "all" scope.
func NormalizeReportParams(p models.ReportJobParams, now time.Time) (models.ReportJobParams, error) {
	if p.Format == "" {
		p.Format = models.ReportFormatXLSX
	}
	if !p.Format.Valid() {
		return p, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	if p.Scope == "" {
		if p.Format == models.ReportFormatXLSX {
			p.Scope = models.ReportScopeAll
		} else {
			p.Scope = models.ReportScopeMonth
		}
	}
	if !p.Scope.Valid() {
		return p, appErrors.Clone(appErrors.ErrValidation, "unsupported report scope")
	}
	if p.Scope == models.ReportScopeAll && p.Format != models.ReportFormatXLSX {
		return p, appErrors.Clone(appErrors.ErrValidation, "scope all is only available as xlsx")
	}
	if p.Grade != 0 && !models.ValidGrade(p.Grade) {
		return p, appErrors.Clone(appErrors.ErrValidation, "grade must be 1 or 2")
	}
	if p.Month == "" {
		p.Month = now.Format("2006-01")
	}
	if _, err := stats.MonthRange(p.Month); err != nil {
		return p, appErrors.Clone(appErrors.ErrValidation, "month must be YYYY-MM")
	}
	return p, nil
}

// SheetTable lays out a statistics sheet as an export table: number, name,
// class, rate, late, early leave, then hours and required hours per subject.
func SheetTable(sheet stats.Sheet) export.Table {
	headers := []string{"No.", "Name", "Class", "Attendance rate (%)", "Late", "Early leave"}
	for _, sub := range sheet.Subjects {
		headers = append(headers, sub.Name+" hours", sub.Name+" required")
	}
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := []string{
			strconv.Itoa(row.Student.StudentNumber),
			row.Student.Name,
			row.Student.ClassName,
			row.RateText,
			strconv.Itoa(row.Late),
			strconv.Itoa(row.EarlyLeave),
		}
		for _, sub := range row.Subjects {
			cells = append(cells, formatHours(sub.Hours), formatHours(sub.RequiredHours))
		}
		rows = append(rows, cells)
	}
	return export.Table{Title: sheet.Title, Headers: headers, Rows: rows}
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Render produces the export for params from the current dataset.
func (s *ExportService) Render(params models.ReportJobParams) (*RenderedReport, error) {
	now := s.source.Now()
	params, err := NormalizeReportParams(params, now)
	if err != nil {
		return nil, err
	}
	engine := stats.NewEngine(s.source.Snapshot(), now)
	sheets := engine.Workbook(params.Scope, params.Grade, params.Month, now)
	if len(sheets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "the selected term is not configured")
	}

	tables := make([]export.Table, 0, len(sheets))
	for _, sheet := range sheets {
		tables = append(tables, SheetTable(sheet))
	}

	out := &RenderedReport{Filename: reportFilename(params, now)}
	switch params.Format {
	case models.ReportFormatXLSX:
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		out.Payload, err = s.xlsx.Render(export.Workbook{Tables: tables})
	case models.ReportFormatCSV:
		out.ContentType = "text/csv; charset=utf-8"
		out.Payload, err = s.csv.Render(tables[0])
	case models.ReportFormatPDF:
		out.ContentType = "application/pdf"
		out.Payload, err = s.pdf.Render(tables[0])
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", params.Format, err)
	}
	return out, nil
}

// Generate renders the job's export, stores it and signs a download URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	if s.storage == nil || s.signer == nil {
		return nil, fmt.Errorf("export storage not configured")
	}
	rendered, err := s.Render(job.Params)
	if err != nil {
		return nil, err
	}
	relPath, err := s.storage.Save(job.ID+"-"+rendered.Filename, rendered.Payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("report rendered", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(rendered.Payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func reportFilename(p models.ReportJobParams, now time.Time) string {
	var name string
	switch p.Scope {
	case models.ReportScopeMonth:
		name = "attendance-" + p.Month
	case models.ReportScopeAll:
		name = fmt.Sprintf("attendance-%d", models.SchoolYearStart(now).Year())
	default:
		name = fmt.Sprintf("attendance-%s-%d", strings.ReplaceAll(string(p.Scope), "_", "-"), models.SchoolYearStart(now).Year())
	}
	if p.Grade != 0 {
		name += fmt.Sprintf("-grade%d", p.Grade)
	}
	return name + "." + string(p.Format)
}
