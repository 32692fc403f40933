package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/stats"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

type documentSourceStub struct {
	doc models.Document
	now time.Time
}

func (s documentSourceStub) Snapshot() models.Document { return s.doc.Clone() }
func (s documentSourceStub) Now() time.Time            { return s.now }

// reportDocument has one grade 1 student who was late in period 1 of a
// Monday timetabled with math.
func reportDocument() models.Document {
	doc := models.NewDocument(storeNow)
	doc.Settings.HourPerPeriod = 1.8
	doc.Students = []models.Student{
		{ID: "s1", StudentNumber: 1, Name: "Aoi", ClassName: "1-A", Grade: 1},
		{ID: "s2", StudentNumber: 1, Name: "Ren", ClassName: "2-A", Grade: 2},
	}
	doc.Subjects = []models.Subject{{ID: "math", Name: "Math", RequiredHours: 35}}
	doc.Settings.Timetables[models.SlotKey{Grade: 1, Term: models.TermFirst, Weekday: time.Monday, Period: 1}] = "math"
	doc.AttendanceRecords = []models.AttendanceRecord{
		{StudentID: "s1", Date: "2025-06-09", Period: 1, Status: models.AttendanceStatusLate},
	}
	return doc
}

func TestNormalizeReportParams(t *testing.T) {
	p, err := NormalizeReportParams(models.ReportJobParams{}, storeNow)
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatXLSX, p.Format)
	assert.Equal(t, models.ReportScopeAll, p.Scope)
	assert.Equal(t, "2025-06", p.Month)

	p, err = NormalizeReportParams(models.ReportJobParams{Format: models.ReportFormatCSV}, storeNow)
	require.NoError(t, err)
	assert.Equal(t, models.ReportScopeMonth, p.Scope)

	bad := []models.ReportJobParams{
		{Format: "doc"},
		{Scope: "week"},
		{Scope: models.ReportScopeAll, Format: models.ReportFormatPDF},
		{Grade: 3},
		{Month: "2025-13"},
	}
	for _, params := range bad {
		_, err := NormalizeReportParams(params, storeNow)
		assert.True(t, errors.Is(err, appErrors.ErrValidation), "%+v", params)
	}
}

func TestSheetTableColumns(t *testing.T) {
	engine := stats.NewEngine(reportDocument(), storeNow)
	sheet := engine.Report("Month 2025-06", models.ReportScopeMonth, 1, stats.Range{Start: "2025-06-01", End: "2025-06-30"})

	table := SheetTable(sheet)
	assert.Equal(t, []string{"No.", "Name", "Class", "Attendance rate (%)", "Late", "Early leave", "Math hours", "Math required"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"1", "Aoi", "1-A", "100.0", "1", "0", "1.8", "35"}, table.Rows[0])
}

func TestExportServiceRenderXLSX(t *testing.T) {
	svc := NewExportService(documentSourceStub{doc: reportDocument(), now: storeNow}, nil, nil, ExportConfig{}, nil)

	out, err := svc.Render(models.ReportJobParams{})
	require.NoError(t, err)
	assert.Equal(t, "attendance-2025.xlsx", out.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(out.Payload))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Month 2025-06", "First term", "Second term", "Year 2025"}, f.GetSheetList())

	rows, err := f.GetRows("First term")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "100.0", rows[1][3])
}

func TestExportServiceRenderSingleScope(t *testing.T) {
	doc := reportDocument()
	doc.Settings.SecondTerm = models.TermRange{}
	svc := NewExportService(documentSourceStub{doc: doc, now: storeNow}, nil, nil, ExportConfig{}, nil)

	out, err := svc.Render(models.ReportJobParams{Format: models.ReportFormatCSV, Grade: 2, Month: "2025-06"})
	require.NoError(t, err)
	assert.Equal(t, "attendance-2025-06-grade2.csv", out.Filename)
	assert.Contains(t, string(out.Payload), "Ren")
	assert.NotContains(t, string(out.Payload), "Aoi")

	_, err = svc.Render(models.ReportJobParams{Format: models.ReportFormatPDF, Scope: models.ReportScopeSecondTerm})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestExportServiceGenerateSignsDownload(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(documentSourceStub{doc: reportDocument(), now: storeNow}, store, signer, ExportConfig{APIPrefix: "/api/v1/"}, nil)

	job := &models.ReportJob{ID: "job-1", Params: models.ReportJobParams{Format: models.ReportFormatPDF, Scope: models.ReportScopeYear}}
	res, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "job-1-attendance-year-2025.pdf", res.RelativePath)
	assert.Equal(t, "/api/v1/reports/download/"+res.Token, res.URL)

	jobID, relPath, _, err := svc.ParseToken(res.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, res.RelativePath, relPath)

	file, err := svc.Open(relPath)
	require.NoError(t, err)
	file.Close()
	require.NoError(t, svc.Delete(relPath))
}
