package stats

import (
	"fmt"
	"time"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

// Sheet is one reporting scope laid out row per student.
type Sheet struct {
	Title    string             `json:"title"`
	Scope    models.ReportScope `json:"scope"`
	Range    Range              `json:"range"`
	Subjects []models.Subject   `json:"subjects"`
	Rows     []StudentSummary   `json:"rows"`
}

// Report builds a sheet for the students of grade over r.
func (e *Engine) Report(title string, scope models.ReportScope, grade int, r Range) Sheet {
	sheet := Sheet{
		Title:    title,
		Scope:    scope,
		Range:    r,
		Subjects: append([]models.Subject(nil), e.doc.Subjects...),
	}
	for _, s := range e.Students(grade) {
		sheet.Rows = append(sheet.Rows, e.StudentSummary(s, r))
	}
	return sheet
}

// ScopeRange resolves the date range of scope. month is "YYYY-MM" and only
// used by the month scope. ok is false when the scope has no configured range.
func (e *Engine) ScopeRange(scope models.ReportScope, month string, now time.Time) (Range, bool) {
	switch scope {
	case models.ReportScopeMonth:
		r, err := MonthRange(month)
		return r, err == nil
	case models.ReportScopeFirstTerm:
		t := e.doc.Settings.FirstTerm
		return Range{Start: t.Start, End: t.End}, t.IsSet()
	case models.ReportScopeSecondTerm:
		t := e.doc.Settings.SecondTerm
		return Range{Start: t.Start, End: t.End}, t.IsSet()
	case models.ReportScopeYear:
		start := models.SchoolYearStart(now)
		return Range{Start: models.FormatDate(start), End: models.FormatDate(start.AddDate(1, 0, -1))}, true
	default:
		return Range{}, false
	}
}

// Workbook builds the sheets for scope. ReportScopeAll produces the month,
// first term, second term and year sheets; a term sheet is left out when its
// range is not configured.
func (e *Engine) Workbook(scope models.ReportScope, grade int, month string, now time.Time) []Sheet {
	scopes := []models.ReportScope{scope}
	if scope == models.ReportScopeAll {
		scopes = []models.ReportScope{
			models.ReportScopeMonth,
			models.ReportScopeFirstTerm,
			models.ReportScopeSecondTerm,
			models.ReportScopeYear,
		}
	}
	sheets := make([]Sheet, 0, len(scopes))
	for _, sc := range scopes {
		r, ok := e.ScopeRange(sc, month, now)
		if !ok {
			continue
		}
		sheets = append(sheets, e.Report(SheetTitle(sc, month, now), sc, grade, r))
	}
	return sheets
}

// SheetTitle names the sheet of scope.
func SheetTitle(scope models.ReportScope, month string, now time.Time) string {
	switch scope {
	case models.ReportScopeMonth:
		return "Month " + month
	case models.ReportScopeFirstTerm:
		return "First term"
	case models.ReportScopeSecondTerm:
		return "Second term"
	default:
		return fmt.Sprintf("Year %d", models.SchoolYearStart(now).Year())
	}
}
