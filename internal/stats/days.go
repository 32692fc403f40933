// Package stats derives attendance figures from a snapshot of the attendance
// document. Everything here is a pure function of the document and the clock.
package stats

import (
	"time"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

// Range is an inclusive YYYY-MM-DD date range.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether date lies in the range, compared as strings.
func (r Range) Contains(date string) bool {
	return r.Start <= date && date <= r.End
}

// Valid reports whether both bounds are YYYY-MM-DD dates.
func (r Range) Valid() bool {
	if _, err := models.ParseDate(r.Start); err != nil {
		return false
	}
	_, err := models.ParseDate(r.End)
	return err == nil
}

// MonthRange returns the range covering the month of "YYYY-MM".
func MonthRange(month string) (Range, error) {
	t, err := time.ParseInLocation("2006-01", month, time.UTC)
	if err != nil {
		return Range{}, err
	}
	last := t.AddDate(0, 1, -1)
	return Range{Start: models.FormatDate(t), End: models.FormatDate(last)}, nil
}

// ValidDays enumerates the dates in r that are not after today and not
// holidays. Malformed or inverted ranges yield no days.
func ValidDays(r Range, calendar models.CalendarIndex, today string) []string {
	start, err := models.ParseDate(r.Start)
	if err != nil {
		return nil
	}
	end, err := models.ParseDate(r.End)
	if err != nil {
		return nil
	}
	if t, err := models.ParseDate(today); err == nil && end.After(t) {
		end = t
	}
	if start.After(end) {
		return nil
	}

	days := make([]string, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := models.FormatDate(d)
		if calendar.IsHoliday(date) {
			continue
		}
		days = append(days, date)
	}
	return days
}

// EachDay enumerates every date in r, holidays and future dates included.
func EachDay(r Range) []string {
	start, err := models.ParseDate(r.Start)
	if err != nil {
		return nil
	}
	end, err := models.ParseDate(r.End)
	if err != nil || start.After(end) {
		return nil
	}
	days := make([]string, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, models.FormatDate(d))
	}
	return days
}
