package stats

import (
	"time"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

// MonthRate is one month of a yearly trend. Percent is nil when the month
// has no counted slots.
type MonthRate struct {
	Month   string   `json:"month"`
	Present int      `json:"present"`
	Total   int      `json:"total"`
	Percent *float64 `json:"percent"`
	Text    string   `json:"text"`
}

// Trend is the school-year trend for one student.
type Trend struct {
	SchoolYear     int         `json:"schoolYear"`
	Months         []MonthRate `json:"months"`
	Present        int         `json:"present"`
	Total          int         `json:"total"`
	AveragePercent *float64    `json:"averagePercent"`
	AverageText    string      `json:"averageText"`
}

// NoDataText is shown in place of a rate when nothing was counted.
const NoDataText = "no data"

// SchoolYearMonths returns the twelve "YYYY-MM" months of the school year
// that contains now, April through March.
func SchoolYearMonths(now time.Time) []string {
	start := models.SchoolYearStart(now)
	months := make([]string, 12)
	for i := range months {
		months[i] = start.AddDate(0, i, 0).Format("2006-01")
	}
	return months
}

// MonthlyTrend computes the rate for each month of the current school year.
// The yearly average is summed present over summed total across the months
// that had data.
func (e *Engine) MonthlyTrend(student models.Student, now time.Time) Trend {
	trend := Trend{SchoolYear: models.SchoolYearStart(now).Year()}
	for _, month := range SchoolYearMonths(now) {
		r, _ := MonthRange(month)
		rate := e.AttendanceRate(student, r)
		m := MonthRate{Month: month, Present: rate.Present, Total: rate.Total, Text: NoDataText}
		if !rate.NoData() {
			p := rate.Percent
			m.Percent = &p
			m.Text = rate.Text
			trend.Present += rate.Present
			trend.Total += rate.Total
		}
		trend.Months = append(trend.Months, m)
	}
	trend.AverageText = NoDataText
	if trend.Total > 0 {
		avg := percent(trend.Present, trend.Total)
		trend.AveragePercent = &avg
		trend.AverageText = formatPercent(avg)
	}
	return trend
}
