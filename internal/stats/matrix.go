package stats

import (
	"strconv"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

// MatrixDay is one column group of the monthly list.
type MatrixDay struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	IsHoliday bool   `json:"isHoliday"`
	Note      string `json:"note,omitempty"`
}

// MatrixPeriod labels one period column. Period 0 is homeroom.
type MatrixPeriod struct {
	Period  int    `json:"period"`
	Label   string `json:"label"`
	Subject string `json:"subject,omitempty"`
}

// MatrixRow holds a student's marks indexed [day][period].
type MatrixRow struct {
	Student models.Student  `json:"student"`
	Marks   [][]models.Mark `json:"marks"`
}

// Matrix is the monthly attendance list for one grade.
type Matrix struct {
	Month   string      `json:"month"`
	Grade   int         `json:"grade"`
	Days    []MatrixDay `json:"days"`
	Periods []int       `json:"periods"`
	Rows    []MatrixRow `json:"rows"`
}

// MonthlyMatrix lays out every day of month against homeroom plus periods
// 1..periodCount for each student of grade.
func (e *Engine) MonthlyMatrix(grade int, month string) (Matrix, error) {
	r, err := MonthRange(month)
	if err != nil {
		return Matrix{}, err
	}
	m := Matrix{Month: month, Grade: grade}
	for p := models.HomeroomPeriod; p <= e.doc.Settings.PeriodCount; p++ {
		m.Periods = append(m.Periods, p)
	}
	dates := EachDay(r)
	for _, date := range dates {
		day := MatrixDay{Date: date, IsHoliday: e.calendar.IsHoliday(date)}
		if t, err := models.ParseDate(date); err == nil {
			day.Weekday = t.Weekday().String()[:3]
		}
		if entry, ok := e.calendar[date]; ok {
			day.Note = entry.OverrideNote
		}
		m.Days = append(m.Days, day)
	}
	for _, s := range e.Students(grade) {
		row := MatrixRow{Student: s, Marks: make([][]models.Mark, len(dates))}
		for i, date := range dates {
			row.Marks[i] = make([]models.Mark, len(m.Periods))
			for j, p := range m.Periods {
				row.Marks[i][j] = e.Mark(models.RecordKey{StudentID: s.ID, Date: date, Period: p})
			}
		}
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

// DaySlots describes the periods of one day for a grade, as shown on the
// attendance entry page.
func (e *Engine) DaySlots(grade int, date string) []MatrixPeriod {
	slots := []MatrixPeriod{{Period: models.HomeroomPeriod, Label: "HR"}}
	for p := 1; p <= e.doc.Settings.PeriodCount; p++ {
		slot := MatrixPeriod{Period: p, Label: "P" + strconv.Itoa(p)}
		if subject, ok := e.SubjectFor(grade, date, p); ok {
			slot.Subject = subject.Name
		}
		slots = append(slots, slot)
	}
	return slots
}
