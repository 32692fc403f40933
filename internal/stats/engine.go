package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

// Engine answers statistics queries over one document snapshot. It indexes
// the snapshot once; callers build a new Engine after the document changes.
type Engine struct {
	doc      models.Document
	today    string
	calendar models.CalendarIndex
	records  map[models.RecordKey]models.AttendanceStatus
	entered  map[string]map[string]struct{}
	subjects map[string]models.Subject
	earliest string
}

// NewEngine indexes doc. now fixes "today" for every query.
func NewEngine(doc models.Document, now time.Time) *Engine {
	e := &Engine{
		doc:      doc,
		today:    models.FormatDate(now),
		calendar: models.IndexCalendar(doc.Calendar),
		records:  make(map[models.RecordKey]models.AttendanceStatus, len(doc.AttendanceRecords)),
		entered:  make(map[string]map[string]struct{}),
		subjects: make(map[string]models.Subject, len(doc.Subjects)),
	}
	for _, r := range doc.AttendanceRecords {
		e.records[r.Key()] = r.Status
		days, ok := e.entered[r.StudentID]
		if !ok {
			days = make(map[string]struct{})
			e.entered[r.StudentID] = days
		}
		days[r.Date] = struct{}{}
		if e.earliest == "" || r.Date < e.earliest {
			e.earliest = r.Date
		}
	}
	for _, s := range doc.Subjects {
		e.subjects[s.ID] = s
	}
	return e
}

// Today returns the date the engine treats as today.
func (e *Engine) Today() string { return e.today }

// Mark looks up a single slot.
func (e *Engine) Mark(key models.RecordKey) models.Mark {
	if status, ok := e.records[key]; ok {
		return models.Recorded(status)
	}
	return models.Unset()
}

// StudentValidDays narrows ValidDays for one student: days before the first
// record in the whole dataset are dropped, and so are days on which this
// student has no record at all, homeroom included.
func (e *Engine) StudentValidDays(studentID string, r Range) []string {
	if e.earliest == "" || !r.Valid() {
		return nil
	}
	if r.Start < e.earliest {
		r.Start = e.earliest
	}
	entered := e.entered[studentID]
	days := ValidDays(r, e.calendar, e.today)
	out := days[:0]
	for _, d := range days {
		if _, ok := entered[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// SubjectFor resolves the subject scheduled for grade on date at period.
// Homeroom, weekends, empty cells and dangling subject IDs resolve to none.
func (e *Engine) SubjectFor(grade int, date string, period int) (models.Subject, bool) {
	if period < 1 || period > e.doc.Settings.PeriodCount {
		return models.Subject{}, false
	}
	t, err := models.ParseDate(date)
	if err != nil {
		return models.Subject{}, false
	}
	key := models.SlotKey{
		Grade:   grade,
		Term:    e.doc.Settings.TermFor(date),
		Weekday: t.Weekday(),
		Period:  period,
	}
	id, ok := e.doc.Settings.Timetables.Lookup(key)
	if !ok {
		return models.Subject{}, false
	}
	subject, ok := e.subjects[id]
	return subject, ok
}

// Rate is the attendance rate over a range.
type Rate struct {
	Present int     `json:"present"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
	Text    string  `json:"text"`
	// SubjectPeriods counts attended periods per subject ID.
	SubjectPeriods map[string]int `json:"subjectPeriods"`
}

// NoData reports whether no scheduled slot was counted.
func (r Rate) NoData() bool { return r.Total == 0 }

// AttendanceRate counts, over the student's valid days, every timetabled
// period that has a record. Non-absent records count as present and credit
// their subject. Periods without a record are left out of both sides.
func (e *Engine) AttendanceRate(student models.Student, r Range) Rate {
	rate := Rate{SubjectPeriods: map[string]int{}}
	for _, date := range e.StudentValidDays(student.ID, r) {
		for p := 1; p <= e.doc.Settings.PeriodCount; p++ {
			subject, ok := e.SubjectFor(student.Grade, date, p)
			if !ok {
				continue
			}
			status, ok := e.records[models.RecordKey{StudentID: student.ID, Date: date, Period: p}]
			if !ok {
				continue
			}
			rate.Total++
			if status.CountsAsPresent() {
				rate.Present++
				rate.SubjectPeriods[subject.ID]++
			}
		}
	}
	rate.Percent = percent(rate.Present, rate.Total)
	rate.Text = formatPercent(rate.Percent)
	return rate
}

// Hours converts attended periods of subjectID into hours.
func (e *Engine) Hours(rate Rate, subjectID string) float64 {
	return round1(float64(rate.SubjectPeriods[subjectID]) * e.doc.Settings.HourPerPeriod)
}

// Counts holds raw late and early-leave tallies.
type Counts struct {
	Late       int `json:"late"`
	EarlyLeave int `json:"earlyLeave"`
}

// Counts tallies late and early-leave records for the student over the raw
// range. Holidays, future dates and the timetable are ignored.
func (e *Engine) Counts(studentID string, r Range) Counts {
	var c Counts
	for _, rec := range e.doc.AttendanceRecords {
		if rec.StudentID != studentID || !r.Contains(rec.Date) {
			continue
		}
		switch rec.Status {
		case models.AttendanceStatusLate:
			c.Late++
		case models.AttendanceStatusEarlyLeave:
			c.EarlyLeave++
		}
	}
	return c
}

// SubjectHours is the accumulated and required hours of one subject.
type SubjectHours struct {
	SubjectID     string  `json:"subjectId"`
	Name          string  `json:"name"`
	Hours         float64 `json:"hours"`
	RequiredHours float64 `json:"requiredHours"`
}

// StudentSummary is the per-student figure set shown on reports.
type StudentSummary struct {
	Student  models.Student `json:"student"`
	Range    Range          `json:"range"`
	Present  int            `json:"present"`
	Total    int            `json:"total"`
	Percent  float64        `json:"percent"`
	RateText string         `json:"rateText"`
	NoData   bool           `json:"noData"`
	Counts
	Subjects []SubjectHours `json:"subjects"`
}

// StudentSummary combines rate, counts and per-subject hours.
func (e *Engine) StudentSummary(student models.Student, r Range) StudentSummary {
	rate := e.AttendanceRate(student, r)
	summary := StudentSummary{
		Student:  student,
		Range:    r,
		Present:  rate.Present,
		Total:    rate.Total,
		Percent:  rate.Percent,
		RateText: rate.Text,
		NoData:   rate.NoData(),
		Counts:   e.Counts(student.ID, r),
		Subjects: make([]SubjectHours, 0, len(e.doc.Subjects)),
	}
	for _, s := range e.doc.Subjects {
		summary.Subjects = append(summary.Subjects, SubjectHours{
			SubjectID:     s.ID,
			Name:          s.Name,
			Hours:         e.Hours(rate, s.ID),
			RequiredHours: s.RequiredHours,
		})
	}
	return summary
}

// Students returns the students of grade in list order. Grade 0 selects all.
func (e *Engine) Students(grade int) []models.Student {
	out := make([]models.Student, 0, len(e.doc.Students))
	for _, s := range e.doc.Students {
		if grade == 0 || s.Grade == grade {
			out = append(out, s)
		}
	}
	return out
}

// Dashboard is the landing page summary.
type Dashboard struct {
	Date          string `json:"date"`
	Students      int    `json:"students"`
	Subjects      int    `json:"subjects"`
	Records       int    `json:"records"`
	RecordsToday  int    `json:"recordsToday"`
	TodayHoliday  bool   `json:"todayHoliday"`
	CalendarDays  int    `json:"calendarDays"`
	FirstRecordOn string `json:"firstRecordOn,omitempty"`
}

// Dashboard summarises the dataset as of today.
func (e *Engine) Dashboard() Dashboard {
	d := Dashboard{
		Date:          e.today,
		Students:      len(e.doc.Students),
		Subjects:      len(e.doc.Subjects),
		Records:       len(e.doc.AttendanceRecords),
		TodayHoliday:  e.calendar.IsHoliday(e.today),
		CalendarDays:  len(e.doc.Calendar),
		FirstRecordOn: e.earliest,
	}
	for _, r := range e.doc.AttendanceRecords {
		if r.Date == e.today {
			d.RecordsToday++
		}
	}
	return d
}

func percent(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(100 * float64(present) / float64(total))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
