package service

import (
	"context"
	"fmt"

	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

type attendanceOpKind int

const (
	opCycle attendanceOpKind = iota
	opExplicit
	opClear
)

// AttendanceOp is the change applied by SetAttendance.
type AttendanceOp struct {
	kind   attendanceOpKind
	status models.AttendanceStatus
}

// ExplicitStatus sets the slot to status. Repeating it converges.
func ExplicitStatus(status models.AttendanceStatus) AttendanceOp {
	return AttendanceOp{kind: opExplicit, status: status}
}

// ClearStatus removes the slot's record, reverting it to not entered.
func ClearStatus() AttendanceOp { return AttendanceOp{kind: opClear} }

// CycleStatus advances the slot: no record becomes present, otherwise the
// status moves to its successor.
func CycleStatus() AttendanceOp { return AttendanceOp{kind: opCycle} }

func (op AttendanceOp) String() string {
	switch op.kind {
	case opExplicit:
		return "set:" + string(op.status)
	case opClear:
		return "clear"
	default:
		return "cycle"
	}
}

// Mark returns the slot's value at the lookup boundary.
func (s *Store) Mark(key models.RecordKey) models.Mark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.doc.AttendanceRecords {
		if r.Key() == key {
			return models.Recorded(r.Status)
		}
	}
	return models.Unset()
}

// Records returns the records of date, optionally limited to studentID.
func (s *Store) Records(date, studentID string) []models.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AttendanceRecord, 0)
	for _, r := range s.doc.AttendanceRecords {
		if r.Date == date && (studentID == "" || r.StudentID == studentID) {
			out = append(out, r)
		}
	}
	return out
}

// SetAttendance applies op to the slot identified by key and returns the
// resulting mark.
func (s *Store) SetAttendance(ctx context.Context, key models.RecordKey, op AttendanceOp) (models.Mark, error) {
	if !models.ValidDate(key.Date) {
		return models.Unset(), validationError("date must be YYYY-MM-DD")
	}
	if op.kind == opExplicit && !op.status.Valid() {
		return models.Unset(), validationError("unknown status %q", op.status)
	}

	result := models.Unset()
	err := s.mutate(ctx, func(doc *models.Document) error {
		if key.Period < models.HomeroomPeriod || key.Period > doc.Settings.PeriodCount {
			return validationError("period must be between 0 and %d", doc.Settings.PeriodCount)
		}
		if !hasStudent(doc, key.StudentID) {
			return notFound("student")
		}

		idx := -1
		for i, r := range doc.AttendanceRecords {
			if r.Key() == key {
				idx = i
				break
			}
		}

		switch op.kind {
		case opClear:
			if idx < 0 {
				return errNoChange
			}
			doc.AttendanceRecords = append(doc.AttendanceRecords[:idx], doc.AttendanceRecords[idx+1:]...)
			return nil
		case opExplicit:
			result = models.Recorded(op.status)
			if idx >= 0 && doc.AttendanceRecords[idx].Status == op.status {
				return errNoChange
			}
		default:
			next := models.AttendanceStatusPresent
			if idx >= 0 {
				next = doc.AttendanceRecords[idx].Status.Next()
			}
			result = models.Recorded(next)
		}

		status, _ := result.Status()
		record := models.AttendanceRecord{StudentID: key.StudentID, Date: key.Date, Period: key.Period, Status: status}
		if idx >= 0 {
			doc.AttendanceRecords[idx] = record
		} else {
			doc.AttendanceRecords = append(doc.AttendanceRecords, record)
		}
		return nil
	})
	if err != nil {
		return models.Unset(), err
	}
	return result, nil
}

func hasStudent(doc *models.Document, id string) bool {
	for _, st := range doc.Students {
		if st.ID == id {
			return true
		}
	}
	return false
}

// Calendar returns the calendar entries.
func (s *Store) Calendar() []models.CalendarDay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CalendarDay{}, s.doc.Calendar...)
}

// CalendarResult describes a calendar generation.
type CalendarResult struct {
	Days      int    `json:"days"`
	Holidays  int    `json:"holidays"`
	Discarded int    `json:"discarded"`
	FirstDate string `json:"firstDate"`
	LastDate  string `json:"lastDate"`
}

// GenerateCalendar replaces the whole calendar with one entry per day in
// [start, end], weekends marked as holidays. When existing entries carry
// manual changes (a flipped holiday flag or a note) the call fails with
// ErrConflict unless confirm is set.
func (s *Store) GenerateCalendar(ctx context.Context, start, end string, confirm bool) (CalendarResult, error) {
	from, err := models.ParseDate(start)
	if err != nil {
		return CalendarResult{}, validationError("start must be YYYY-MM-DD")
	}
	to, err := models.ParseDate(end)
	if err != nil {
		return CalendarResult{}, validationError("end must be YYYY-MM-DD")
	}
	if from.After(to) {
		return CalendarResult{}, validationError("start must not be after end")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > maxCalendarDays {
		return CalendarResult{}, validationError("calendar range is limited to %d days", maxCalendarDays)
	}

	result := CalendarResult{FirstDate: start, LastDate: end}
	err = s.mutate(ctx, func(doc *models.Document) error {
		for _, day := range doc.Calendar {
			if isManualOverride(day) {
				result.Discarded++
			}
		}
		if result.Discarded > 0 && !confirm {
			return appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("calendar has %d manually changed days; confirm to discard them", result.Discarded))
		}

		calendar := make([]models.CalendarDay, 0, int(to.Sub(from).Hours()/24)+1)
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			day := models.CalendarDay{Date: models.FormatDate(d), IsHoliday: models.IsWeekend(d)}
			if day.IsHoliday {
				result.Holidays++
			}
			calendar = append(calendar, day)
		}
		doc.Calendar = calendar
		result.Days = len(calendar)
		return nil
	})
	if err != nil {
		return CalendarResult{}, err
	}
	return result, nil
}

func isManualOverride(day models.CalendarDay) bool {
	if day.OverrideNote != "" {
		return true
	}
	t, err := models.ParseDate(day.Date)
	if err != nil {
		return false
	}
	return day.IsHoliday != models.IsWeekend(t)
}

// ToggleHoliday flips the holiday flag of an existing entry. Dates without
// an entry are left alone and reported with ok=false.
func (s *Store) ToggleHoliday(ctx context.Context, date string) (models.CalendarDay, bool, error) {
	return s.updateCalendarDay(ctx, date, func(day *models.CalendarDay) {
		day.IsHoliday = !day.IsHoliday
	})
}

// SetHolidayNote sets the note of an existing entry. An empty note clears it.
func (s *Store) SetHolidayNote(ctx context.Context, date, note string) (models.CalendarDay, bool, error) {
	return s.updateCalendarDay(ctx, date, func(day *models.CalendarDay) {
		day.OverrideNote = note
	})
}

func (s *Store) updateCalendarDay(ctx context.Context, date string, fn func(*models.CalendarDay)) (models.CalendarDay, bool, error) {
	if !models.ValidDate(date) {
		return models.CalendarDay{}, false, validationError("date must be YYYY-MM-DD")
	}
	var (
		updated models.CalendarDay
		found   bool
	)
	err := s.mutate(ctx, func(doc *models.Document) error {
		for i := range doc.Calendar {
			if doc.Calendar[i].Date == date {
				fn(&doc.Calendar[i])
				updated = doc.Calendar[i]
				found = true
				return nil
			}
		}
		return errNoChange
	})
	return updated, found, err
}
