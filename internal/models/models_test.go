package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCycle(t *testing.T) {
	s := AttendanceStatusPresent
	seen := []AttendanceStatus{s}
	for i := 0; i < 4; i++ {
		s = s.Next()
		seen = append(seen, s)
	}
	assert.Equal(t, []AttendanceStatus{
		AttendanceStatusPresent,
		AttendanceStatusAbsent,
		AttendanceStatusLate,
		AttendanceStatusEarlyLeave,
		AttendanceStatusPresent,
	}, seen)
	assert.False(t, AttendanceStatusAbsent.CountsAsPresent())
	assert.True(t, AttendanceStatusLate.CountsAsPresent())
	assert.True(t, AttendanceStatusEarlyLeave.CountsAsPresent())
}

func TestMarkJSON(t *testing.T) {
	payload, err := json.Marshal(map[string]Mark{"a": Unset(), "b": Recorded(AttendanceStatusLate)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":"late"}`, string(payload))

	var decoded map[string]Mark
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.False(t, decoded["a"].IsSet())
	status, ok := decoded["b"].Status()
	assert.True(t, ok)
	assert.Equal(t, AttendanceStatusLate, status)

	var bad Mark
	assert.Error(t, json.Unmarshal([]byte(`"sick"`), &bad))
}

func TestSortStudents(t *testing.T) {
	students := []Student{
		{ID: "c", Grade: 2, StudentNumber: 1},
		{ID: "a", Grade: 1, StudentNumber: 3},
		{ID: "b", Grade: 1, StudentNumber: 1},
		{ID: "d", Grade: 1, StudentNumber: 3},
	}
	SortStudents(students)
	ids := []string{}
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"b", "a", "d", "c"}, ids)
}

func TestCalendarFallback(t *testing.T) {
	idx := IndexCalendar([]CalendarDay{
		{Date: "2025-05-05", IsHoliday: true},
		{Date: "2025-05-10", IsHoliday: false},
	})

	assert.True(t, idx.IsHoliday("2025-05-05"), "explicit holiday on a Monday")
	assert.False(t, idx.IsHoliday("2025-05-10"), "explicit school day on a Saturday")
	assert.True(t, idx.IsHoliday("2025-05-11"), "missing Sunday falls back to weekend rule")
	assert.False(t, idx.IsHoliday("2025-05-12"), "missing Monday is a school day")

	empty := IndexCalendar(nil)
	assert.True(t, empty.IsHoliday("2025-05-17"))
}

func TestTimetablesJSON(t *testing.T) {
	tt := Timetables{
		{Grade: 1, Term: TermFirst, Weekday: time.Monday, Period: 1}:  "math",
		{Grade: 2, Term: TermSecond, Weekday: time.Friday, Period: 4}: "art",
	}
	payload, err := json.Marshal(tt)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"year1": {"first": {"Mon-1": "math"}, "second": {}},
		"year2": {"first": {}, "second": {"Fri-4": "art"}}
	}`, string(payload))

	var decoded Timetables
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, tt, decoded)
}

func TestTimetablesUnmarshalDropsInvalidCells(t *testing.T) {
	var tt Timetables
	require.NoError(t, json.Unmarshal([]byte(`{
		"year1": {"first": {"Mon-1": "x", "Sat-1": "y", "Tue-0": "z", "Wed": "w", "Thu-2": ""}},
		"year3": {"first": {"Mon-1": "x"}},
		"year2": {"third": {"Mon-1": "x"}}
	}`), &tt))
	assert.Equal(t, Timetables{{Grade: 1, Term: TermFirst, Weekday: time.Monday, Period: 1}: "x"}, tt)
}

func TestSlotKeyValidate(t *testing.T) {
	key := SlotKey{Grade: 1, Term: TermFirst, Weekday: time.Monday, Period: 5}
	assert.Error(t, key.Validate(4))
	assert.NoError(t, key.Validate(6))
	assert.Error(t, SlotKey{Grade: 1, Term: TermFirst, Weekday: time.Saturday, Period: 1}.Validate(4))
	assert.Error(t, SlotKey{Grade: 3, Term: TermFirst, Weekday: time.Monday, Period: 1}.Validate(4))
}

func TestTermFor(t *testing.T) {
	s := AppSettings{
		FirstTerm:  TermRange{Start: "2025-04-01", End: "2025-09-30"},
		SecondTerm: TermRange{Start: "2025-10-01", End: "2026-03-31"},
	}
	assert.Equal(t, TermFirst, s.TermFor("2025-05-01"))
	assert.Equal(t, TermSecond, s.TermFor("2025-10-01"))
	assert.Equal(t, TermSecond, s.TermFor("2026-03-31"))
	assert.Equal(t, TermFirst, s.TermFor("2026-04-01"), "outside both ranges resolves to first")
}

func TestDefaultSettingsSchoolYear(t *testing.T) {
	s := DefaultSettings(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, TermRange{Start: "2025-04-01", End: "2025-09-30"}, s.FirstTerm)
	assert.Equal(t, TermRange{Start: "2025-10-01", End: "2026-03-31"}, s.SecondTerm)
	assert.Equal(t, 4, s.PeriodCount)
}

func TestDocumentCloneIsDeep(t *testing.T) {
	key := "ATTEND-PRO"
	doc := NewDocument(time.Now())
	doc.Students = append(doc.Students, Student{ID: "s1", Grade: 1})
	doc.LicenseKey = &key

	clone := doc.Clone()
	clone.Students[0].Name = "changed"
	*clone.LicenseKey = "other"
	clone.Settings.Timetables[SlotKey{Grade: 1, Term: TermFirst, Weekday: time.Monday, Period: 1}] = "x"

	assert.Empty(t, doc.Students[0].Name)
	assert.Equal(t, "ATTEND-PRO", *doc.LicenseKey)
	assert.Empty(t, doc.Settings.Timetables)
}

func TestDocumentValidate(t *testing.T) {
	doc := NewDocument(time.Now())
	require.NoError(t, doc.Validate())

	doc.AttendanceRecords = []AttendanceRecord{{StudentID: "s", Date: "2025-05-01", Period: 1, Status: "sick"}}
	assert.Error(t, doc.Validate())

	doc.AttendanceRecords = []AttendanceRecord{
		{StudentID: "s", Date: "2025-05-01", Period: 1, Status: AttendanceStatusLate},
		{StudentID: "s", Date: "2025-05-01", Period: 1, Status: AttendanceStatusAbsent},
	}
	assert.Error(t, doc.Validate())
}
