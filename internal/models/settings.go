package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Term is one of the two academic half-years.
type Term string

const (
	TermFirst  Term = "first"
	TermSecond Term = "second"
)

// Valid reports whether t is first or second.
func (t Term) Valid() bool { return t == TermFirst || t == TermSecond }

// TermRange is an inclusive YYYY-MM-DD date range. Either bound may be empty
// while the term is still unconfigured.
type TermRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// IsSet reports whether both bounds are configured.
func (r TermRange) IsSet() bool { return r.Start != "" && r.End != "" }

// Contains reports whether date lies within the range. Dates compare as strings.
func (r TermRange) Contains(date string) bool {
	return r.IsSet() && r.Start <= date && date <= r.End
}

// AllowedPeriodCounts lists the supported numbers of class periods per day.
var AllowedPeriodCounts = []int{4, 6, 8}

// ValidPeriodCount reports whether n is a supported period count.
func ValidPeriodCount(n int) bool {
	for _, allowed := range AllowedPeriodCounts {
		if n == allowed {
			return true
		}
	}
	return false
}

// AppSettings holds the term ranges, period configuration and timetables.
type AppSettings struct {
	FirstTerm     TermRange  `json:"firstTerm"`
	SecondTerm    TermRange  `json:"secondTerm"`
	PeriodCount   int        `json:"periodCount"`
	HourPerPeriod float64    `json:"hourPerPeriod"`
	Timetables    Timetables `json:"timetables"`
}

// DefaultSettings returns the settings for a fresh install: a school year
// starting in April split into April-September and October-March.
func DefaultSettings(now time.Time) AppSettings {
	start := SchoolYearStart(now)
	y := start.Year()
	return AppSettings{
		FirstTerm:     TermRange{Start: fmt.Sprintf("%04d-04-01", y), End: fmt.Sprintf("%04d-09-30", y)},
		SecondTerm:    TermRange{Start: fmt.Sprintf("%04d-10-01", y), End: fmt.Sprintf("%04d-03-31", y+1)},
		PeriodCount:   4,
		HourPerPeriod: 1,
		Timetables:    Timetables{},
	}
}

// SchoolYearStart returns April 1 of the school year containing now.
func SchoolYearStart(now time.Time) time.Time {
	y := now.Year()
	if now.Month() < time.April {
		y--
	}
	return time.Date(y, time.April, 1, 0, 0, 0, 0, time.UTC)
}

// TermFor returns the term a date belongs to: second when inside the second
// term range, first otherwise.
func (s AppSettings) TermFor(date string) Term {
	if s.SecondTerm.Contains(date) {
		return TermSecond
	}
	return TermFirst
}

// Range returns the configured range of term.
func (s AppSettings) Range(term Term) TermRange {
	if term == TermSecond {
		return s.SecondTerm
	}
	return s.FirstTerm
}

// SlotKey addresses a timetable cell.
type SlotKey struct {
	Grade   int
	Term    Term
	Weekday time.Weekday
	Period  int
}

var weekdayAbbrev = map[time.Weekday]string{
	time.Monday:    "Mon",
	time.Tuesday:   "Tue",
	time.Wednesday: "Wed",
	time.Thursday:  "Thu",
	time.Friday:    "Fri",
}

// SchoolWeekdays are the weekdays a timetable can schedule.
var SchoolWeekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// ParseWeekday parses a Mon..Fri abbreviation.
func ParseWeekday(abbrev string) (time.Weekday, bool) {
	for wd, name := range weekdayAbbrev {
		if name == abbrev {
			return wd, true
		}
	}
	return 0, false
}

// WeekdayAbbrev returns the Mon..Fri abbreviation, or "" for weekends.
func WeekdayAbbrev(wd time.Weekday) string { return weekdayAbbrev[wd] }

// Validate checks the key against the Mon..Fri x 1..periodCount domain.
func (k SlotKey) Validate(periodCount int) error {
	if !ValidGrade(k.Grade) {
		return fmt.Errorf("grade must be 1 or 2")
	}
	if !k.Term.Valid() {
		return fmt.Errorf("term must be first or second")
	}
	if _, ok := weekdayAbbrev[k.Weekday]; !ok {
		return fmt.Errorf("weekday must be Mon-Fri")
	}
	if k.Period < 1 || k.Period > periodCount {
		return fmt.Errorf("period must be between 1 and %d", periodCount)
	}
	return nil
}

// Cell returns the "Mon-1" style cell name.
func (k SlotKey) Cell() string {
	return weekdayAbbrev[k.Weekday] + "-" + strconv.Itoa(k.Period)
}

func parseCell(cell string) (time.Weekday, int, bool) {
	name, num, ok := strings.Cut(cell, "-")
	if !ok {
		return 0, 0, false
	}
	wd, ok := ParseWeekday(name)
	if !ok {
		return 0, 0, false
	}
	period, err := strconv.Atoi(num)
	if err != nil || period < 1 {
		return 0, 0, false
	}
	return wd, period, true
}

// Timetables maps a slot to the assigned subject ID. Subject IDs may dangle
// after a subject is deleted; readers treat that as an unscheduled slot.
type Timetables map[SlotKey]string

// Lookup returns the subject assigned to key, if any.
func (t Timetables) Lookup(key SlotKey) (string, bool) {
	id, ok := t[key]
	return id, ok && id != ""
}

// Clone returns a copy of the map.
func (t Timetables) Clone() Timetables {
	out := make(Timetables, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

type timetableJSON map[string]map[string]map[string]string

func gradeKey(grade int) string { return "year" + strconv.Itoa(grade) }

// MarshalJSON writes the nested year1/year2 -> first/second -> "Mon-1" form.
// All four maps are always present.
func (t Timetables) MarshalJSON() ([]byte, error) {
	out := timetableJSON{}
	for _, grade := range []int{1, 2} {
		out[gradeKey(grade)] = map[string]map[string]string{
			string(TermFirst):  {},
			string(TermSecond): {},
		}
	}
	keys := make([]SlotKey, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Cell() < keys[j].Cell() })
	for _, k := range keys {
		id := t[k]
		if id == "" || !ValidGrade(k.Grade) || !k.Term.Valid() || WeekdayAbbrev(k.Weekday) == "" {
			continue
		}
		out[gradeKey(k.Grade)][string(k.Term)][k.Cell()] = id
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the nested form. Unknown grades, terms or malformed
// cell names are dropped.
func (t *Timetables) UnmarshalJSON(data []byte) error {
	var raw timetableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Timetables{}
	for gradeName, terms := range raw {
		grade, err := strconv.Atoi(strings.TrimPrefix(gradeName, "year"))
		if err != nil || !strings.HasPrefix(gradeName, "year") || !ValidGrade(grade) {
			continue
		}
		for termName, cells := range terms {
			term := Term(termName)
			if !term.Valid() {
				continue
			}
			for cell, subjectID := range cells {
				wd, period, ok := parseCell(cell)
				if !ok || subjectID == "" {
					continue
				}
				out[SlotKey{Grade: grade, Term: term, Weekday: wd, Period: period}] = subjectID
			}
		}
	}
	*t = out
	return nil
}
