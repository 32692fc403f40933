package models

// CalendarDay marks whether a date is a school day.
type CalendarDay struct {
	Date         string `json:"date"`
	IsHoliday    bool   `json:"isHoliday"`
	OverrideNote string `json:"overrideNote,omitempty"`
}

// CalendarIndex maps date to its calendar entry.
type CalendarIndex map[string]CalendarDay

// IndexCalendar builds a lookup table over days.
func IndexCalendar(days []CalendarDay) CalendarIndex {
	idx := make(CalendarIndex, len(days))
	for _, d := range days {
		idx[d.Date] = d
	}
	return idx
}

// IsHoliday resolves whether date is a holiday. An explicit calendar entry
// wins; any date without an entry falls back to the weekend rule, whether or
// not the calendar has other entries.
func (idx CalendarIndex) IsHoliday(date string) bool {
	if day, ok := idx[date]; ok {
		return day.IsHoliday
	}
	t, err := ParseDate(date)
	if err != nil {
		return false
	}
	return IsWeekend(t)
}
