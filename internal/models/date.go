package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for every stored date.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string as a UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD using its own calendar day.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDate reports whether value is a well-formed YYYY-MM-DD date.
func ValidDate(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}

// Today returns now truncated to its calendar day, expressed in UTC.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
