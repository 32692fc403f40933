package models

import (
	"fmt"
	"time"
)

// CurrentSchemaVersion is the schema version written by this build.
const CurrentSchemaVersion = 2

// Document is the whole persisted dataset. The same shape is used for the
// local snapshot slot and for transfer payloads.
type Document struct {
	Version           int                `json:"version"`
	Students          []Student          `json:"students"`
	Subjects          []Subject          `json:"subjects"`
	AttendanceRecords []AttendanceRecord `json:"attendanceRecords"`
	Calendar          []CalendarDay      `json:"calendar"`
	Settings          AppSettings        `json:"settings"`
	LicenseKey        *string            `json:"licenseKey"`
	LicenseExpiry     *int64             `json:"licenseExpiry"`
}

// NewDocument returns an empty document with default settings.
func NewDocument(now time.Time) Document {
	return Document{
		Version:           CurrentSchemaVersion,
		Students:          []Student{},
		Subjects:          []Subject{},
		AttendanceRecords: []AttendanceRecord{},
		Calendar:          []CalendarDay{},
		Settings:          DefaultSettings(now),
	}
}

// License returns the license fields of the document.
func (d Document) License() License {
	return License{Key: d.LicenseKey, Expiry: d.LicenseExpiry}
}

// SetLicense replaces the license fields.
func (d *Document) SetLicense(l License) {
	d.LicenseKey = cloneString(l.Key)
	d.LicenseExpiry = cloneInt64(l.Expiry)
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	out := d
	out.Students = append([]Student(nil), d.Students...)
	out.Subjects = append([]Subject(nil), d.Subjects...)
	out.AttendanceRecords = append([]AttendanceRecord(nil), d.AttendanceRecords...)
	out.Calendar = append([]CalendarDay(nil), d.Calendar...)
	out.Settings.Timetables = d.Settings.Timetables.Clone()
	out.LicenseKey = cloneString(d.LicenseKey)
	out.LicenseExpiry = cloneInt64(d.LicenseExpiry)
	out.Normalize()
	return out
}

// Normalize replaces nil collections with empty ones, stamps the current
// version and restores the student ordering.
func (d *Document) Normalize() {
	d.Version = CurrentSchemaVersion
	if d.Students == nil {
		d.Students = []Student{}
	}
	if d.Subjects == nil {
		d.Subjects = []Subject{}
	}
	if d.AttendanceRecords == nil {
		d.AttendanceRecords = []AttendanceRecord{}
	}
	if d.Calendar == nil {
		d.Calendar = []CalendarDay{}
	}
	if d.Settings.Timetables == nil {
		d.Settings.Timetables = Timetables{}
	}
	SortStudents(d.Students)
}

// Validate checks the invariants a loaded or imported document must hold.
func (d Document) Validate() error {
	if !ValidPeriodCount(d.Settings.PeriodCount) {
		return fmt.Errorf("settings.periodCount %d not in %v", d.Settings.PeriodCount, AllowedPeriodCounts)
	}
	if d.Settings.HourPerPeriod <= 0 {
		return fmt.Errorf("settings.hourPerPeriod must be positive")
	}
	for _, r := range []TermRange{d.Settings.FirstTerm, d.Settings.SecondTerm} {
		for _, bound := range []string{r.Start, r.End} {
			if bound != "" && !ValidDate(bound) {
				return fmt.Errorf("invalid term date %q", bound)
			}
		}
	}
	for _, s := range d.Students {
		if s.ID == "" {
			return fmt.Errorf("student without id")
		}
		if !ValidGrade(s.Grade) {
			return fmt.Errorf("student %s has invalid grade %d", s.ID, s.Grade)
		}
	}
	for _, s := range d.Subjects {
		if s.ID == "" {
			return fmt.Errorf("subject without id")
		}
	}
	seen := make(map[RecordKey]struct{}, len(d.AttendanceRecords))
	for _, r := range d.AttendanceRecords {
		if !r.Status.Valid() {
			return fmt.Errorf("record %s/%s/%d has invalid status %q", r.StudentID, r.Date, r.Period, r.Status)
		}
		if !ValidDate(r.Date) {
			return fmt.Errorf("record has invalid date %q", r.Date)
		}
		if r.Period < HomeroomPeriod {
			return fmt.Errorf("record has negative period %d", r.Period)
		}
		if _, dup := seen[r.Key()]; dup {
			return fmt.Errorf("duplicate record %s/%s/%d", r.StudentID, r.Date, r.Period)
		}
		seen[r.Key()] = struct{}{}
	}
	for _, c := range d.Calendar {
		if !ValidDate(c.Date) {
			return fmt.Errorf("calendar has invalid date %q", c.Date)
		}
	}
	return nil
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
