package dto

import "github.com/noah-isme/attendance-tracker/internal/models"

// TermRangeRequest is an inclusive date range. Both bounds empty unsets the term.
type TermRangeRequest struct {
	Start string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `json:"end" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateSettingsRequest is the body of PATCH /settings.
type UpdateSettingsRequest struct {
	FirstTerm     *TermRangeRequest  `json:"firstTerm"`
	SecondTerm    *TermRangeRequest  `json:"secondTerm"`
	PeriodCount   *int               `json:"periodCount" validate:"omitempty,oneof=4 6 8"`
	HourPerPeriod *float64           `json:"hourPerPeriod" validate:"omitempty,gt=0"`
	Timetables    *models.Timetables `json:"timetables"`
}

// TimetableSlotRequest is the body of PUT /settings/timetable.
type TimetableSlotRequest struct {
	Grade     int    `json:"grade" validate:"required,oneof=1 2"`
	Term      string `json:"term" validate:"required,oneof=first second"`
	Weekday   string `json:"weekday" validate:"required,oneof=Mon Tue Wed Thu Fri"`
	Period    int    `json:"period" validate:"required,min=1,max=8"`
	SubjectID string `json:"subjectId"`
}

// ActivateLicenseRequest is the body of POST /license/activate.
type ActivateLicenseRequest struct {
	Key string `json:"key" validate:"required"`
}

// ResetRequest confirms a destructive reset by repeating its phrase.
type ResetRequest struct {
	Confirmation string `json:"confirmation" validate:"required"`
}
