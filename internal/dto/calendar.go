package dto

// GenerateCalendarRequest is the body of POST /calendar/generate.
type GenerateCalendarRequest struct {
	Start   string `json:"start" validate:"required,datetime=2006-01-02"`
	End     string `json:"end" validate:"required,datetime=2006-01-02"`
	Confirm bool   `json:"confirm"`
}

// HolidayNoteRequest is the body of PUT /calendar/:date/note.
type HolidayNoteRequest struct {
	Note string `json:"note" validate:"max=200"`
}
