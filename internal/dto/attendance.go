package dto

import (
	"bytes"
	"encoding/json"

	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/stats"
)

// StatusField distinguishes an omitted status (cycle), an explicit null
// (clear) and a status string (set).
type StatusField struct {
	Present bool
	Null    bool
	Value   models.AttendanceStatus
}

// UnmarshalJSON is only invoked when the key is present.
func (f *StatusField) UnmarshalJSON(data []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Value = models.AttendanceStatus(raw)
	return nil
}

// SetAttendanceRequest is the body of PUT /attendance.
type SetAttendanceRequest struct {
	StudentID string      `json:"studentId" validate:"required"`
	Date      string      `json:"date" validate:"required,datetime=2006-01-02"`
	Period    *int        `json:"period" validate:"required,min=0,max=8"`
	Status    StatusField `json:"status"`
}

// SetAttendanceResponse reports the slot after the change.
type SetAttendanceResponse struct {
	StudentID string      `json:"studentId"`
	Date      string      `json:"date"`
	Period    int         `json:"period"`
	Status    models.Mark `json:"status"`
}

// AttendanceDayQuery filters GET /attendance.
type AttendanceDayQuery struct {
	Date      string `form:"date" validate:"required,datetime=2006-01-02"`
	StudentID string `form:"studentId"`
	Grade     int    `form:"grade" validate:"omitempty,oneof=1 2"`
}

// AttendanceDayResponse lists the slots and marks of one day.
type AttendanceDayResponse struct {
	Date     string               `json:"date"`
	Holiday  bool                 `json:"holiday"`
	Periods  []stats.MatrixPeriod `json:"periods"`
	Students []AttendanceDayRow   `json:"students"`
}

// AttendanceDayRow is one student's marks for the day, homeroom first.
type AttendanceDayRow struct {
	Student models.Student `json:"student"`
	Marks   []models.Mark  `json:"marks"`
}
