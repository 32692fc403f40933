package models

import (
	"encoding/json"
	"fmt"
)

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent    AttendanceStatus = "present"
	AttendanceStatusAbsent     AttendanceStatus = "absent"
	AttendanceStatusLate       AttendanceStatus = "late"
	AttendanceStatusEarlyLeave AttendanceStatus = "early_leave"
)

// HomeroomPeriod is the period number reserved for homeroom. It is never timetabled.
const HomeroomPeriod = 0

var statusCycle = []AttendanceStatus{
	AttendanceStatusPresent,
	AttendanceStatusAbsent,
	AttendanceStatusLate,
	AttendanceStatusEarlyLeave,
}

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusEarlyLeave:
		return true
	default:
		return false
	}
}

// Next returns the status following s in the tap cycle
// present -> absent -> late -> early_leave -> present.
func (s AttendanceStatus) Next() AttendanceStatus {
	for i, candidate := range statusCycle {
		if candidate == s {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return AttendanceStatusPresent
}

// CountsAsPresent reports whether the status counts toward the attendance rate.
// Late arrivals and early leaves are present for rate purposes.
func (s AttendanceStatus) CountsAsPresent() bool {
	return s.Valid() && s != AttendanceStatusAbsent
}

// RecordKey identifies a single attendance slot.
type RecordKey struct {
	StudentID string `json:"studentId"`
	Date      string `json:"date"`
	Period    int    `json:"period"`
}

// AttendanceRecord is one entered status for a slot. A slot without a record
// means nothing has been entered yet, which is not the same as absent.
type AttendanceRecord struct {
	StudentID string           `json:"studentId"`
	Date      string           `json:"date"`
	Period    int              `json:"period"`
	Status    AttendanceStatus `json:"status"`
}

// Key returns the unique key of the record.
func (r AttendanceRecord) Key() RecordKey {
	return RecordKey{StudentID: r.StudentID, Date: r.Date, Period: r.Period}
}

// Mark is the value of a slot at the lookup boundary: either Unset or
// Recorded(status). It serialises to JSON null when unset.
type Mark struct {
	status AttendanceStatus
	set    bool
}

// Unset returns the mark of a slot with no record.
func Unset() Mark { return Mark{} }

// Recorded returns the mark of a slot holding status.
func Recorded(status AttendanceStatus) Mark { return Mark{status: status, set: true} }

// IsSet reports whether a record exists.
func (m Mark) IsSet() bool { return m.set }

// Status returns the recorded status and whether one exists.
func (m Mark) Status() (AttendanceStatus, bool) { return m.status, m.set }

func (m Mark) String() string {
	if !m.set {
		return "unset"
	}
	return string(m.status)
}

// MarshalJSON encodes Unset as null and Recorded(s) as the status string.
func (m Mark) MarshalJSON() ([]byte, error) {
	if !m.set {
		return []byte("null"), nil
	}
	return json.Marshal(string(m.status))
}

// UnmarshalJSON accepts null or a valid status string.
func (m *Mark) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Unset()
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status := AttendanceStatus(raw)
	if !status.Valid() {
		return fmt.Errorf("unknown attendance status %q", raw)
	}
	*m = Recorded(status)
	return nil
}
