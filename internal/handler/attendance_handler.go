package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/internal/stats"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/response"
)

// documentReader exposes a consistent copy of the dataset and the clock the
// store runs on.
type documentReader interface {
	Snapshot() models.Document
	Now() time.Time
}

type attendanceStore interface {
	documentReader
	SetAttendance(ctx context.Context, key models.RecordKey, op service.AttendanceOp) (models.Mark, error)
}

// AttendanceHandler exposes attendance entry endpoints.
type AttendanceHandler struct {
	store attendanceStore
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(store attendanceStore) *AttendanceHandler {
	return &AttendanceHandler{store: store}
}

// Set godoc
// @Summary Set, clear or cycle one attendance slot
// @Description A string status sets the slot, null clears it and an omitted status cycles present, absent, late, early_leave.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.SetAttendanceRequest true "Slot and status"
// @Success 200 {object} response.Envelope
// @Router /attendance [put]
func (h *AttendanceHandler) Set(c *gin.Context) {
	var req dto.SetAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	op := service.CycleStatus()
	switch {
	case req.Status.Null:
		op = service.ClearStatus()
	case req.Status.Present:
		if !req.Status.Value.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be one of present absent late early_leave"))
			return
		}
		op = service.ExplicitStatus(req.Status.Value)
	}
	key := models.RecordKey{StudentID: req.StudentID, Date: req.Date, Period: *req.Period}
	mark, err := h.store.SetAttendance(c.Request.Context(), key, op)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SetAttendanceResponse{
		StudentID: key.StudentID,
		Date:      key.Date,
		Period:    key.Period,
		Status:    mark,
	}, nil)
}

// Marks godoc
// @Summary Attendance of one day
// @Description Homeroom plus every period of the day for each matching student. Slots without a record are null.
// @Tags Attendance
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param grade query int false "Grade (1 or 2)"
// @Param studentId query string false "Limit to one student"
// @Success 200 {object} response.Envelope
// @Router /attendance/marks [get]
func (h *AttendanceHandler) Marks(c *gin.Context) {
	var query dto.AttendanceDayQuery
	if !bindQuery(c, &query) {
		return
	}
	doc := h.store.Snapshot()
	engine := stats.NewEngine(doc, h.store.Now())
	resp := dto.AttendanceDayResponse{
		Date:     query.Date,
		Holiday:  models.IndexCalendar(doc.Calendar).IsHoliday(query.Date),
		Periods:  engine.DaySlots(query.Grade, query.Date),
		Students: []dto.AttendanceDayRow{},
	}
	for _, student := range engine.Students(query.Grade) {
		if query.StudentID != "" && student.ID != query.StudentID {
			continue
		}
		row := dto.AttendanceDayRow{Student: student, Marks: make([]models.Mark, 0, len(resp.Periods))}
		for _, slot := range resp.Periods {
			row.Marks = append(row.Marks, engine.Mark(models.RecordKey{StudentID: student.ID, Date: query.Date, Period: slot.Period}))
		}
		resp.Students = append(resp.Students, row)
	}
	if query.StudentID != "" && len(resp.Students) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "student not found"))
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
