package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/response"
)

type calendarStore interface {
	Calendar() []models.CalendarDay
	GenerateCalendar(ctx context.Context, start, end string, confirm bool) (service.CalendarResult, error)
	ToggleHoliday(ctx context.Context, date string) (models.CalendarDay, bool, error)
	SetHolidayNote(ctx context.Context, date, note string) (models.CalendarDay, bool, error)
}

// CalendarHandler exposes the school calendar.
type CalendarHandler struct {
	calendar calendarStore
}

// NewCalendarHandler constructs CalendarHandler.
func NewCalendarHandler(calendar calendarStore) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// List godoc
// @Summary List calendar days
// @Tags Calendar
// @Produce json
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) List(c *gin.Context) {
	var query struct {
		From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
		To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	}
	if !bindQuery(c, &query) {
		return
	}
	days := make([]models.CalendarDay, 0)
	for _, day := range h.calendar.Calendar() {
		if query.From != "" && day.Date < query.From {
			continue
		}
		if query.To != "" && day.Date > query.To {
			continue
		}
		days = append(days, day)
	}
	response.JSON(c, http.StatusOK, days, map[string]interface{}{"total": len(days)})
}

// Generate godoc
// @Summary Regenerate the calendar
// @Description Replaces the calendar with one entry per day, weekends as holidays. Manually changed days are only discarded with confirm=true; otherwise the call answers 409.
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.GenerateCalendarRequest true "Range"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /calendar/generate [post]
func (h *CalendarHandler) Generate(c *gin.Context) {
	var req dto.GenerateCalendarRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.calendar.GenerateCalendar(c.Request.Context(), req.Start, req.End, req.Confirm)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Toggle godoc
// @Summary Flip the holiday flag of a date
// @Description Dates outside the generated calendar are left alone and reported with meta.changed=false.
// @Tags Calendar
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /calendar/{date}/toggle [post]
func (h *CalendarHandler) Toggle(c *gin.Context) {
	day, changed, err := h.calendar.ToggleHoliday(c.Request.Context(), c.Param("date"))
	respondCalendarDay(c, day, changed, err)
}

// Note godoc
// @Summary Set the note of a date
// @Tags Calendar
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.HolidayNoteRequest true "Note"
// @Success 200 {object} response.Envelope
// @Router /calendar/{date}/note [put]
func (h *CalendarHandler) Note(c *gin.Context) {
	var req dto.HolidayNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	day, changed, err := h.calendar.SetHolidayNote(c.Request.Context(), c.Param("date"), req.Note)
	respondCalendarDay(c, day, changed, err)
}

func respondCalendarDay(c *gin.Context, day models.CalendarDay, changed bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"changed": changed}
	if !changed {
		response.JSON(c, http.StatusOK, nil, meta)
		return
	}
	response.JSON(c, http.StatusOK, day, meta)
}
