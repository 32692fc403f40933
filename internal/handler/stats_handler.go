package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/stats"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/response"
)

// StatsHandler exposes the statistics engine. Every request works on a fresh
// snapshot of the dataset.
type StatsHandler struct {
	source documentReader
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(source documentReader) *StatsHandler {
	return &StatsHandler{source: source}
}

type statsRequest struct {
	engine *stats.Engine
	doc    models.Document
	query  dto.StatsQuery
	rng    stats.Range
	title  string
	scope  models.ReportScope
}

// resolve binds the query and picks the range: explicit start/end wins,
// otherwise scope (default month) with month (default current month).
func (h *StatsHandler) resolve(c *gin.Context) (*statsRequest, bool) {
	req := &statsRequest{}
	if !bindQuery(c, &req.query) {
		return nil, false
	}
	now := h.source.Now()
	req.doc = h.source.Snapshot()
	req.engine = stats.NewEngine(req.doc, now)

	q := req.query
	if q.Start != "" || q.End != "" {
		if q.Start == "" || q.End == "" || q.Start > q.End {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start and end must both be set with start <= end"))
			return nil, false
		}
		req.rng = stats.Range{Start: q.Start, End: q.End}
		req.title = q.Start + " to " + q.End
		return req, true
	}

	req.scope = models.ReportScope(q.Scope)
	if req.scope == "" {
		req.scope = models.ReportScopeMonth
	}
	month := q.Month
	if month == "" {
		month = now.Format("2006-01")
	}
	rng, ok := req.engine.ScopeRange(req.scope, month, now)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "the selected term is not configured"))
		return nil, false
	}
	req.rng = rng
	req.title = stats.SheetTitle(req.scope, month, now)
	return req, true
}

func findStudent(doc models.Document, id string) (models.Student, bool) {
	for _, s := range doc.Students {
		if s.ID == id {
			return s, true
		}
	}
	return models.Student{}, false
}

// Student godoc
// @Summary Attendance summary of one student
// @Tags Statistics
// @Produce json
// @Param id path string true "Student ID"
// @Param start query string false "Range start (YYYY-MM-DD)"
// @Param end query string false "Range end (YYYY-MM-DD)"
// @Param scope query string false "month, first_term, second_term or year"
// @Param month query string false "Month (YYYY-MM) for the month scope"
// @Success 200 {object} response.Envelope
// @Router /stats/students/{id} [get]
func (h *StatsHandler) Student(c *gin.Context) {
	req, ok := h.resolve(c)
	if !ok {
		return
	}
	student, found := findStudent(req.doc, c.Param("id"))
	if !found {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "student not found"))
		return
	}
	response.JSON(c, http.StatusOK, req.engine.StudentSummary(student, req.rng), nil)
}

// Report godoc
// @Summary Report sheet of a grade
// @Tags Statistics
// @Produce json
// @Param grade query int false "Grade (1 or 2), all students when omitted"
// @Param start query string false "Range start (YYYY-MM-DD)"
// @Param end query string false "Range end (YYYY-MM-DD)"
// @Param scope query string false "month, first_term, second_term or year"
// @Param month query string false "Month (YYYY-MM) for the month scope"
// @Success 200 {object} response.Envelope
// @Router /stats/report [get]
func (h *StatsHandler) Report(c *gin.Context) {
	req, ok := h.resolve(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, req.engine.Report(req.title, req.scope, req.query.Grade, req.rng), nil)
}

// Trend godoc
// @Summary Monthly attendance trend of one student over the school year
// @Tags Statistics
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /stats/trend/{id} [get]
func (h *StatsHandler) Trend(c *gin.Context) {
	doc := h.source.Snapshot()
	student, found := findStudent(doc, c.Param("id"))
	if !found {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "student not found"))
		return
	}
	now := h.source.Now()
	response.JSON(c, http.StatusOK, stats.NewEngine(doc, now).MonthlyTrend(student, now), nil)
}

// Matrix godoc
// @Summary Monthly attendance list
// @Tags Statistics
// @Produce json
// @Param grade query int false "Grade (1 or 2), all students when omitted"
// @Param month query string false "Month (YYYY-MM), current month when omitted"
// @Success 200 {object} response.Envelope
// @Router /stats/matrix [get]
func (h *StatsHandler) Matrix(c *gin.Context) {
	var query dto.StatsQuery
	if !bindQuery(c, &query) {
		return
	}
	now := h.source.Now()
	if query.Month == "" {
		query.Month = now.Format("2006-01")
	}
	matrix, err := stats.NewEngine(h.source.Snapshot(), now).MonthlyMatrix(query.Grade, query.Month)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "month must be YYYY-MM"))
		return
	}
	response.JSON(c, http.StatusOK, matrix, nil)
}

// Dashboard godoc
// @Summary Landing page summary
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats/dashboard [get]
func (h *StatsHandler) Dashboard(c *gin.Context) {
	response.JSON(c, http.StatusOK, stats.NewEngine(h.source.Snapshot(), h.source.Now()).Dashboard(), nil)
}
