package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/response"
)

type reportJobService interface {
	CreateJob(ctx context.Context, req dto.ReportRequest) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, id string) (*dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

type reportRenderer interface {
	Render(params models.ReportJobParams) (*service.RenderedReport, error)
}

// ReportHandler exposes report export endpoints.
type ReportHandler struct {
	jobs   reportJobService
	render reportRenderer
}

// NewReportHandler constructs handler.
func NewReportHandler(jobs reportJobService, render reportRenderer) *ReportHandler {
	return &ReportHandler{jobs: jobs, render: render}
}

var contentTypes = map[models.ReportFormat]string{
	models.ReportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	models.ReportFormatCSV:  "text/csv; charset=utf-8",
	models.ReportFormatPDF:  "application/pdf",
}

// Generate godoc
// @Summary Queue a report export
// @Description xlsx carries the month, term and year sheets; csv and pdf carry a single scope.
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReportRequest true "Report parameters"
// @Success 202 {object} response.Envelope
// @Router /reports/generate [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	var req dto.ReportRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /reports/status/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	status, err := h.jobs.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a generated report
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.jobs.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck
	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentTypes[download.Format], download.File, nil)
}

// Export godoc
// @Summary Render a report and download it directly
// @Tags Reports
// @Produce octet-stream
// @Param grade query int false "Grade (1 or 2)"
// @Param month query string false "Month (YYYY-MM)"
// @Param scope query string false "month, first_term, second_term, year or all"
// @Param format query string false "xlsx, csv or pdf"
// @Success 200 {file} binary
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	var req dto.ReportRequest
	if !bindQuery(c, &req) {
		return
	}
	rendered, err := h.render.Render(models.ReportJobParams{
		Grade:  req.Grade,
		Month:  req.Month,
		Scope:  req.Scope,
		Format: req.Format,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", rendered.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, rendered.ContentType, rendered.Payload)
}
