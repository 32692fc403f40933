package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/pkg/response"
)

type transferService interface {
	Issue(ctx context.Context) (dto.TransferIssueResponse, error)
	Status() dto.TransferStatusResponse
	ImportCode(ctx context.Context, code string) (dto.TransferImportResponse, error)
	ExportBlob() (string, error)
	ImportBlob(ctx context.Context, blob string) (dto.TransferImportResponse, error)
}

// TransferHandler moves the dataset between devices.
type TransferHandler struct {
	transfer transferService
}

// NewTransferHandler constructs TransferHandler.
func NewTransferHandler(transfer transferService) *TransferHandler {
	return &TransferHandler{transfer: transfer}
}

// Issue godoc
// @Summary Push the dataset to the relay and get a six digit code
// @Tags Transfer
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /transfer/issue [post]
func (h *TransferHandler) Issue(c *gin.Context) {
	issued, err := h.transfer.Issue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issued, nil)
}

// Status godoc
// @Summary Transfer session state with the remaining countdown
// @Tags Transfer
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /transfer/status [get]
func (h *TransferHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.transfer.Status(), nil)
}

// Import godoc
// @Summary Replace the local dataset with the one stored under a code
// @Tags Transfer
// @Accept json
// @Produce json
// @Param payload body dto.TransferImportRequest true "Relay code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Invalid code or expired"
// @Router /transfer/import [post]
func (h *TransferHandler) Import(c *gin.Context) {
	var req dto.TransferImportRequest
	if !bindJSON(c, &req) {
		return
	}
	imported, err := h.transfer.ImportCode(c.Request.Context(), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, imported, nil)
}

// Export godoc
// @Summary Encode the dataset for offline transfer
// @Tags Transfer
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /transfer/export [get]
func (h *TransferHandler) Export(c *gin.Context) {
	blob, err := h.transfer.ExportBlob()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.TransferBlobResponse{Data: blob}, nil)
}

// ImportBlob godoc
// @Summary Replace the local dataset with an offline blob
// @Tags Transfer
// @Accept json
// @Produce json
// @Param payload body dto.TransferBlobRequest true "Encoded dataset"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /transfer/import-blob [post]
func (h *TransferHandler) ImportBlob(c *gin.Context) {
	var req dto.TransferBlobRequest
	if !bindJSON(c, &req) {
		return
	}
	imported, err := h.transfer.ImportBlob(c.Request.Context(), req.Data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, imported, nil)
}
