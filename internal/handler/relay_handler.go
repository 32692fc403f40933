package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

type relayStore interface {
	Store(ctx context.Context, blob string) (dto.RelayStoreResponse, error)
	Retrieve(ctx context.Context, code string) (dto.RelayRetrieveResponse, error)
}

// RelayHandler serves the relay wire contract. It answers with bare JSON
// bodies, not the response envelope, so devices can talk to it directly.
type RelayHandler struct {
	relay    relayStore
	maxBytes int64
}

// NewRelayHandler constructs RelayHandler. maxBytes caps the request body.
func NewRelayHandler(relay relayStore, maxBytes int64) *RelayHandler {
	return &RelayHandler{relay: relay, maxBytes: maxBytes}
}

func relayError(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, dto.RelayErrorResponse{Error: appErr.Message})
}

// Store godoc
// @Summary Store a blob for one hour under a six digit code
// @Tags Relay
// @Accept json
// @Produce json
// @Param payload body dto.RelayStoreRequest true "Encoded dataset"
// @Success 200 {object} dto.RelayStoreResponse
// @Failure 400 {object} dto.RelayErrorResponse
// @Failure 413 {object} dto.RelayErrorResponse
// @Failure 500 {object} dto.RelayErrorResponse
// @Router /sync/store [post]
func (h *RelayHandler) Store(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}
	var req dto.RelayStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			relayError(c, appErrors.New("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "Payload too large"))
			return
		}
		relayError(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid JSON body"))
		return
	}
	stored, err := h.relay.Store(c.Request.Context(), req.Data)
	if err != nil {
		relayError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, stored)
}

// Retrieve godoc
// @Summary Fetch the blob stored under a code
// @Tags Relay
// @Produce json
// @Param code query string true "Six digit code"
// @Success 200 {object} dto.RelayRetrieveResponse
// @Failure 400 {object} dto.RelayErrorResponse
// @Failure 404 {object} dto.RelayErrorResponse
// @Failure 500 {object} dto.RelayErrorResponse
// @Router /sync/retrieve [get]
func (h *RelayHandler) Retrieve(c *gin.Context) {
	retrieved, err := h.relay.Retrieve(c.Request.Context(), c.Query("code"))
	if err != nil {
		relayError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, retrieved)
}
