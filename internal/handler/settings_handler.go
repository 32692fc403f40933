package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/response"
)

type settingsStore interface {
	Settings() models.AppSettings
	UpdateSettings(ctx context.Context, patch service.SettingsPatch) (models.AppSettings, error)
	SetTimetableSlot(ctx context.Context, key models.SlotKey, subjectID string) (models.AppSettings, error)
	LicenseInfo() models.LicenseInfo
	ActivateLicense(ctx context.Context, key string) (models.LicenseStatus, error)
	ResetSettings(ctx context.Context) error
	ResetAttendance(ctx context.Context) error
	ResetAll(ctx context.Context) error
}

// Reset scopes and the phrase a caller has to repeat to run them.
const (
	ResetScopeSettings   = "settings"
	ResetScopeAttendance = "attendance"
	ResetScopeAll        = "all"
)

var resetPhrases = map[string]string{
	ResetScopeSettings:   "RESET SETTINGS",
	ResetScopeAttendance: "DELETE ATTENDANCE",
	ResetScopeAll:        "DELETE ALL DATA",
}

// SettingsHandler exposes settings, license and reset endpoints.
type SettingsHandler struct {
	store settingsStore
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(store settingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// Get godoc
// @Summary Current settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.store.Settings(), nil)
}

// Update godoc
// @Summary Update settings
// @Description Omitted fields keep their value. A timetables object replaces every timetable.
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateSettingsRequest true "Settings patch"
// @Success 200 {object} response.Envelope
// @Router /settings [patch]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	patch := service.SettingsPatch{
		PeriodCount:   req.PeriodCount,
		HourPerPeriod: req.HourPerPeriod,
	}
	if req.FirstTerm != nil {
		patch.FirstTerm = &models.TermRange{Start: req.FirstTerm.Start, End: req.FirstTerm.End}
	}
	if req.SecondTerm != nil {
		patch.SecondTerm = &models.TermRange{Start: req.SecondTerm.Start, End: req.SecondTerm.End}
	}
	if req.Timetables != nil {
		patch.Timetables = *req.Timetables
		if patch.Timetables == nil {
			patch.Timetables = models.Timetables{}
		}
	}
	settings, err := h.store.UpdateSettings(c.Request.Context(), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// SetTimetableSlot godoc
// @Summary Assign a subject to one timetable cell
// @Description An empty subjectId clears the cell.
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.TimetableSlotRequest true "Cell and subject"
// @Success 200 {object} response.Envelope
// @Router /settings/timetable [put]
func (h *SettingsHandler) SetTimetableSlot(c *gin.Context) {
	var req dto.TimetableSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	weekday, _ := models.ParseWeekday(req.Weekday)
	key := models.SlotKey{
		Grade:   req.Grade,
		Term:    models.Term(req.Term),
		Weekday: weekday,
		Period:  req.Period,
	}
	settings, err := h.store.SetTimetableSlot(c.Request.Context(), key, req.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// License godoc
// @Summary License status
// @Tags License
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /license [get]
func (h *SettingsHandler) License(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.store.LicenseInfo(), nil)
}

// ActivateLicense godoc
// @Summary Activate a license key
// @Tags License
// @Accept json
// @Produce json
// @Param payload body dto.ActivateLicenseRequest true "License key"
// @Success 200 {object} response.Envelope
// @Router /license/activate [post]
func (h *SettingsHandler) ActivateLicense(c *gin.Context) {
	var req dto.ActivateLicenseRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.store.ActivateLicense(c.Request.Context(), req.Key); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.store.LicenseInfo(), nil)
}

// Reset godoc
// @Summary Destructive reset
// @Description scope is settings, attendance or all. The confirmation must repeat the scope's phrase: RESET SETTINGS, DELETE ATTENDANCE or DELETE ALL DATA.
// @Tags Settings
// @Accept json
// @Produce json
// @Param scope path string true "Reset scope"
// @Param payload body dto.ResetRequest true "Confirmation phrase"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /reset/{scope} [post]
func (h *SettingsHandler) Reset(c *gin.Context) {
	scope := c.Param("scope")
	phrase, ok := resetPhrases[scope]
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown reset scope"))
		return
	}
	var req dto.ResetRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Confirmation != phrase {
		response.Error(c, appErrors.ErrConfirmationMismatch)
		return
	}
	var err error
	switch scope {
	case ResetScopeSettings:
		err = h.store.ResetSettings(c.Request.Context())
	case ResetScopeAttendance:
		err = h.store.ResetAttendance(c.Request.Context())
	default:
		err = h.store.ResetAll(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
