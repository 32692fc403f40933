package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

func TestSettingsHandlerUpdate(t *testing.T) {
	h := NewSettingsHandler(newHandlerStore(t))

	rec := performRequest(http.MethodPatch, "/settings", `{"periodCount":6,"hourPerPeriod":0.75,"firstTerm":{"start":"2025-04-07","end":"2025-09-26"}}`, h.Update)
	require.Equal(t, http.StatusOK, rec.Code)
	var settings models.AppSettings
	decodeEnvelope(t, rec, &settings)
	assert.Equal(t, 6, settings.PeriodCount)
	assert.Equal(t, 0.75, settings.HourPerPeriod)
	assert.Equal(t, "2025-04-07", settings.FirstTerm.Start)
	assert.Equal(t, "2025-10-01", settings.SecondTerm.Start)

	for _, body := range []string{
		`{"periodCount":5}`,
		`{"hourPerPeriod":0}`,
		`{"firstTerm":{"start":"2025-10-01","end":"2025-04-01"}}`,
	} {
		rec = performRequest(http.MethodPatch, "/settings", body, h.Update)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec = performRequest(http.MethodGet, "/settings", "", h.Get)
	decodeEnvelope(t, rec, &settings)
	assert.Equal(t, 6, settings.PeriodCount)
}

func TestSettingsHandlerTimetableSlot(t *testing.T) {
	store := newHandlerStore(t)
	math, err := store.AddSubject(context.Background(), models.SubjectInput{Name: "Math"})
	require.NoError(t, err)
	h := NewSettingsHandler(store)

	rec := performRequest(http.MethodPut, "/settings/timetable", `{"grade":1,"term":"first","weekday":"Mon","period":1,"subjectId":"`+math.ID+`"}`, h.SetTimetableSlot)
	require.Equal(t, http.StatusOK, rec.Code)
	subject, ok := store.Settings().Timetables.Lookup(models.SlotKey{Grade: 1, Term: models.TermFirst, Weekday: 1, Period: 1})
	require.True(t, ok)
	assert.Equal(t, math.ID, subject)

	rec = performRequest(http.MethodPut, "/settings/timetable", `{"grade":1,"term":"first","weekday":"Sat","period":1,"subjectId":"`+math.ID+`"}`, h.SetTimetableSlot)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(http.MethodPut, "/settings/timetable", `{"grade":1,"term":"first","weekday":"Mon","period":6,"subjectId":"`+math.ID+`"}`, h.SetTimetableSlot)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(http.MethodPut, "/settings/timetable", `{"grade":1,"term":"first","weekday":"Mon","period":2,"subjectId":"ghost"}`, h.SetTimetableSlot)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsHandlerLicense(t *testing.T) {
	h := NewSettingsHandler(newHandlerStore(t))

	rec := performRequest(http.MethodGet, "/license", "", h.License)
	var info models.LicenseInfo
	decodeEnvelope(t, rec, &info)
	assert.Equal(t, models.LicenseFree, info.Status)
	assert.Equal(t, 5, info.StudentLimit)

	rec = performRequest(http.MethodPost, "/license/activate", `{"key":"WRONG"}`, h.ActivateLicense)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(http.MethodPost, "/license/activate", `{"key":"EVAL-KEY"}`, h.ActivateLicense)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &info)
	assert.Equal(t, models.LicenseEval, info.Status)
	require.NotNil(t, info.ExpiresAt)
	assert.Zero(t, info.StudentLimit)

	rec = performRequest(http.MethodPost, "/license/activate", `{"key":"EVAL-KEY"}`, h.ActivateLicense)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSettingsHandlerReset(t *testing.T) {
	store := newHandlerStore(t)
	ctx := context.Background()
	aoi, err := store.AddStudent(ctx, models.StudentInput{StudentNumber: 1, Name: "Aoi", Grade: 1})
	require.NoError(t, err)
	_, err = store.SetAttendance(ctx, models.RecordKey{StudentID: aoi.ID, Date: "2025-06-09", Period: 1}, cycle())
	require.NoError(t, err)
	h := NewSettingsHandler(store)

	rec := performRequest(http.MethodPost, "/reset/everything", `{"confirmation":"x"}`, h.Reset, gin.Param{Key: "scope", Value: "everything"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	scope := gin.Param{Key: "scope", Value: ResetScopeAttendance}
	rec = performRequest(http.MethodPost, "/reset/attendance", `{"confirmation":"delete attendance"}`, h.Reset, scope)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Len(t, store.Snapshot().AttendanceRecords, 1)

	rec = performRequest(http.MethodPost, "/reset/attendance", `{"confirmation":"DELETE ATTENDANCE"}`, h.Reset, scope)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.Snapshot().AttendanceRecords)
	assert.Len(t, store.Students(), 1)

	rec = performRequest(http.MethodPost, "/reset/all", `{"confirmation":"DELETE ALL DATA"}`, h.Reset, gin.Param{Key: "scope", Value: ResetScopeAll})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.Students())
}
