package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/handler"
	"github.com/noah-isme/attendance-tracker/internal/repository"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/config"
	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

func newTestEngine(t *testing.T, env string, withRelay bool) (*gin.Engine, *service.MetricsService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store := service.NewStore(repository.NewFileSnapshotRepository(files), service.StoreConfig{}, nil)
	require.NoError(t, store.Load(context.Background()))
	metrics := service.NewMetricsService()

	h := Handlers{
		Students:   handler.NewStudentHandler(store),
		Subjects:   handler.NewSubjectHandler(store),
		Attendance: handler.NewAttendanceHandler(store),
		Calendar:   handler.NewCalendarHandler(store),
		Settings:   handler.NewSettingsHandler(store),
		Stats:      handler.NewStatsHandler(store),
		Reports:    handler.NewReportHandler(nil, service.NewExportService(store, nil, nil, service.ExportConfig{}, nil)),
		Transfer:   handler.NewTransferHandler(service.NewTransferService(store, nil, nil)),
		Metrics:    handler.NewMetricsHandler(metrics),
	}
	if withRelay {
		h.Relay = handler.NewRelayHandler(service.NewRelayService(nil, service.RelayServiceConfig{}, metrics, nil), 1024)
	}
	return New(Options{Env: env, APIPrefix: "/api/v1", Metrics: metrics}, h), metrics
}

func serve(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRouterServesAPI(t *testing.T) {
	engine, _ := newTestEngine(t, config.EnvDevelopment, true)

	rec := serve(engine, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(engine, http.MethodPost, "/api/v1/students", `{"studentNumber":1,"name":"Aoi","grade":1}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(engine, http.MethodGet, "/api/v1/stats/dashboard", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"students":1`)

	rec = serve(engine, http.MethodGet, "/api/v1/transfer/export", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(engine, http.MethodGet, "/sync/retrieve", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Code is required"}`, rec.Body.String())
}

func TestRouterMetrics(t *testing.T) {
	engine, _ := newTestEngine(t, config.EnvDevelopment, false)
	serve(engine, http.MethodGet, "/api/v1/students", "")

	rec := serve(engine, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/api/v1/students"`)

	rec = serve(engine, http.MethodGet, "/sync/retrieve?code=123456", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterHidesDocsInProduction(t *testing.T) {
	engine, _ := newTestEngine(t, config.EnvProduction, false)
	rec := serve(engine, http.MethodGet, "/docs/index.html", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
