package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/repository"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

var handlerNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func newHandlerStore(t *testing.T) *service.Store {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	seq := 0
	store := service.NewStore(repository.NewFileSnapshotRepository(files), service.StoreConfig{
		ProKey:           "PRO-KEY",
		EvalKey:          "EVAL-KEY",
		FreeStudentLimit: 5,
	}, nil,
		service.WithClock(func() time.Time { return handlerNow }),
		service.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func performRequest(method, target, body string, handle gin.HandlerFunc, params ...gin.Param) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	c.Params = params
	handle(c)
	c.Writer.WriteHeaderNow()
	return rec
}

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func cycle() service.AttendanceOp { return service.CycleStatus() }
