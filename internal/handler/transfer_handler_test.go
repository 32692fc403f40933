package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/relay"
	"github.com/noah-isme/attendance-tracker/internal/service"
)

// relayServer runs the relay handler behind a real HTTP server so the
// transfer flow exercises the relay client end to end.
func relayServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := newRelayHandler(&memoryRelayRepo{blobs: map[string]string{}}, 1<<20)
	engine := gin.New()
	engine.POST("/sync/store", h.Store)
	engine.GET("/sync/retrieve", h.Retrieve)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func TestTransferHandlerRelayRoundTrip(t *testing.T) {
	srv := relayServer(t)
	client := relay.NewClient(srv.URL, 5*time.Second, nil)

	source := newHandlerStore(t)
	_, err := source.AddStudent(context.Background(), models.StudentInput{StudentNumber: 1, Name: "Aoi", Grade: 1})
	require.NoError(t, err)
	sender := NewTransferHandler(service.NewTransferService(source, client, nil))

	rec := performRequest(http.MethodPost, "/transfer/issue", "", sender.Issue)
	require.Equal(t, http.StatusOK, rec.Code)
	var issued dto.TransferIssueResponse
	decodeEnvelope(t, rec, &issued)
	assert.Len(t, issued.Code, 6)
	assert.Equal(t, 3600, issued.ExpiresIn)

	rec = performRequest(http.MethodGet, "/transfer/status", "", sender.Status)
	var status dto.TransferStatusResponse
	decodeEnvelope(t, rec, &status)
	assert.Equal(t, string(relay.StateIssued), status.State)
	assert.Equal(t, issued.Code, status.Code)

	target := newHandlerStore(t)
	receiver := NewTransferHandler(service.NewTransferService(target, client, nil))
	rec = performRequest(http.MethodPost, "/transfer/import", `{"code":"`+issued.Code+`"}`, receiver.Import)
	require.Equal(t, http.StatusOK, rec.Code)
	var imported dto.TransferImportResponse
	decodeEnvelope(t, rec, &imported)
	assert.Equal(t, 1, imported.Students)
	assert.Equal(t, source.Students(), target.Students())

	rec = performRequest(http.MethodPost, "/transfer/import", `{"code":"000000"}`, receiver.Import)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = performRequest(http.MethodPost, "/transfer/import", `{"code":"12ab"}`, receiver.Import)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferHandlerOfflineBlob(t *testing.T) {
	source := newHandlerStore(t)
	_, err := source.AddSubject(context.Background(), models.SubjectInput{Name: "Math", RequiredHours: 35})
	require.NoError(t, err)
	sender := NewTransferHandler(service.NewTransferService(source, nil, nil))

	rec := performRequest(http.MethodGet, "/transfer/export", "", sender.Export)
	require.Equal(t, http.StatusOK, rec.Code)
	var blob dto.TransferBlobResponse
	decodeEnvelope(t, rec, &blob)
	require.NotEmpty(t, blob.Data)

	target := newHandlerStore(t)
	receiver := NewTransferHandler(service.NewTransferService(target, nil, nil))
	rec = performRequest(http.MethodPost, "/transfer/import-blob", `{"data":"`+blob.Data+`"}`, receiver.ImportBlob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, target.Subjects(), 1)

	rec = performRequest(http.MethodPost, "/transfer/import-blob", `{"data":"not base64!"}`, receiver.ImportBlob)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = performRequest(http.MethodPost, "/transfer/issue", "", receiver.Issue)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
