package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	"github.com/noah-isme/attendance-tracker/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

type memoryRelayRepo struct {
	mu    sync.Mutex
	blobs map[string]string
	err   error
}

func (r *memoryRelayRepo) Put(_ context.Context, code, blob string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.blobs[code] = blob
	return nil
}

func (r *memoryRelayRepo) Get(_ context.Context, code string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	blob, ok := r.blobs[code]
	if !ok {
		return "", appErrors.ErrRelayMiss
	}
	return blob, nil
}

func newRelayHandler(repo *memoryRelayRepo, maxBytes int64) *RelayHandler {
	return NewRelayHandler(service.NewRelayService(repo, service.RelayServiceConfig{}, nil, nil), maxBytes)
}

func relayErrorBody(t *testing.T, body []byte) string {
	t.Helper()
	var out dto.RelayErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Error
}

func TestRelayHandlerStoreAndRetrieve(t *testing.T) {
	repo := &memoryRelayRepo{blobs: map[string]string{}}
	h := newRelayHandler(repo, 1024)

	rec := performRequest(http.MethodPost, "/sync/store", `{"data":"eyJzdHVkZW50cyI6W119"}`, h.Store)
	require.Equal(t, http.StatusOK, rec.Code)
	var stored dto.RelayStoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Len(t, stored.Code, 6)
	assert.Equal(t, 3600, stored.ExpiresIn)
	assert.NotContains(t, rec.Body.String(), `"meta"`)

	rec = performRequest(http.MethodGet, "/sync/retrieve?code="+stored.Code, "", h.Retrieve)
	require.Equal(t, http.StatusOK, rec.Code)
	var retrieved dto.RelayRetrieveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &retrieved))
	assert.Equal(t, "eyJzdHVkZW50cyI6W119", retrieved.Data)
}

func TestRelayHandlerErrors(t *testing.T) {
	repo := &memoryRelayRepo{blobs: map[string]string{}}
	h := newRelayHandler(repo, 64)

	rec := performRequest(http.MethodPost, "/sync/store", `{"data":""}`, h.Store)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Data is required", relayErrorBody(t, rec.Body.Bytes()))

	rec = performRequest(http.MethodPost, "/sync/store", `{"data":`, h.Store)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(http.MethodPost, "/sync/store", `{"data":"`+strings.Repeat("A", 100)+`"}`, h.Store)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, repo.blobs)

	rec = performRequest(http.MethodGet, "/sync/retrieve", "", h.Retrieve)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Code is required", relayErrorBody(t, rec.Body.Bytes()))

	for _, code := range []string{"123456", "12345", "abcdef"} {
		rec = performRequest(http.MethodGet, "/sync/retrieve?code="+code, "", h.Retrieve)
		assert.Equal(t, http.StatusNotFound, rec.Code, code)
		assert.Equal(t, "Invalid code or expired", relayErrorBody(t, rec.Body.Bytes()))
	}

	repo.err = errors.New("redis down")
	rec = performRequest(http.MethodPost, "/sync/store", `{"data":"abc"}`, h.Store)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", relayErrorBody(t, rec.Body.Bytes()))
	assert.NotContains(t, rec.Body.String(), "redis down")
}
