package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest("GET", "/api/v1/students", 200, 10*time.Millisecond)
	m.ObserveSnapshotWrite(2*time.Millisecond, nil)
	m.ObserveSnapshotWrite(4*time.Millisecond, errors.New("disk full"))
	m.RecordRelayOperation(RelayOpStore, RelayOutcomeOK)
	m.RecordRelayOperation(RelayOpRetrieve, RelayOutcomeMiss)

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.RequestsTotal)
	assert.EqualValues(t, 2, snap.SnapshotWrites)
	assert.EqualValues(t, 1, snap.SnapshotWriteFailures)
	assert.InDelta(t, 3.0, snap.AverageSnapshotWriteMs, 0.001)
	assert.EqualValues(t, 1, snap.RelayStores)
	assert.EqualValues(t, 0, snap.RelayRetrievals)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordRelayOperation(RelayOpStore, RelayOutcomeOK)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `relay_operations_total{op="store",outcome="ok"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveSnapshotWrite(time.Millisecond, nil)
	m.RecordRelayOperation(RelayOpStore, RelayOutcomeOK)
	assert.Equal(t, uint64(0), m.Snapshot().RequestsTotal)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
