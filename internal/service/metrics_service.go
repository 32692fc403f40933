package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

// Relay operations and outcomes used as metric labels.
const (
	RelayOpStore    = "store"
	RelayOpRetrieve = "retrieve"

	RelayOutcomeOK      = "ok"
	RelayOutcomeMiss    = "miss"
	RelayOutcomeInvalid = "invalid"
	RelayOutcomeError   = "error"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	snapshotWrite   prometheus.Observer
	snapshotErrors  prometheus.Counter
	relayOps        *prometheus.CounterVec
	reportJobs      *prometheus.CounterVec

	requestCount          uint64
	requestDurationTotal  uint64
	snapshotWriteCount    uint64
	snapshotFailureCount  uint64
	snapshotDurationTotal uint64
	relayStoreCount       uint64
	relayRetrieveCount    uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	snapshotWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "snapshot_write_seconds",
		Help:    "Latency of whole-document snapshot writes",
		Buckets: prometheus.DefBuckets,
	})

	snapshotErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_write_failures_total",
		Help: "Snapshot writes that failed",
	})

	relayOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_operations_total",
		Help: "Relay store and retrieve calls by outcome",
	}, []string{"op", "outcome"})

	reportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_jobs_total",
		Help: "Report jobs by final status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, snapshotWrite, snapshotErrors, relayOps, reportJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		snapshotWrite:   snapshotWrite,
		snapshotErrors:  snapshotErrors,
		relayOps:        relayOps,
		reportJobs:      reportJobs,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveSnapshotWrite records one document write.
func (m *MetricsService) ObserveSnapshotWrite(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.snapshotWrite.Observe(duration.Seconds())
	atomic.AddUint64(&m.snapshotWriteCount, 1)
	atomic.AddUint64(&m.snapshotDurationTotal, uint64(duration.Nanoseconds()))
	if err != nil {
		m.snapshotErrors.Inc()
		atomic.AddUint64(&m.snapshotFailureCount, 1)
	}
}

// RecordRelayOperation counts a relay call by outcome.
func (m *MetricsService) RecordRelayOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.relayOps.WithLabelValues(op, outcome).Inc()
	if outcome != RelayOutcomeOK {
		return
	}
	switch op {
	case RelayOpStore:
		atomic.AddUint64(&m.relayStoreCount, 1)
	case RelayOpRetrieve:
		atomic.AddUint64(&m.relayRetrieveCount, 1)
	}
}

// RecordReportJob counts a report job reaching a final status.
func (m *MetricsService) RecordReportJob(status models.ReportStatus) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(string(status)).Inc()
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	writes := atomic.LoadUint64(&m.snapshotWriteCount)
	writeDuration := atomic.LoadUint64(&m.snapshotDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	var avgWriteMs float64
	if writes > 0 {
		avgWriteMs = float64(writeDuration) / float64(writes) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		SnapshotWrites:           writes,
		SnapshotWriteFailures:    atomic.LoadUint64(&m.snapshotFailureCount),
		AverageSnapshotWriteMs:   avgWriteMs,
		RelayStores:              atomic.LoadUint64(&m.relayStoreCount),
		RelayRetrievals:          atomic.LoadUint64(&m.relayRetrieveCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
