package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	recordsCreated  *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	sseSubscribers  prometheus.Gauge
	cacheLatency    prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
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

	recordsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostel_requests_created_total",
		Help: "Request records created, by collection",
	}, []string{"collection"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostel_request_transitions_total",
		Help: "Request status transitions, by collection and target status",
	}, []string{"collection", "status"})

	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "change_events_published_total",
		Help: "Change events published to the feed, by collection",
	}, []string{"collection"})

	sseSubscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sse_subscribers",
		Help: "Currently connected event stream subscribers",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, recordsCreated, transitions,
		eventsPublished, sseSubscribers, cacheLatency, cacheHitRatio,
		cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		recordsCreated:  recordsCreated,
		transitions:     transitions,
		eventsPublished: eventsPublished,
		sseSubscribers:  sseSubscribers,
		cacheLatency:    cacheLatency,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveHTTPRequest records request timing and volume.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordRequestCreated counts a new record in the given collection.
func (m *MetricsService) RecordRequestCreated(kind models.RequestKind) {
	if m == nil {
		return
	}
	m.recordsCreated.WithLabelValues(string(kind)).Inc()
}

// RecordTransition counts a status transition in the given collection.
func (m *MetricsService) RecordTransition(kind models.RequestKind, status models.RequestStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(kind), string(status)).Inc()
}

// RecordEventPublished counts a change event on the feed.
func (m *MetricsService) RecordEventPublished(kind models.RequestKind) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(string(kind)).Inc()
}

// SubscriberConnected adjusts the live subscriber gauge.
func (m *MetricsService) SubscriberConnected(delta int) {
	if m == nil {
		return
	}
	m.sseSubscribers.Add(float64(delta))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}
