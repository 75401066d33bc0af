// Package metrics provides Prometheus metrics for the clan dashboard service.
package metrics

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultSampleInterval = 10 * time.Second
)

// Default histogram buckets in milliseconds.
var (
	defaultRequestBuckets  = []float64{0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // bucket preset
	defaultUpstreamBuckets = []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000}   //nolint:gochecknoglobals // bucket preset
)

// Breaker states as exported by the breaker gauge.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace       string
	subsystem       string
	requestBuckets  []float64
	upstreamBuckets []float64
	sampleInterval  time.Duration
	registry        prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Upstream game API
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	rateLimitWait    prometheus.Histogram
	breakerState     prometheus.Gauge
	cacheRequests    *prometheus.CounterVec

	// Evaluation engine
	evaluationsTotal   prometheus.Counter
	evaluationDuration prometheus.Histogram
	evaluatedMembers   prometheus.Gauge
	listSize           *prometheus.GaugeVec

	// Enrichment workers
	enrichmentFailures prometheus.Counter
	enrichmentLatency  prometheus.Histogram

	// Errors
	errorRateByComponent *prometheus.CounterVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "clashsquad",
		subsystem:       "dashboard",
		requestBuckets:  defaultRequestBuckets,
		upstreamBuckets: defaultUpstreamBuckets,
		sampleInterval:  defaultSampleInterval,
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.requestBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_requests_total",
		Help:      "Requests sent to the game API by endpoint and status",
	}, []string{"endpoint", "status"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_latency_milliseconds",
		Help:      "Game API round-trip latency in milliseconds",
		Buckets:   m.upstreamBuckets,
	}, []string{"endpoint"})

	m.rateLimitWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limit_wait_milliseconds",
		Help:      "Time spent waiting for the upstream rate limiter",
		Buckets:   m.upstreamBuckets,
	})

	m.breakerState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_breaker_state",
		Help:      "Upstream circuit breaker state (0 closed, 1 half-open, 2 open)",
	})

	m.cacheRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_requests_total",
		Help:      "Response cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	m.evaluationsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluations_total",
		Help:      "Total number of roster evaluations",
	})

	m.evaluationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluation_duration_milliseconds",
		Help:      "Roster evaluation duration in milliseconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
	})

	m.evaluatedMembers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluated_members",
		Help:      "Roster size of the latest evaluation",
	})

	m.listSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "review_list_size",
		Help:      "Size of the latest promotion, nomination and kick lists",
	}, []string{"list"})

	m.enrichmentFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_failures_total",
		Help:      "Player detail fetches that failed during roster enrichment",
	})

	m.enrichmentLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichment_latency_milliseconds",
		Help:      "Per-member enrichment latency in milliseconds",
		Buckets:   m.upstreamBuckets,
	})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Heap memory in use in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordHTTPRequest records one served request.
func (m *Manager) RecordHTTPRequest(endpoint, method string, status int, durationMs float64) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(endpoint, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, code).Observe(durationMs)
}

// RecordUpstream records one game API call. status is 0 for transport errors.
func (m *Manager) RecordUpstream(endpoint string, status int, latencyMs float64) {
	m.upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordRateLimitWait records time spent blocked on the rate limiter.
func (m *Manager) RecordRateLimitWait(waitMs float64) {
	m.rateLimitWait.Observe(waitMs)
}

// SetBreakerState exports the breaker state.
func (m *Manager) SetBreakerState(state int) {
	m.breakerState.Set(float64(state))
}

// RecordCache records a cache lookup result: "hit", "miss" or "error".
func (m *Manager) RecordCache(result string) {
	m.cacheRequests.WithLabelValues(result).Inc()
}

// RecordEvaluation records one evaluation and the resulting list sizes.
func (m *Manager) RecordEvaluation(durationMs float64, members, promotion, nomination, kick int) {
	m.evaluationsTotal.Inc()
	m.evaluationDuration.Observe(durationMs)
	m.evaluatedMembers.Set(float64(members))
	m.listSize.WithLabelValues("promotion").Set(float64(promotion))
	m.listSize.WithLabelValues("nomination").Set(float64(nomination))
	m.listSize.WithLabelValues("kick").Set(float64(kick))
}

// RecordEnrichment records one player enrichment attempt.
func (m *Manager) RecordEnrichment(latencyMs float64, failed bool) {
	m.enrichmentLatency.Observe(latencyMs)
	if failed {
		m.enrichmentFailures.Inc()
	}
}

// RecordErrorByComponent records an error with component and type labels.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// SampleRuntime updates the runtime gauges once.
func (m *Manager) SampleRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.HeapAlloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// RunRuntimeSampler samples runtime gauges every sample interval until ctx is done.
func (m *Manager) RunRuntimeSampler(ctx context.Context) {
	t := time.NewTicker(m.sampleInterval)
	defer t.Stop()
	m.SampleRuntime()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.SampleRuntime()
		}
	}
}

// Default returns the manager registered on the /metrics registry.
func Default() *Manager {
	return globalManager
}

// RecordHTTPRequest records a request on the default manager.
func RecordHTTPRequest(endpoint, method string, status int, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, status, durationMs)
}

// RecordErrorByComponent records an error on the default manager.
func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
