package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNames overrides the metric name prefix parts. Empty values keep the default.
func WithNames(namespace, subsystem string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithRequestBuckets sets the buckets of the inbound HTTP and evaluation histograms.
func WithRequestBuckets(buckets ...float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.requestBuckets = buckets
		}
	}
}

// WithUpstreamBuckets sets the buckets of the game API, rate limiter and
// enrichment histograms.
func WithUpstreamBuckets(buckets ...float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.upstreamBuckets = buckets
		}
	}
}

// WithRuntimeSampleInterval sets how often RunRuntimeSampler reads MemStats.
func WithRuntimeSampleInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.sampleInterval = interval
		}
	}
}

// WithRegisterer registers the collectors on r instead of the default registerer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}
