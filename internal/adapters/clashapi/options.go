package clashapi

import (
	"net/http"
	"time"

	"github.com/sharveshsanjay/clash-royale/internal/adapters/cache"
	"github.com/sharveshsanjay/clash-royale/pkg/logger"
	"github.com/sharveshsanjay/clash-royale/pkg/metrics"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. https://api.clashroyale.com/v1.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithAPIKey sets the bearer token. Whitespace and surrounding quotes are stripped.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = cleanKey(key)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit sets the token bucket shared by every request of the client.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.rps = rps
			c.burst = burst
		}
	}
}

// WithBreaker opens the circuit after failures consecutive upstream failures
// and keeps it open for openFor.
func WithBreaker(failures int, openFor time.Duration) Option {
	return func(c *Client) {
		if failures > 0 {
			c.breakerFailures = uint32(failures)
		}
		if openFor > 0 {
			c.breakerOpen = openFor
		}
	}
}

// WithCache enables the response cache for successful bodies.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		if store != nil {
			c.cache = store
			c.cacheTTL = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}
