// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`
	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string `koanf:"allowed_origin"`

	// APIBaseURL is the root of the game API.
	APIBaseURL string `koanf:"api_base_url"`
	// APIKey is the bearer token for the game API. May be empty; requests then fail.
	APIKey string `koanf:"api_key"`
	// ClanTag is the clan probed by /test and used by the CLI by default.
	ClanTag string `koanf:"clan_tag"`

	UpstreamTimeoutMS int     `koanf:"upstream_timeout_ms"`
	UpstreamRPS       float64 `koanf:"upstream_rps"`
	UpstreamBurst     int     `koanf:"upstream_burst"`

	// BreakerFailures consecutive failures open the breaker for BreakerOpenS seconds.
	BreakerFailures int `koanf:"breaker_failures"`
	BreakerOpenS    int `koanf:"breaker_open_s"`

	// CacheTTLS is the response cache TTL in seconds; 0 disables caching.
	CacheTTLS     int    `koanf:"cache_ttl_s"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// EnrichWorkers bounds concurrent player detail fetches.
	EnrichWorkers int `koanf:"enrich_workers"`

	NominationThreshold int `koanf:"nomination_threshold"`
	KickListSize        int `koanf:"kick_list_size"`
	PromotionListSize   int `koanf:"promotion_list_size"`
	LeaderboardSize     int `koanf:"leaderboard_size"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":5000",
		AllowedOrigin:       "*",
		APIBaseURL:          "https://api.clashroyale.com/v1",
		ClanTag:             "#RYPUQ8CY",
		UpstreamTimeoutMS:   10_000,
		UpstreamRPS:         10,
		UpstreamBurst:       5,
		BreakerFailures:     5,
		BreakerOpenS:        30,
		CacheTTLS:           60,
		EnrichWorkers:       4,
		NominationThreshold: 2,
		KickListSize:        5,
		PromotionListSize:   5,
		LeaderboardSize:     5,
	}
}

// UpstreamTimeout returns the per-request upstream timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// BreakerOpen returns how long the breaker stays open.
func (c *Config) BreakerOpen() time.Duration {
	return time.Duration(c.BreakerOpenS) * time.Second
}

// CacheTTL returns the response cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLS) * time.Second
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.APIBaseURL) == "":
		return fmt.Errorf("%w: api_base_url must not be empty", ErrInvalidConfig)
	case c.UpstreamTimeoutMS <= 0:
		return fmt.Errorf("%w: upstream_timeout_ms must be positive", ErrInvalidConfig)
	case c.UpstreamRPS <= 0 || c.UpstreamBurst <= 0:
		return fmt.Errorf("%w: upstream_rps and upstream_burst must be positive", ErrInvalidConfig)
	case c.BreakerFailures <= 0 || c.BreakerOpenS <= 0:
		return fmt.Errorf("%w: breaker_failures and breaker_open_s must be positive", ErrInvalidConfig)
	case c.CacheTTLS < 0:
		return fmt.Errorf("%w: cache_ttl_s must not be negative", ErrInvalidConfig)
	case c.EnrichWorkers <= 0:
		return fmt.Errorf("%w: enrich_workers must be positive", ErrInvalidConfig)
	case c.NominationThreshold < 0:
		return fmt.Errorf("%w: nomination_threshold must not be negative", ErrInvalidConfig)
	case c.KickListSize <= 0 || c.PromotionListSize <= 0 || c.LeaderboardSize <= 0:
		return fmt.Errorf("%w: list sizes must be positive", ErrInvalidConfig)
	}
	return nil
}
