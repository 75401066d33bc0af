// Package clashapi is a client for the Clash Royale game API.
package clashapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sharveshsanjay/clash-royale/internal/adapters/cache"
	"github.com/sharveshsanjay/clash-royale/internal/domain/model"
	"github.com/sharveshsanjay/clash-royale/pkg/logger"
	"github.com/sharveshsanjay/clash-royale/pkg/metrics"
)

// Default client configuration constants.
const (
	DefaultBaseURL         = "https://api.clashroyale.com/v1"
	defaultTimeout         = 10 * time.Second
	defaultRPS             = 10
	defaultBurst           = 5
	defaultBreakerFailures = 5
	defaultBreakerOpen     = 30 * time.Second
	maxBodyBytes           = 8 << 20
)

// Client talks to the game API through a rate limiter, a circuit breaker and
// an optional response cache. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	timeout time.Duration

	rps     float64
	burst   int
	limiter *rate.Limiter

	breakerFailures uint32
	breakerOpen     time.Duration
	breaker         *gobreaker.CircuitBreaker

	cache    cache.Cache
	cacheTTL time.Duration

	log     logger.Logger
	metrics *metrics.Manager
}

// New creates a Client with defaults adjusted by opts.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:         DefaultBaseURL,
		http:            &http.Client{},
		timeout:         defaultTimeout,
		rps:             defaultRPS,
		burst:           defaultBurst,
		breakerFailures: defaultBreakerFailures,
		breakerOpen:     defaultBreakerOpen,
		cache:           cache.Nop{},
		log:             logger.Nop(),
		metrics:         metrics.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	c.limiter = rate.NewLimiter(rate.Limit(c.rps), c.burst)
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "clashapi",
		MaxRequests: 1,
		Timeout:     c.breakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.breakerFailures
		},
		IsSuccessful:  isSuccessful,
		OnStateChange: c.onStateChange,
	})
	return c
}

// HasAPIKey reports whether a key is configured.
func (c *Client) HasAPIKey() bool { return c.apiKey != "" }

// BreakerState returns the breaker state name: closed, half-open or open.
func (c *Client) BreakerState() string { return c.breaker.State().String() }

// Clan returns the raw clan document.
func (c *Client) Clan(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.tagged(ctx, "clan", "/clans/%s", tag, "Failed to fetch clan")
}

// Members returns the raw clan members document.
func (c *Client) Members(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.tagged(ctx, "members", "/clans/%s/members", tag, "Failed to fetch members")
}

// RiverRace returns the clan's current river race.
func (c *Client) RiverRace(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.tagged(ctx, "riverrace", "/clans/%s/currentriverrace", tag, "Failed to fetch river race")
}

// Player returns the raw player document.
func (c *Client) Player(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.tagged(ctx, "player", "/players/%s", tag, "Failed to fetch player")
}

// BattleLog returns the player's recent battles.
func (c *Client) BattleLog(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.tagged(ctx, "battlelog", "/players/%s/battlelog", tag, "Failed to fetch battle log")
}

// UpcomingChests returns the player's chest cycle.
func (c *Client) UpcomingChests(ctx context.Context, tag string) (json.RawMessage, error) {
	return c.tagged(ctx, "chests", "/players/%s/upcomingchests", tag, "Failed to fetch upcoming chests")
}

// Roster returns the clan members as records.
func (c *Client) Roster(ctx context.Context, tag string) ([]model.MemberRecord, error) {
	raw, err := c.Members(ctx, tag)
	if err != nil {
		return nil, err
	}
	var list model.MemberList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: decode members: %w", ErrRequestFailed, err)
	}
	if list.Items == nil {
		list.Items = []model.MemberRecord{}
	}
	return list.Items, nil
}

// PlayerDetails returns the profile fields used by member enrichment.
func (c *Client) PlayerDetails(ctx context.Context, tag string) (model.PlayerDetails, error) {
	raw, err := c.Player(ctx, tag)
	if err != nil {
		return model.PlayerDetails{}, err
	}
	d, err := model.ParsePlayerDetails(raw)
	if err != nil {
		return model.PlayerDetails{}, fmt.Errorf("%w: decode player: %w", ErrRequestFailed, err)
	}
	return d, nil
}

// Capital returns the reshaped clan capital view.
func (c *Client) Capital(ctx context.Context, tag string) (model.Capital, error) {
	raw, err := c.tagged(ctx, "capital", "/clans/%s", tag, "Failed to fetch capital")
	if err != nil {
		return model.Capital{}, err
	}
	cp, err := model.ParseCapital(raw)
	if err != nil {
		return model.Capital{}, fmt.Errorf("%w: decode capital: %w", ErrRequestFailed, err)
	}
	return cp, nil
}

// ClanSummary returns the clan name, tag and member count.
func (c *Client) ClanSummary(ctx context.Context, tag string) (model.ClanSummary, error) {
	raw, err := c.Clan(ctx, tag)
	if err != nil {
		return model.ClanSummary{}, err
	}
	var s model.ClanSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.ClanSummary{}, fmt.Errorf("%w: decode clan: %w", ErrRequestFailed, err)
	}
	return s, nil
}

func (c *Client) tagged(ctx context.Context, endpoint, pattern, tag, fallback string) (json.RawMessage, error) {
	norm, err := model.NormalizeTag(tag)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", endpoint, tag, err)
	}
	return c.get(ctx, endpoint, fmt.Sprintf(pattern, url.PathEscape(norm)), fallback)
}

// get fetches path, consulting the cache first.
func (c *Client) get(ctx context.Context, endpoint, path, fallback string) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if body, ok := c.cached(ctx, path); ok {
		return body, nil
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, endpoint, path, fallback)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	body, _ := res.([]byte)

	if c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, path, body, c.cacheTTL); err != nil {
			c.log.Warn(ctx, "cache write failed", logger.String("path", path), logger.Error(err))
		}
	}
	return body, nil
}

func (c *Client) cached(ctx context.Context, path string) ([]byte, bool) {
	if c.cacheTTL <= 0 {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, path)
	switch {
	case err != nil:
		c.metrics.RecordCache("error")
		c.log.Warn(ctx, "cache read failed", logger.String("path", path), logger.Error(err))
		return nil, false
	case ok:
		c.metrics.RecordCache("hit")
		return body, true
	default:
		c.metrics.RecordCache("miss")
		return nil, false
	}
}

// do performs one rate-limited request.
func (c *Client) do(ctx context.Context, endpoint, path, fallback string) ([]byte, error) {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %w", ErrRequestFailed, err)
	}
	c.metrics.RecordRateLimitWait(msSince(waitStart))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordUpstream(endpoint, 0, msSince(start))
		c.log.Error(ctx, "upstream request failed", logger.String("endpoint", endpoint), logger.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.metrics.RecordUpstream(endpoint, resp.StatusCode, msSince(start))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrRequestFailed, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ue := newUpstreamError(resp.StatusCode, body, fallback)
		c.log.Warn(ctx, "upstream rejected request",
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode),
			logger.String("message", ue.Message),
		)
		return nil, ue
	}
	c.log.Debug(ctx, "upstream request served",
		logger.String("endpoint", endpoint),
		logger.Duration("took", time.Since(start)),
	)
	return body, nil
}

func (c *Client) onStateChange(name string, from, to gobreaker.State) {
	switch to {
	case gobreaker.StateOpen:
		c.metrics.SetBreakerState(metrics.BreakerOpen)
	case gobreaker.StateHalfOpen:
		c.metrics.SetBreakerState(metrics.BreakerHalfOpen)
	default:
		c.metrics.SetBreakerState(metrics.BreakerClosed)
	}
	c.log.Warn(context.Background(), "circuit breaker state changed",
		logger.String("breaker", name),
		logger.String("from", from.String()),
		logger.String("to", to.String()),
	)
}

// isSuccessful keeps client-side rejections and caller cancellations from
// counting towards the breaker.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.clientSide()
	}
	return false
}

func cleanKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"'`)
	return strings.TrimSpace(key)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
