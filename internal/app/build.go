package service

import (
	"context"
	"time"

	"github.com/sharveshsanjay/clash-royale/internal/adapters/cache"
	"github.com/sharveshsanjay/clash-royale/internal/adapters/clashapi"
	"github.com/sharveshsanjay/clash-royale/internal/config"
	"github.com/sharveshsanjay/clash-royale/internal/domain/evaluation"
	"github.com/sharveshsanjay/clash-royale/pkg/logger"
)

const cachePingTimeout = 2 * time.Second

// NewCache returns a Redis cache when cfg names an address and the server
// answers a ping; otherwise a Nop cache. The returned func releases it.
func NewCache(ctx context.Context, cfg *config.Config, log logger.Logger) (cache.Cache, func() error) {
	nop := func() error { return nil }
	if cfg.RedisAddr == "" || cfg.CacheTTLS == 0 {
		return cache.Nop{}, nop
	}

	r := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, cachePingTimeout)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		log.Warn(ctx, "redis unreachable; response cache disabled",
			logger.String("addr", cfg.RedisAddr),
			logger.Error(err),
		)
		_ = r.Close()
		return cache.Nop{}, nop
	}
	log.Info(ctx, "response cache enabled",
		logger.String("addr", cfg.RedisAddr),
		logger.Duration("ttl", cfg.CacheTTL()),
	)
	return r, r.Close
}

// NewClient builds the game API client from cfg.
func NewClient(cfg *config.Config, store cache.Cache, log logger.Logger) *clashapi.Client {
	return clashapi.New(
		clashapi.WithBaseURL(cfg.APIBaseURL),
		clashapi.WithAPIKey(cfg.APIKey),
		clashapi.WithTimeout(cfg.UpstreamTimeout()),
		clashapi.WithRateLimit(cfg.UpstreamRPS, cfg.UpstreamBurst),
		clashapi.WithBreaker(cfg.BreakerFailures, cfg.BreakerOpen()),
		clashapi.WithCache(store, cfg.CacheTTL()),
		clashapi.WithLogger(log.Named("clashapi")),
	)
}

// NewEvaluator builds the evaluation engine from cfg.
func NewEvaluator(cfg *config.Config) *evaluation.Evaluator {
	return evaluation.New(
		evaluation.WithNominationThreshold(cfg.NominationThreshold),
		evaluation.WithKickListSize(cfg.KickListSize),
		evaluation.WithPromotionListSize(cfg.PromotionListSize),
		evaluation.WithLeaderboardSize(cfg.LeaderboardSize),
	)
}

// FromConfig wires the cache, client and evaluator into a Service.
// The returned func releases the cache connection.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, func() error) {
	store, closeCache := NewCache(ctx, cfg, log)
	svc := New(
		WithClient(NewClient(cfg, store, log)),
		WithEvaluator(NewEvaluator(cfg)),
		WithEnrichWorkers(cfg.EnrichWorkers),
		WithClanTag(cfg.ClanTag),
		WithLogger(log.Named("service")),
	)
	return svc, closeCache
}
