// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sharveshsanjay/clash-royale/internal/adapters/worker"
	"github.com/sharveshsanjay/clash-royale/internal/domain/evaluation"
	"github.com/sharveshsanjay/clash-royale/internal/domain/model"
	"github.com/sharveshsanjay/clash-royale/pkg/logger"
	"github.com/sharveshsanjay/clash-royale/pkg/metrics"
)

// ErrNoUpstream is returned by Start when no game API client was configured.
var ErrNoUpstream = errors.New("no upstream client configured")

// Upstream is the part of the game API client the service relies on.
type Upstream interface {
	HasAPIKey() bool
	BreakerState() string

	Clan(ctx context.Context, tag string) (json.RawMessage, error)
	Members(ctx context.Context, tag string) (json.RawMessage, error)
	RiverRace(ctx context.Context, tag string) (json.RawMessage, error)
	Player(ctx context.Context, tag string) (json.RawMessage, error)
	BattleLog(ctx context.Context, tag string) (json.RawMessage, error)
	UpcomingChests(ctx context.Context, tag string) (json.RawMessage, error)

	Roster(ctx context.Context, tag string) ([]model.MemberRecord, error)
	PlayerDetails(ctx context.Context, tag string) (model.PlayerDetails, error)
	Capital(ctx context.Context, tag string) (model.Capital, error)
	ClanSummary(ctx context.Context, tag string) (model.ClanSummary, error)
}

// Insights bundles the dashboard views of one clan.
type Insights struct {
	Summary      evaluation.Summary        `json:"summary"`
	Leaderboards evaluation.Leaderboards   `json:"leaderboards"`
	Members      []evaluation.ScoredMember `json:"members"`
}

// Stats is a monitoring snapshot of the service.
type Stats struct {
	Started          bool      `json:"started"`
	UptimeSeconds    int64     `json:"uptimeSeconds"`
	APIKeyConfigured bool      `json:"apiKeyConfigured"`
	BreakerState     string    `json:"breakerState"`
	EnrichWorkers    int       `json:"enrichWorkers"`
	Evaluations      int64     `json:"evaluations"`
	LastEvaluation   time.Time `json:"lastEvaluation,omitempty"`
}

// Service implements the clan dashboard operations.
type Service struct {
	mu sync.RWMutex

	upstream  Upstream
	evaluator *evaluation.Evaluator
	pool      *worker.Pool

	enrichWorkers int
	clanTag       string
	clock         func() time.Time

	started        bool
	startedAt      time.Time
	evaluations    int64
	lastEvaluation time.Time

	logger  logger.Logger
	metrics *metrics.Manager
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClient sets the game API client.
func WithClient(u Upstream) Option {
	return func(s *Service) {
		if u != nil {
			s.upstream = u
		}
	}
}

// WithEvaluator sets the evaluation engine.
func WithEvaluator(e *evaluation.Evaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.evaluator = e
		}
	}
}

// WithEnrichWorkers sets the number of concurrent player lookups.
func WithEnrichWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.enrichWorkers = count
		}
	}
}

// WithClanTag sets the clan checked by Probe.
func WithClanTag(tag string) Option {
	return func(s *Service) {
		if tag != "" {
			s.clanTag = tag
		}
	}
}

// WithClock replaces time.Now, e.g. for activity windows in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		evaluator:     evaluation.New(),
		enrichWorkers: worker.DefaultWorkerCount,
		clanTag:       "#RYPUQ8CY",
		clock:         time.Now,
		logger:        logger.Nop(),
		metrics:       metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.upstream != nil {
		s.pool = worker.NewPool(s.enrichWorkers, s.upstream,
			worker.WithLogger(s.logger),
			worker.WithMetrics(s.metrics),
		)
	}
	return s
}

// Start marks the service ready. It fails without an upstream client.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.upstream == nil {
		return ErrNoUpstream
	}
	if !s.upstream.HasAPIKey() {
		s.logger.Warn(ctx, "game API key missing; upstream calls will fail")
	}
	s.started = true
	s.startedAt = s.clock()
	s.logger.Info(ctx, "clan service started",
		logger.Int("enrichWorkers", s.enrichWorkers),
		logger.String("clanTag", s.clanTag),
	)
	return nil
}

// Stop marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "clan service stopped")
}

// HasAPIKey reports whether the upstream has a key configured.
func (s *Service) HasAPIKey() bool {
	return s.upstream != nil && s.upstream.HasAPIKey()
}

// Clan returns the raw clan document.
func (s *Service) Clan(ctx context.Context, tag string) (json.RawMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.upstream.Clan(ctx, tag)
}

// Members returns the raw members document.
func (s *Service) Members(ctx context.Context, tag string) (json.RawMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.upstream.Members(ctx, tag)
}

// RiverRace returns the clan's current river race.
func (s *Service) RiverRace(ctx context.Context, tag string) (json.RawMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.upstream.RiverRace(ctx, tag)
}

// Player returns the raw player document.
func (s *Service) Player(ctx context.Context, tag string) (json.RawMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.upstream.Player(ctx, tag)
}

// BattleLog returns the player's recent battles.
func (s *Service) BattleLog(ctx context.Context, tag string) (json.RawMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.upstream.BattleLog(ctx, tag)
}

// UpcomingChests returns the player's chest cycle.
func (s *Service) UpcomingChests(ctx context.Context, tag string) (json.RawMessage, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.upstream.UpcomingChests(ctx, tag)
}

// Capital returns the reshaped clan capital view.
func (s *Service) Capital(ctx context.Context, tag string) (model.Capital, error) {
	if err := s.ready(); err != nil {
		return model.Capital{}, err
	}
	return s.upstream.Capital(ctx, tag)
}

// Review fetches the roster and evaluates it.
func (s *Service) Review(ctx context.Context, tag string) (evaluation.Report, error) {
	roster, err := s.roster(ctx, tag)
	if err != nil {
		return evaluation.Report{}, err
	}
	report := s.Evaluate(ctx, roster)
	s.logger.Info(ctx, "clan reviewed",
		logger.String("tag", tag),
		logger.Int("members", len(roster)),
		logger.Int("nominated", len(report.Nomination)),
		logger.Int("promotable", len(report.Promotion)),
	)
	return report, nil
}

// Evaluate runs the engine on an already fetched roster and records metrics.
func (s *Service) Evaluate(ctx context.Context, roster []model.MemberRecord) evaluation.Report {
	start := time.Now()
	report := s.evaluator.Evaluate(roster)
	took := time.Since(start)

	s.metrics.RecordEvaluation(float64(took.Microseconds())/1000, len(roster),
		len(report.Promotion), len(report.Nomination), len(report.Kick))

	s.mu.Lock()
	s.evaluations++
	s.lastEvaluation = s.clock()
	s.mu.Unlock()

	s.logger.Debug(ctx, "roster evaluated",
		logger.Int("members", len(roster)),
		logger.Duration("took", took),
	)
	return report
}

// Insights builds the summary tiles, relationship index and leaderboards.
func (s *Service) Insights(ctx context.Context, tag string) (Insights, error) {
	roster, err := s.roster(ctx, tag)
	if err != nil {
		return Insights{}, err
	}
	report := s.Evaluate(ctx, roster)
	return Insights{
		Summary:      evaluation.Summarize(report.Members, s.clock()),
		Leaderboards: evaluation.BuildLeaderboards(report.Members, s.evaluator.LeaderboardSize()),
		Members:      report.Members,
	}, nil
}

// MemberProfiles returns the roster with per-player details fetched concurrently.
func (s *Service) MemberProfiles(ctx context.Context, tag string) ([]model.MemberProfile, error) {
	roster, err := s.roster(ctx, tag)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	profiles := s.pool.Enrich(ctx, roster)

	missing := 0
	for _, p := range profiles {
		if p.Details == nil {
			missing++
		}
	}
	s.logger.Info(ctx, "roster enriched",
		logger.String("tag", tag),
		logger.Int("members", len(profiles)),
		logger.Int("missingDetails", missing),
		logger.Duration("took", time.Since(start)),
	)
	return profiles, nil
}

// Probe checks connectivity against the configured clan.
func (s *Service) Probe(ctx context.Context) (model.ClanSummary, error) {
	if err := s.ready(); err != nil {
		return model.ClanSummary{}, err
	}
	return s.upstream.ClanSummary(ctx, s.clanTag)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:        s.started,
		EnrichWorkers:  s.enrichWorkers,
		Evaluations:    s.evaluations,
		LastEvaluation: s.lastEvaluation,
	}
	if s.started {
		st.UptimeSeconds = int64(s.clock().Sub(s.startedAt).Seconds())
	}
	if s.upstream != nil {
		st.APIKeyConfigured = s.upstream.HasAPIKey()
		st.BreakerState = s.upstream.BreakerState()
	}
	return st
}

func (s *Service) roster(ctx context.Context, tag string) ([]model.MemberRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	roster, err := s.upstream.Roster(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("fetch roster %s: %w", tag, err)
	}
	return roster, nil
}

func (s *Service) ready() error {
	if s.upstream == nil {
		return ErrNoUpstream
	}
	return nil
}
