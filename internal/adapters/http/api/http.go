// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "github.com/sharveshsanjay/clash-royale/internal/app"
	"github.com/sharveshsanjay/clash-royale/internal/domain/evaluation"
	"github.com/sharveshsanjay/clash-royale/internal/domain/model"
	"github.com/sharveshsanjay/clash-royale/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	HasAPIKey() bool

	// Passthrough reads return the upstream document untouched.
	Clan(ctx context.Context, tag string) (json.RawMessage, error)
	Members(ctx context.Context, tag string) (json.RawMessage, error)
	RiverRace(ctx context.Context, tag string) (json.RawMessage, error)
	Player(ctx context.Context, tag string) (json.RawMessage, error)
	BattleLog(ctx context.Context, tag string) (json.RawMessage, error)
	UpcomingChests(ctx context.Context, tag string) (json.RawMessage, error)

	Capital(ctx context.Context, tag string) (model.Capital, error)
	MemberProfiles(ctx context.Context, tag string) ([]model.MemberProfile, error)
	Review(ctx context.Context, tag string) (evaluation.Report, error)
	Insights(ctx context.Context, tag string) (service.Insights, error)
	Probe(ctx context.Context) (model.ClanSummary, error)
}

// StatsProvider exposes service statistics.
type StatsProvider interface {
	GetStats() service.Stats
}

// Service metadata reported by the root and health endpoints.
const (
	ServiceName    = "clash-squad-backend"
	ServiceVersion = "2.0.0"
)

// Server wires HTTP routes for the business API.
type Server struct {
	deps          Dependencies
	stats         StatsProvider
	allowedOrigin string
	log           logger.Logger
	now           func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigin sets the CORS Access-Control-Allow-Origin value.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.allowedOrigin = origin
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, stats StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		stats:         stats,
		allowedOrigin: "*",
		log:           logger.Nop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// route describes one registered endpoint.
type route struct {
	pattern  string
	endpoint string
	handler  http.HandlerFunc
}

func (s *Server) routes() []route {
	return []route{
		{"GET /{$}", "root", s.handleRoot},
		{"GET /health", "health", s.handleHealth},
		{"GET /test", "test", s.handleTest},
		{"GET /stats", "stats", s.handleStats},
		{"GET /api/clan/{tag}", "clan", s.passthrough(s.deps.Clan, "Failed to fetch clan")},
		{"GET /api/clan/{tag}/members", "members", s.passthrough(s.deps.Members, "Failed to fetch members")},
		{"GET /api/clan/{tag}/members/details", "member_details", s.handleMemberDetails},
		{"GET /api/clan/{tag}/capital", "capital", s.handleCapital},
		{"GET /api/clan/{tag}/riverrace", "riverrace", s.passthrough(s.deps.RiverRace, "Failed to fetch river race")},
		{"GET /api/clan/{tag}/review", "review", s.handleReview},
		{"GET /api/clan/{tag}/insights", "insights", s.handleInsights},
		{"GET /api/player/{tag}", "player", s.passthrough(s.deps.Player, "Failed to fetch player")},
		{"GET /api/player/{tag}/battlelog", "battlelog", s.passthrough(s.deps.BattleLog, "Failed to fetch battle log")},
		{"GET /api/player/{tag}/chests", "chests", s.passthrough(s.deps.UpcomingChests, "Failed to fetch upcoming chests")},
	}
}

// Endpoints lists the public routes in "METHOD /path" form.
func (s *Server) Endpoints() []string {
	rs := s.routes()
	out := make([]string, 0, len(rs)+1)
	for _, r := range rs {
		if r.endpoint == "root" {
			out = append(out, "GET /")
			continue
		}
		out = append(out, r.pattern)
	}
	return append(out, "GET /metrics")
}

// Register attaches all HTTP routes to mux. Unmatched paths get a JSON 404.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	for _, r := range s.routes() {
		mux.Handle(r.pattern, MetricsMiddleware(r.handler, r.endpoint))
	}
	mux.Handle("GET /metrics", MetricsMiddleware(handleMetrics, "metrics"))
	mux.Handle("/", MetricsMiddleware(s.handleNotFound, "not_found"))
}

// Handler wraps mux with the request ID, CORS and recovery middleware.
func (s *Server) Handler(mux http.Handler) http.Handler {
	return RequestID(CORS(s.allowedOrigin, Recover(s.log, mux)))
}

// envelope is the success body.
type envelope struct {
	Error     bool   `json:"error"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Server) writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data, Timestamp: s.timestamp()})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, body := classify(err, fallback)
	body.Error = true
	body.Status = status
	lvl := s.log.Warn
	if status >= http.StatusInternalServerError {
		lvl = s.log.Error
	}
	lvl(r.Context(), "request failed",
		logger.String("path", r.URL.Path),
		logger.String("requestId", RequestIDFrom(r.Context())),
		logger.Int("status", status),
		logger.Error(err),
	)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
