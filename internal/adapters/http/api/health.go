package api

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharveshsanjay/clash-royale/internal/adapters/clashapi"
	"github.com/sharveshsanjay/clash-royale/pkg/metrics"
)

const (
	keyHelp = "Create an API key at https://developer.clashroyale.com/ and set CLASH_API_KEY"
	newKey  = "Please create a new API key at https://developer.clashroyale.com/"
)

// handleRoot handles GET / with service info and the endpoint list.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Clash Squad Backend API",
		"version":   ServiceVersion,
		"status":    "online",
		"cors":      "enabled",
		"timestamp": s.timestamp(),
		"endpoints": s.Endpoints(),
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	key := "missing"
	if s.deps.HasAPIKey() {
		key = "configured"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   ServiceName,
		"cors":      "enabled",
		"api_key":   key,
		"timestamp": s.timestamp(),
	})
}

// handleTest handles GET /test by probing the configured clan.
func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	if !s.deps.HasAPIKey() {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   true,
			"message": msgMissingKey,
			"fix":     keyHelp,
		})
		return
	}

	clan, err := s.deps.Probe(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "API is working!",
			"clan":    clan,
		})
		return
	}

	var ue *clashapi.UpstreamError
	if errors.As(err, &ue) && ue.Status == http.StatusForbidden {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":    true,
			"message":  msgInvalidKey,
			"details":  newKey,
			"response": ue.Details,
		})
		return
	}
	s.writeError(w, r, err, "API Error")
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, s.stats.GetStats())
}

// handleMetrics serves the custom Prometheus registry.
func handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// handleNotFound answers every unmatched route.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":              true,
		"message":            msgNotFound,
		"requestedUrl":       r.URL.RequestURI(),
		"availableEndpoints": s.Endpoints(),
	})
}
