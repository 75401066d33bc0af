package api

import (
	"context"
	"encoding/json"
	"net/http"
)

type rawFetch func(ctx context.Context, tag string) (json.RawMessage, error)

// passthrough wraps an upstream document in the success envelope.
func (s *Server) passthrough(fetch rawFetch, fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := fetch(r.Context(), r.PathValue("tag"))
		if err != nil {
			s.writeError(w, r, err, fallback)
			return
		}
		s.writeData(w, raw)
	}
}

// handleCapital handles GET /api/clan/{tag}/capital.
func (s *Server) handleCapital(w http.ResponseWriter, r *http.Request) {
	capital, err := s.deps.Capital(r.Context(), r.PathValue("tag"))
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch capital")
		return
	}
	s.writeData(w, capital)
}

// handleMemberDetails handles GET /api/clan/{tag}/members/details.
func (s *Server) handleMemberDetails(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.deps.MemberProfiles(r.Context(), r.PathValue("tag"))
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch members")
		return
	}
	s.writeData(w, profiles)
}

// handleReview handles GET /api/clan/{tag}/review.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Review(r.Context(), r.PathValue("tag"))
	if err != nil {
		s.writeError(w, r, err, "Failed to review clan")
		return
	}
	s.writeData(w, report)
}

// handleInsights handles GET /api/clan/{tag}/insights.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.deps.Insights(r.Context(), r.PathValue("tag"))
	if err != nil {
		s.writeError(w, r, err, "Failed to build insights")
		return
	}
	s.writeData(w, insights)
}
