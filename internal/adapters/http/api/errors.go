package api

import (
	"errors"
	"net/http"

	"github.com/sharveshsanjay/clash-royale/internal/adapters/clashapi"
	service "github.com/sharveshsanjay/clash-royale/internal/app"
	"github.com/sharveshsanjay/clash-royale/internal/domain/model"
)

// Messages returned for failures that carry no upstream message.
const (
	msgMissingKey  = "API key not configured"
	msgInvalidKey  = "Invalid API key"
	msgNotFound    = "Endpoint not found"
	msgInternal    = "Internal server error"
	msgUnavailable = "Upstream temporarily unavailable"
	msgInvalidTag  = "Invalid tag"
	msgNotReady    = "Service not ready"
)

// ErrPanic marks a handler panic recovered by the middleware.
var ErrPanic = errors.New("handler panic")

// apiError is the JSON error body.
type apiError struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details any    `json:"details,omitempty"`
}

// classify maps a service error onto an HTTP status and error body.
// fallback is used when the error carries no message of its own.
func classify(err error, fallback string) (int, apiError) {
	var ue *clashapi.UpstreamError
	switch {
	case errors.Is(err, clashapi.ErrMissingAPIKey):
		return http.StatusInternalServerError, apiError{Message: msgMissingKey}
	case errors.Is(err, service.ErrNoUpstream):
		return http.StatusInternalServerError, apiError{Message: msgNotReady}
	case errors.Is(err, model.ErrInvalidTag):
		return http.StatusBadRequest, apiError{Message: msgInvalidTag, Details: err.Error()}
	case errors.As(err, &ue):
		body := apiError{Message: ue.Message}
		if len(ue.Details) > 0 {
			body.Details = ue.Details
		}
		return ue.Status, body
	case errors.Is(err, clashapi.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, apiError{Message: msgUnavailable}
	default:
		return http.StatusBadGateway, apiError{Message: fallback, Details: err.Error()}
	}
}
