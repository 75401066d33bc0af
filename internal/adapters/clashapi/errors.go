package clashapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	// ErrMissingAPIKey is returned before any network call when no key is configured.
	ErrMissingAPIKey = errors.New("API key not configured")
	// ErrUpstreamUnavailable is returned while the circuit breaker is open.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrRequestFailed wraps transport and decoding failures.
	ErrRequestFailed = errors.New("upstream request failed")
)

// UpstreamError is a non-2xx answer from the game API.
type UpstreamError struct {
	Status  int
	Message string
	Details json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// clientSide reports whether the failure is caused by the request itself.
func (e *UpstreamError) clientSide() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != 429
}

func newUpstreamError(status int, body []byte, fallback string) *UpstreamError {
	ue := &UpstreamError{Status: status, Message: fallback}
	if json.Valid(body) {
		ue.Details = json.RawMessage(body)
		var p struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &p) == nil && p.Message != "" {
			ue.Message = p.Message
		}
	}
	return ue
}
