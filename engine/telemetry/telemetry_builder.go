package telemetry

import "net/http"

// HubBuilderOption is a functional option for configuring a Hub.
type HubBuilderOption func(*hub)

// WithControlHandler sets the function receiving client control messages. It runs on the
// client's read goroutine.
//
// Parameters:
//   - fn: the handler
//
// Returns:
//   - HubBuilderOption: option function to apply
func WithControlHandler(fn ControlHandler) HubBuilderOption {
	return func(h *hub) {
		h.onControl = fn
	}
}

// WithCheckOrigin replaces the origin check of the websocket upgrade. By default only
// requests without an Origin header or with one matching the Host are accepted.
//
// Parameters:
//   - fn: returns true for an accepted request
//
// Returns:
//   - HubBuilderOption: option function to apply
func WithCheckOrigin(fn func(r *http.Request) bool) HubBuilderOption {
	return func(h *hub) {
		h.upgrader.CheckOrigin = fn
	}
}
