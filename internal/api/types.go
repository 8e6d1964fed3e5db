package api

import "github.com/mattjoyce/frontctl/internal/dispatch"

// CommandSummary describes one registered command.
type CommandSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TimeoutMS   int64  `json:"timeout_ms,omitempty"`
}

// CommandListResponse is returned by GET /commands.
type CommandListResponse struct {
	Commands []CommandSummary `json:"commands"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Commands      int            `json:"commands"`
	Dispatcher    dispatch.Stats `json:"dispatcher"`
}
