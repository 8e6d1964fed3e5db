package webhook

import (
	"github.com/mattjoyce/frontctl/internal/queue"
)

// Submitter accepts events without blocking. The dispatcher satisfies it.
type Submitter interface {
	TrySubmit(ev queue.Event) bool
}

// Config holds the listener address and its endpoints.
type Config struct {
	Listen    string
	Endpoints []EndpointConfig
}

// EndpointConfig is one resolved webhook endpoint.
type EndpointConfig struct {
	Path            string
	Command         string
	Secret          string
	SignatureHeader string
	MaxBodySize     int64
}

// TriggerResponse is returned with 202 once the request is queued.
type TriggerResponse struct {
	RequestID string `json:"request_id"`
	Command   string `json:"command"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
