package protocol

import (
	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/params"
)

// SubmitRequest is the JSON body of a command submission. Request IDs are
// always assigned by the server, so a body carrying "id" is rejected as an
// unknown field.
type SubmitRequest struct {
	Name   string         `json:"name,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// Request converts s to a command.Request with a fresh ID. Numbers arrive
// as json.Number and become Int or Float values.
func (s *SubmitRequest) Request() command.Request {
	return command.NewRequest(s.Name, params.FromMap(s.Params))
}

// SubmitAccepted is returned when a submission was queued without waiting.
type SubmitAccepted struct {
	RequestID string `json:"request_id"`
	Name      string `json:"name"`
	Status    string `json:"status"` // queued
}

// ResponseEnvelope is the wire form of a command.Response.
type ResponseEnvelope struct {
	RequestID  string         `json:"request_id"`
	Name       string         `json:"name"`
	Status     string         `json:"status"` // succeeded | failed
	Payload    map[string]any `json:"payload,omitempty"`
	Failure    *FailureBody   `json:"failure,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// FailureBody is the wire form of a command.Failure.
type FailureBody struct {
	Kind    string `json:"kind"`
	Subkind string `json:"subkind,omitempty"`
	Message string `json:"message"`
}
