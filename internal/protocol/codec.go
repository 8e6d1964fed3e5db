package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mattjoyce/frontctl/internal/command"
)

var (
	ErrMissingName  = errors.New("submit request missing required field: name")
	ErrNameMismatch = errors.New("submit request name does not match the addressed command")
)

// DecodeSubmit reads a strict SubmitRequest from r. Unknown fields are
// rejected and name is required.
func DecodeSubmit(r io.Reader) (*SubmitRequest, error) {
	return DecodeSubmitFor(r, "")
}

// DecodeSubmitFor is DecodeSubmit for a body addressed to a named command.
// The body may omit name, or be empty, but must not name another command.
func DecodeSubmitFor(r io.Reader, name string) (*SubmitRequest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read submit request: %w", err)
	}

	var req SubmitRequest
	if len(bytes.TrimSpace(data)) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		decoder.UseNumber()
		if err := decoder.Decode(&req); err != nil {
			return nil, fmt.Errorf("failed to decode submit request: %w", err)
		}
		if decoder.More() {
			return nil, fmt.Errorf("failed to decode submit request: trailing data")
		}
	}

	switch {
	case req.Name == "":
		req.Name = name
	case name != "" && req.Name != name:
		return nil, fmt.Errorf("%w: body %q, path %q", ErrNameMismatch, req.Name, name)
	}
	if req.Name == "" {
		return nil, ErrMissingName
	}
	return &req, nil
}

// EncodeSubmit writes req as JSON to w.
func EncodeSubmit(w io.Writer, req *SubmitRequest) error {
	if req.Name == "" {
		return ErrMissingName
	}
	if err := json.NewEncoder(w).Encode(req); err != nil {
		return fmt.Errorf("failed to encode submit request: %w", err)
	}
	return nil
}

// Envelope converts resp to its wire form.
func Envelope(resp command.Response) ResponseEnvelope {
	env := ResponseEnvelope{
		RequestID:  resp.RequestID,
		Name:       resp.Name,
		Status:     resp.Status(),
		DurationMS: resp.Duration.Milliseconds(),
	}
	if resp.OK {
		env.Payload = resp.Payload.ToMap()
		return env
	}
	if resp.Failure != nil {
		env.Failure = &FailureBody{
			Kind:    resp.Failure.Kind.String(),
			Message: resp.Failure.Message,
		}
		if resp.Failure.Kind == command.KindDomain {
			env.Failure.Subkind = resp.Failure.Subkind.String()
		}
	}
	return env
}

// EncodeResponse writes resp as a ResponseEnvelope to w.
func EncodeResponse(w io.Writer, resp command.Response) error {
	if err := json.NewEncoder(w).Encode(Envelope(resp)); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

// DecodeResponse reads a ResponseEnvelope from r and validates it.
func DecodeResponse(r io.Reader) (*ResponseEnvelope, error) {
	var env ResponseEnvelope
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if env.RequestID == "" {
		return nil, fmt.Errorf("response missing required field: request_id")
	}
	switch env.Status {
	case "succeeded":
	case "failed":
		if env.Failure == nil {
			return nil, fmt.Errorf("response has status=failed but no failure")
		}
	default:
		return nil, fmt.Errorf("invalid status value: %q (must be 'succeeded' or 'failed')", env.Status)
	}
	return &env, nil
}
