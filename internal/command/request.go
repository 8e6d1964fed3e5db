// Package command defines the request/response model that flows through the
// dispatcher, the handler contract concrete commands implement, the closed
// failure taxonomy, and the name-to-handler registry.
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/frontctl/internal/params"
)

// Handler executes one command. It runs on the dispatcher goroutine, so it
// may touch shared application state without locking as long as nothing
// outside the dispatcher mutates that state.
type Handler interface {
	Execute(ctx context.Context, p params.Bag) (params.Bag, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, p params.Bag) (params.Bag, error)

func (f HandlerFunc) Execute(ctx context.Context, p params.Bag) (params.Bag, error) {
	return f(ctx, p)
}

// Request names a command and carries its parameters.
type Request struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Params params.Bag `json:"params"`
}

// NewRequest builds a Request with a fresh ID.
func NewRequest(name string, p params.Bag) Request {
	return Request{ID: uuid.NewString(), Name: name, Params: p}
}

// Validate reports whether r is well-formed.
func (r Request) Validate() error {
	if r.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// Response is the outcome of one executed Request. Exactly one of Payload
// (OK) or Failure (!OK) is meaningful.
type Response struct {
	RequestID string        `json:"request_id"`
	Name      string        `json:"name"`
	OK        bool          `json:"ok"`
	Payload   params.Bag    `json:"payload"`
	Failure   *Failure      `json:"failure,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Succeeded builds a success Response for req.
func Succeeded(req Request, payload params.Bag) Response {
	return Response{RequestID: req.ID, Name: req.Name, OK: true, Payload: payload}
}

// Failed builds a failure Response for req.
func Failed(req Request, f Failure) Response {
	return Response{RequestID: req.ID, Name: req.Name, Failure: &f}
}

// Status is the terminal status string used by the journal and the API.
func (r Response) Status() string {
	if r.OK {
		return "succeeded"
	}
	return "failed"
}

func (r Response) String() string {
	if r.OK {
		return fmt.Sprintf("%s(%s): ok", r.Name, r.RequestID)
	}
	if r.Failure == nil {
		return fmt.Sprintf("%s(%s): failed", r.Name, r.RequestID)
	}
	return fmt.Sprintf("%s(%s): %s: %s", r.Name, r.RequestID, r.Failure.Kind, r.Failure.Message)
}
