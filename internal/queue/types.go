package queue

import (
	"errors"
	"time"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/params"
)

// DefaultCapacity bounds memory under producer bursts without blocking the
// common case.
const DefaultCapacity = 1000

const (
	// CommandSent is the event name producers use for command requests.
	CommandSent = "command.sent"
	// RequestKey is the parameter under which an event carries its request.
	RequestKey = "request"
)

var ErrClosed = errors.New("queue closed")

// Event is an immutable named message. Params is itself immutable, so the
// value copy stored by the queue cannot be changed by its producer.
type Event struct {
	Name        string
	Params      params.Bag
	SubmittedBy string
	SubmittedAt time.Time
}

// NewEvent builds an Event stamped with the current time.
func NewEvent(name, submittedBy string, p params.Bag) Event {
	return Event{
		Name:        name,
		Params:      p,
		SubmittedBy: submittedBy,
		SubmittedAt: time.Now().UTC(),
	}
}

// ForRequest wraps req in a CommandSent event.
func ForRequest(req command.Request, submittedBy string) Event {
	return NewEvent(CommandSent, submittedBy, params.Bag{}.With(RequestKey, params.Opaque(req)))
}
