package dispatch

import (
	"errors"
	"time"

	"github.com/mattjoyce/frontctl/internal/command"
	"go.opentelemetry.io/otel/trace"
)

// Notification names published to the Sink.
const (
	NotifyStarted = "command.started"
	NotifyEnded   = "command.ended"
	NotifyError   = "dispatcher.error"
)

var (
	ErrAlreadyStarted = errors.New("dispatcher already started")
	ErrMissingRequest = errors.New("event has no request parameter")
	ErrInvalidRequest = errors.New("event request is not a usable command request")
)

//go:generate mockgen -destination=mocks/mock_sink.go -package=mocks github.com/mattjoyce/frontctl/internal/dispatch Sink

// Sink receives lifecycle notifications. Publish must not block for long;
// it runs on the dispatcher goroutine.
type Sink interface {
	Publish(name string, payload any)
}

type nopSink struct{}

func (nopSink) Publish(string, any) {}

// Report is the payload of a dispatcher.error notification.
type Report struct {
	Kind        command.Kind `json:"kind"`
	Event       string       `json:"event"`
	SubmittedBy string       `json:"submitted_by,omitempty"`
	Message     string       `json:"message"`
	At          time.Time    `json:"at"`
}

// Config tunes a Dispatcher.
type Config struct {
	// CommandTimeout applies to commands registered without their own
	// timeout. Zero disables it.
	CommandTimeout time.Duration
	// Timeouts are per-command overrides keyed by command name. They win
	// over the timeout a command was registered with.
	Timeouts map[string]time.Duration
	// TracerProvider overrides the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider
}

// Lifecycle is the coarse state of a Dispatcher.
type Lifecycle int32

const (
	Created Lifecycle = iota
	Running
	Stopped
)

func (l Lifecycle) String() string {
	switch l {
	case Created:
		return "created"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Phase is where the loop currently is within an iteration.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseAnnouncingStart
	PhaseExecuting
	PhaseAnnouncingEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseAnnouncingStart:
		return "announcing_start"
	case PhaseExecuting:
		return "executing"
	case PhaseAnnouncingEnd:
		return "announcing_end"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time view of a Dispatcher.
type Stats struct {
	Lifecycle     string `json:"lifecycle"`
	Phase         string `json:"phase"`
	InFlight      string `json:"in_flight,omitempty"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	Accepted      int64  `json:"accepted"`
	Dropped       int64  `json:"dropped"`
	Succeeded     int64  `json:"succeeded"`
	Failed        int64  `json:"failed"`
}
