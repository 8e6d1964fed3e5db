package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/log"
	"github.com/mattjoyce/frontctl/internal/params"
	"github.com/mattjoyce/frontctl/internal/queue"
)

const tracerName = "github.com/mattjoyce/frontctl/internal/dispatch"

// Dispatcher dequeues events and executes the commands they carry, one at a
// time, bracketing each with start and end notifications.
type Dispatcher struct {
	queue    *queue.Queue
	registry *command.Registry
	sink     Sink
	cfg      Config
	tracer   trace.Tracer
	logger   *slog.Logger

	lifecycle atomic.Int32
	phase     atomic.Int32
	inFlight  atomic.Pointer[command.Request]

	accepted  atomic.Int64
	dropped   atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a Dispatcher draining q. A nil sink discards notifications.
func New(q *queue.Queue, reg *command.Registry, sink Sink, cfg Config) *Dispatcher {
	if sink == nil {
		sink = nopSink{}
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Dispatcher{
		queue:    q,
		registry: reg,
		sink:     sink,
		cfg:      cfg,
		tracer:   tp.Tracer(tracerName),
		logger:   log.WithComponent("dispatch"),
		stopCh:   make(chan struct{}),
	}
}

// Start freezes the registry and runs the dispatch loop until ctx is
// cancelled or Stop is called. It blocks; a Dispatcher can be started once.
// Returns nil after Stop and ctx.Err() after cancellation.
func (d *Dispatcher) Start(ctx context.Context) error {
	if !d.lifecycle.CompareAndSwap(int32(Created), int32(Running)) {
		return ErrAlreadyStarted
	}
	d.registry.Freeze()

	d.logger.Info("dispatch loop started", "commands", d.registry.Len(), "queue_capacity", d.queue.Cap())
	defer func() {
		d.lifecycle.Store(int32(Stopped))
		d.queue.Close()
		d.logger.Info("dispatch loop stopped", "abandoned", d.queue.Len())
	}()

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-d.stopCh:
			cancel()
		case <-loopCtx.Done():
		}
	}()

	// Commands do not inherit cancellation from the loop: shutdown is only
	// observed between commands.
	cmdCtx := context.WithoutCancel(ctx)

	for {
		d.phase.Store(int32(PhaseIdle))
		ev, err := d.queue.Take(loopCtx)
		if err != nil {
			if d.stopRequested() || errors.Is(err, queue.ErrClosed) {
				return nil
			}
			return ctx.Err()
		}
		d.process(cmdCtx, ev)
	}
}

// Stop asks the loop to exit at its next idle point. The command in flight,
// if any, completes first. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

func (d *Dispatcher) stopRequested() bool {
	select {
	case <-d.stopCh:
		return true
	default:
		return false
	}
}

// Submit enqueues ev, blocking while the queue is full.
func (d *Dispatcher) Submit(ctx context.Context, ev queue.Event) error {
	return d.queue.Submit(ctx, ev)
}

// TrySubmit enqueues ev if there is room and reports whether it did.
func (d *Dispatcher) TrySubmit(ev queue.Event) bool {
	return d.queue.TrySubmit(ev)
}

// Stats returns counters and the current phase.
func (d *Dispatcher) Stats() Stats {
	s := Stats{
		Lifecycle:     Lifecycle(d.lifecycle.Load()).String(),
		Phase:         Phase(d.phase.Load()).String(),
		QueueDepth:    d.queue.Len(),
		QueueCapacity: d.queue.Cap(),
		Accepted:      d.accepted.Load(),
		Dropped:       d.dropped.Load(),
		Succeeded:     d.succeeded.Load(),
		Failed:        d.failed.Load(),
	}
	if req := d.inFlight.Load(); req != nil {
		s.InFlight = req.Name
	}
	return s
}

// process runs one iteration: validate, announce, execute, announce.
func (d *Dispatcher) process(ctx context.Context, ev queue.Event) {
	d.phase.Store(int32(PhaseValidating))
	req, err := unpack(ev)
	if err != nil {
		d.dropped.Add(1)
		d.reportMalformed(ev, err)
		return
	}
	d.accepted.Add(1)
	d.inFlight.Store(&req)
	defer d.inFlight.Store(nil)

	d.phase.Store(int32(PhaseAnnouncingStart))
	d.publish(NotifyStarted, req)

	d.phase.Store(int32(PhaseExecuting))
	resp := d.execute(ctx, req)

	d.phase.Store(int32(PhaseAnnouncingEnd))
	d.publish(NotifyEnded, resp)
}

func (d *Dispatcher) execute(ctx context.Context, req command.Request) command.Response {
	reqLogger := log.WithRequest(req.ID).With("command", req.Name)
	started := time.Now()

	ctx, span := d.tracer.Start(ctx, "dispatch "+req.Name,
		trace.WithAttributes(
			attribute.String("command.name", req.Name),
			attribute.String("command.request_id", req.ID),
		))
	defer span.End()

	var resp command.Response
	desc, err := d.registry.Resolve(req.Name)
	if err != nil {
		reqLogger.Warn("command not found")
		resp = command.Failed(req, command.Failure{
			Kind:    command.KindCommandNotFound,
			Message: err.Error(),
		})
	} else {
		reqLogger.Debug("executing command")
		payload, err := d.run(ctx, desc, req)
		if err != nil {
			f := command.Classify(err)
			logFailure(reqLogger, f)
			resp = command.Failed(req, f)
		} else {
			resp = command.Succeeded(req, payload)
		}
	}
	resp.Duration = time.Since(started)

	if resp.OK {
		d.succeeded.Add(1)
		span.SetStatus(codes.Ok, "")
		reqLogger.Info("command succeeded", "duration", resp.Duration)
	} else {
		d.failed.Add(1)
		span.SetAttributes(
			attribute.String("command.failure_kind", resp.Failure.Kind.String()),
			attribute.String("command.failure_subkind", resp.Failure.Subkind.String()),
		)
		span.SetStatus(codes.Error, resp.Failure.Message)
	}
	return resp
}

// run invokes the handler under its timeout and converts a panic into an
// unknown_error.
func (d *Dispatcher) run(ctx context.Context, desc command.Descriptor, req command.Request) (payload params.Bag, err error) {
	if timeout := d.timeoutFor(desc); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("command panicked", "command", req.Name, "request_id", req.ID,
				"panic", r, "stack", string(debug.Stack()))
			payload = params.Bag{}
			err = &command.Error{
				Kind:    command.KindUnknown,
				Message: fmt.Sprintf("handler panic: %v", r),
			}
		}
	}()

	return desc.Handler.Execute(ctx, req.Params)
}

func (d *Dispatcher) timeoutFor(desc command.Descriptor) time.Duration {
	if t, ok := d.cfg.Timeouts[desc.Name]; ok && t > 0 {
		return t
	}
	if desc.Timeout > 0 {
		return desc.Timeout
	}
	return d.cfg.CommandTimeout
}

func logFailure(l *slog.Logger, f command.Failure) {
	switch f.Kind {
	case command.KindDomain:
		l.Warn("command failed", "kind", f.Kind, "subkind", f.Subkind, "error", f.Message)
	case command.KindTimeout:
		l.Warn("command timed out", "error", f.Message)
	default:
		l.Error("unknown error happened", "kind", f.Kind, "error", f.Message)
	}
}

func (d *Dispatcher) reportMalformed(ev queue.Event, err error) {
	d.logger.Error("dropping malformed event",
		"event", ev.Name, "submitted_by", ev.SubmittedBy, "error", err)
	d.publish(NotifyError, Report{
		Kind:        command.KindMalformedEvent,
		Event:       ev.Name,
		SubmittedBy: ev.SubmittedBy,
		Message:     err.Error(),
		At:          time.Now().UTC(),
	})
}

// publish never lets a misbehaving sink take the loop down.
func (d *Dispatcher) publish(name string, payload any) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("sink panicked", "notification", name, "panic", r)
		}
	}()
	d.sink.Publish(name, payload)
}
