package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/params"
	"github.com/mattjoyce/frontctl/internal/queue"
)

func TestDispatcher_SpanPerCommand(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	reg := command.NewRegistry()
	reg.MustRegister("echo", command.HandlerFunc(echoHandler))
	reg.MustRegister("fail", command.HandlerFunc(func(context.Context, params.Bag) (params.Bag, error) {
		return params.Bag{}, errors.New("nope")
	}))
	sink := newRecordingSink()
	d := New(queue.New(4), reg, sink, Config{TracerProvider: tp})

	submitRequest(t, d, "echo", params.Bag{})
	failReq := submitRequest(t, d, "fail", params.Bag{})
	runDispatcher(t, d)
	sink.waitFor(t, NotifyEnded)
	sink.waitFor(t, NotifyEnded)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "dispatch echo", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	assert.Equal(t, "dispatch fail", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	attrs := map[string]string{}
	for _, kv := range spans[1].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, failReq.ID, attrs["command.request_id"])
	assert.Equal(t, "unknown_error", attrs["command.failure_kind"])
}
