package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/params"
)

func ev(name string) Event {
	return NewEvent(name, "test", params.Bag{})
}

func TestQueueSubmitTakeFIFO(t *testing.T) {
	t.Parallel()

	q := New(10)
	ctx := context.Background()
	for i := range 10 {
		if err := q.Submit(ctx, ev(fmt.Sprintf("e%d", i))); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	if q.Len() != 10 {
		t.Fatalf("Len = %d, want 10", q.Len())
	}

	for i := range 10 {
		got, err := q.Take(ctx)
		if err != nil {
			t.Fatalf("Take %d: %v", i, err)
		}
		if want := fmt.Sprintf("e%d", i); got.Name != want {
			t.Fatalf("Take %d = %q, want %q", i, got.Name, want)
		}
	}
}

func TestQueueDefaultCapacity(t *testing.T) {
	t.Parallel()

	if got := New(0).Cap(); got != DefaultCapacity {
		t.Fatalf("Cap = %d, want %d", got, DefaultCapacity)
	}
	if got := New(-3).Cap(); got != DefaultCapacity {
		t.Fatalf("Cap = %d, want %d", got, DefaultCapacity)
	}
}

// Scenario A: capacity 2, the third submit blocks until the consumer takes.
func TestQueueBackpressure(t *testing.T) {
	t.Parallel()

	q := New(2)
	ctx := context.Background()
	if err := q.Submit(ctx, ev("E1")); err != nil {
		t.Fatalf("Submit E1: %v", err)
	}
	if err := q.Submit(ctx, ev("E2")); err != nil {
		t.Fatalf("Submit E2: %v", err)
	}

	returned := make(chan error, 1)
	go func() {
		returned <- q.Submit(ctx, ev("E3"))
	}()

	select {
	case err := <-returned:
		t.Fatalf("third Submit returned before any Take (err=%v)", err)
	case <-time.After(100 * time.Millisecond):
	}

	first, err := q.Take(ctx)
	if err != nil || first.Name != "E1" {
		t.Fatalf("Take = %q, %v; want E1", first.Name, err)
	}

	select {
	case err := <-returned:
		if err != nil {
			t.Fatalf("third Submit: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("third Submit did not unblock after Take")
	}

	for _, want := range []string{"E2", "E3"} {
		got, err := q.Take(ctx)
		if err != nil || got.Name != want {
			t.Fatalf("Take = %q, %v; want %s", got.Name, err, want)
		}
	}
}

func TestQueueSubmitHonoursContext(t *testing.T) {
	t.Parallel()

	q := New(1)
	if !q.TrySubmit(ev("fill")) {
		t.Fatal("TrySubmit on empty queue failed")
	}
	if q.TrySubmit(ev("overflow")) {
		t.Fatal("TrySubmit on full queue succeeded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Submit(ctx, ev("blocked")); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Submit err = %v, want DeadlineExceeded", err)
	}
	if q.Len() != 1 {
		t.Fatalf("Len = %d, want 1", q.Len())
	}
}

func TestQueueTakeHonoursContext(t *testing.T) {
	t.Parallel()

	q := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if _, err := q.Take(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Take err = %v, want Canceled", err)
	}
}

func TestQueueCloseDrainsThenReportsClosed(t *testing.T) {
	t.Parallel()

	q := New(4)
	ctx := context.Background()
	_ = q.Submit(ctx, ev("a"))
	_ = q.Submit(ctx, ev("b"))
	q.Close()
	q.Close()

	if err := q.Submit(ctx, ev("c")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Submit after Close = %v, want ErrClosed", err)
	}
	if q.TrySubmit(ev("d")) {
		t.Fatal("TrySubmit after Close succeeded")
	}

	for _, want := range []string{"a", "b"} {
		got, err := q.Take(ctx)
		if err != nil || got.Name != want {
			t.Fatalf("Take = %q, %v; want %s", got.Name, err, want)
		}
	}
	if _, err := q.Take(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("Take on drained closed queue = %v, want ErrClosed", err)
	}
}

func TestQueueCloseWakesBlockedProducer(t *testing.T) {
	t.Parallel()

	q := New(1)
	_ = q.Submit(context.Background(), ev("fill"))

	errCh := make(chan error, 1)
	go func() { errCh <- q.Submit(context.Background(), ev("blocked")) }()
	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("blocked Submit = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not wake blocked producer")
	}
}

func TestQueueConcurrentProducersPreservePerProducerOrder(t *testing.T) {
	t.Parallel()

	const producers, perProducer = 4, 200
	q := New(8)
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				e := NewEvent("e", fmt.Sprintf("p%d", p), params.FromMap(map[string]any{"seq": i}))
				if err := q.Submit(ctx, e); err != nil {
					t.Errorf("Submit: %v", err)
					return
				}
			}
		}()
	}

	last := map[string]int64{}
	for range producers * perProducer {
		got, err := q.Take(ctx)
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		seq, _ := got.Params.Int("seq")
		if prev, ok := last[got.SubmittedBy]; ok && seq != prev+1 {
			t.Fatalf("producer %s: seq %d after %d", got.SubmittedBy, seq, prev)
		}
		last[got.SubmittedBy] = seq
	}
	wg.Wait()
}

func TestForRequestCarriesRequest(t *testing.T) {
	t.Parallel()

	req := command.NewRequest("echo", params.FromMap(map[string]any{"x": 5}))
	e := ForRequest(req, "api")
	if e.Name != CommandSent {
		t.Fatalf("Name = %q, want %q", e.Name, CommandSent)
	}
	v, ok := e.Params.Get(RequestKey)
	if !ok {
		t.Fatal("request param missing")
	}
	raw, ok := v.AsOpaque()
	if !ok {
		t.Fatalf("request param kind = %s, want opaque", v.Kind())
	}
	if got := raw.(command.Request); got.ID != req.ID {
		t.Fatalf("request ID = %q, want %q", got.ID, req.ID)
	}
}
