// Package commands holds the built-in command handlers frontctl registers at
// startup.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/params"
	"github.com/mattjoyce/frontctl/internal/state"
)

const defaultSleep = 100 * time.Millisecond

var ErrUnknownSubkind = errors.New("unknown failure subkind")

// RegisterBuiltins registers echo, ping, sleep and fail, plus state.get and
// state.set when store is non-nil.
func RegisterBuiltins(reg *command.Registry, store *state.Store) error {
	builtins := []struct {
		name string
		fn   command.HandlerFunc
		desc string
	}{
		{"echo", Echo, "return the request params unchanged"},
		{"ping", Ping, "liveness check"},
		{"sleep", Sleep, "wait for ms milliseconds, honouring the deadline"},
		{"fail", Fail, "fail with the failure subkind named by 'subkind'"},
	}
	for _, b := range builtins {
		if err := reg.RegisterFunc(b.name, b.fn, command.WithDescription(b.desc)); err != nil {
			return err
		}
	}

	if store == nil {
		return nil
	}
	st := &stateCommands{store: store}
	if err := reg.RegisterFunc("state.get", st.get, command.WithDescription("read a state namespace")); err != nil {
		return err
	}
	return reg.RegisterFunc("state.set", st.set, command.WithDescription("shallow-merge 'values' into a state namespace"))
}

func Echo(_ context.Context, p params.Bag) (params.Bag, error) {
	return p, nil
}

func Ping(_ context.Context, _ params.Bag) (params.Bag, error) {
	return params.FromMap(map[string]any{
		"pong": true,
		"at":   time.Now().UTC().Format(time.RFC3339Nano),
	}), nil
}

// Sleep waits for the "ms" parameter (default 100) or until ctx ends.
func Sleep(ctx context.Context, p params.Bag) (params.Bag, error) {
	ms, err := p.IntOr("ms", defaultSleep.Milliseconds())
	if err != nil {
		return params.Bag{}, err
	}
	if ms < 0 {
		return params.Bag{}, command.DomainError(command.SubkindTypeMismatch, "ms must not be negative, got %d", ms)
	}

	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return params.Bag{}, ctx.Err()
	case <-t.C:
		return params.FromMap(map[string]any{"slept_ms": ms}), nil
	}
}

// Fail always fails. "subkind" names the domain failure to raise; an
// optional "message" overrides the default text.
func Fail(_ context.Context, p params.Bag) (params.Bag, error) {
	name, err := p.String("subkind")
	if err != nil {
		return params.Bag{}, err
	}
	sub, ok := command.ParseSubkind(name)
	if !ok {
		return params.Bag{}, fmt.Errorf("%w: %q", ErrUnknownSubkind, name)
	}
	msg, err := p.StringOr("message", sub.Message())
	if err != nil {
		return params.Bag{}, err
	}
	return params.Bag{}, command.DomainError(sub, "%s", msg)
}

type stateCommands struct {
	store *state.Store
}

func (s *stateCommands) get(ctx context.Context, p params.Bag) (params.Bag, error) {
	ns, err := p.String("namespace")
	if err != nil {
		return params.Bag{}, err
	}
	raw, err := s.store.Get(ctx, ns)
	if err != nil {
		return params.Bag{}, err
	}
	return stateResult(ns, raw)
}

func (s *stateCommands) set(ctx context.Context, p params.Bag) (params.Bag, error) {
	ns, err := p.String("namespace")
	if err != nil {
		return params.Bag{}, err
	}
	values, err := p.Map("values")
	if err != nil {
		return params.Bag{}, err
	}
	updates, err := json.Marshal(values)
	if err != nil {
		return params.Bag{}, fmt.Errorf("encode values: %w", err)
	}
	merged, err := s.store.ShallowMerge(ctx, ns, updates)
	if err != nil {
		return params.Bag{}, err
	}
	return stateResult(ns, merged)
}

func stateResult(ns string, raw json.RawMessage) (params.Bag, error) {
	var st params.Bag
	if err := json.Unmarshal(raw, &st); err != nil {
		return params.Bag{}, fmt.Errorf("decode state: %w", err)
	}
	return params.Bag{}.With("namespace", ns).With("state", st), nil
}
