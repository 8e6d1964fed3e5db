package dispatch

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/params"
	"github.com/mattjoyce/frontctl/internal/queue"
)

// unpack extracts the command request an event carries. The request is
// either a command.Request held opaquely (in-process producers) or a map
// with a "name" (or "command") string, optional "params" map and optional
// "id" (producers that only speak JSON).
func unpack(ev queue.Event) (command.Request, error) {
	v, ok := ev.Params.Get(queue.RequestKey)
	if !ok {
		return command.Request{}, ErrMissingRequest
	}

	var req command.Request
	switch v.Kind() {
	case params.KindOpaque:
		raw, _ := v.AsOpaque()
		switch r := raw.(type) {
		case command.Request:
			req = r
		case *command.Request:
			if r == nil {
				return command.Request{}, fmt.Errorf("%w: nil request", ErrInvalidRequest)
			}
			req = *r
		default:
			return command.Request{}, fmt.Errorf("%w: unexpected %T", ErrInvalidRequest, raw)
		}
	case params.KindMap:
		m, _ := v.AsMap()
		r, err := requestFromMap(m)
		if err != nil {
			return command.Request{}, err
		}
		req = r
	default:
		return command.Request{}, fmt.Errorf("%w: got %s", ErrInvalidRequest, v.Kind())
	}

	if err := req.Validate(); err != nil {
		return command.Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return req, nil
}

func requestFromMap(m params.Bag) (command.Request, error) {
	name, err := m.StringOr("name", "")
	if err != nil {
		return command.Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if name == "" {
		if name, err = m.StringOr("command", ""); err != nil {
			return command.Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	id, err := m.StringOr("id", "")
	if err != nil {
		return command.Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var p params.Bag
	if m.Has("params") {
		if p, err = m.Map("params"); err != nil {
			return command.Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	return command.Request{ID: id, Name: name, Params: p}, nil
}
