package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattjoyce/frontctl/internal/params"
)

var (
	ErrCommandNotFound  = errors.New("command not found")
	ErrDuplicateCommand = errors.New("command already registered")
	ErrEmptyName        = errors.New("command name is empty")
	ErrNilHandler       = errors.New("command handler is nil")
	ErrRegistryFrozen   = errors.New("command registry is frozen")
)

// Error is a classified failure returned by a handler.
type Error struct {
	Kind    Kind
	Subkind Subkind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Subkind != SubkindNone {
		msg = e.Subkind.Message()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// DomainError builds a KindDomain failure.
func DomainError(sub Subkind, format string, args ...any) *Error {
	return &Error{Kind: KindDomain, Subkind: sub, Message: fmt.Sprintf(format, args...)}
}

// Failure is the data form of a classified error, carried by a Response.
type Failure struct {
	Kind    Kind    `json:"kind"`
	Subkind Subkind `json:"subkind,omitempty"`
	Message string  `json:"message"`
}

// Classify converts any error returned from a handler into a Failure.
// The switch is exhaustive over the recognised shapes; everything else is
// KindUnknown.
func Classify(err error) Failure {
	var (
		cerr *Error
		perr *params.Error
	)
	switch {
	case err == nil:
		return Failure{Kind: KindNone}
	case errors.As(err, &cerr):
		switch cerr.Kind {
		case KindNone, KindMalformedEvent:
			// Neither describes a command that ran and failed.
			return Failure{Kind: KindUnknown, Message: cerr.Error()}
		}
		return Failure{Kind: cerr.Kind, Subkind: cerr.Subkind, Message: cerr.Error()}
	case errors.As(err, &perr):
		sub := SubkindMissingKey
		if perr.Code == params.CodeTypeMismatch {
			sub = SubkindTypeMismatch
		}
		return Failure{Kind: KindDomain, Subkind: sub, Message: perr.Error()}
	case errors.Is(err, ErrCommandNotFound):
		return Failure{Kind: KindCommandNotFound, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return Failure{Kind: KindTimeout, Message: err.Error()}
	default:
		return Failure{Kind: KindUnknown, Message: err.Error()}
	}
}
