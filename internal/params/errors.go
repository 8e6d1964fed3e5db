package params

import (
	"errors"
	"fmt"
)

// Code classifies a failed extraction.
type Code uint8

const (
	CodeMissingKey Code = iota + 1
	CodeTypeMismatch
)

func (c Code) String() string {
	switch c {
	case CodeMissingKey:
		return "missing_key"
	case CodeTypeMismatch:
		return "type_mismatch"
	default:
		return "unknown"
	}
}

var (
	ErrMissingKey   = errors.New("params: missing key")
	ErrTypeMismatch = errors.New("params: type mismatch")
)

// Error describes a failed typed extraction from a Bag.
type Error struct {
	Code Code
	Key  string
	Want Kind
	Got  Kind
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeMissingKey:
		return fmt.Sprintf("params: missing key %q", e.Key)
	case CodeTypeMismatch:
		if e.Key == "" {
			return fmt.Sprintf("params: expected %s, got %s", e.Want, e.Got)
		}
		return fmt.Sprintf("params: key %q: expected %s, got %s", e.Key, e.Want, e.Got)
	default:
		return "params: invalid parameter"
	}
}

// Unwrap lets callers match with errors.Is(err, ErrMissingKey).
func (e *Error) Unwrap() error {
	switch e.Code {
	case CodeMissingKey:
		return ErrMissingKey
	case CodeTypeMismatch:
		return ErrTypeMismatch
	default:
		return nil
	}
}

func mismatch(key string, want Kind, got Value) error {
	return &Error{Code: CodeTypeMismatch, Key: key, Want: want, Got: got.Kind()}
}
