package card

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error categories a channel operation can
// fail with.
type Kind int

const (
	KindParameter Kind = iota
	KindBufferConfig
	KindSuperpage
	KindQueueFull
	KindQueueEmpty
	KindState
	KindFirmwareInvariantViolation
	KindNoLinksEnabled
	KindUnsupportedCard
)

func (k Kind) String() string {
	switch k {
	case KindParameter:
		return "parameter error"
	case KindBufferConfig:
		return "buffer configuration error"
	case KindSuperpage:
		return "superpage error"
	case KindQueueFull:
		return "queue full"
	case KindQueueEmpty:
		return "queue empty"
	case KindState:
		return "state error"
	case KindFirmwareInvariantViolation:
		return "firmware invariant violation"
	case KindNoLinksEnabled:
		return "no links enabled"
	case KindUnsupportedCard:
		return "unsupported card"
	default:
		return fmt.Sprintf("unknown error kind (%d)", int(k))
	}
}

// Error is the one error type every fallible operation in pkg/card
// returns, mirroring the reference codebase's HailoError/Status pair:
// a Kind, a channel-identifying prefix, an optional offending numeric
// field, and an optional wrapped cause.
type Error struct {
	Kind     Kind
	Prefix   string // "card <id> channel <n>"
	Field    string
	Value    int64
	HasValue bool
	Cause    error
	Message  string
}

func (e *Error) Error() string {
	var b []byte
	if e.Prefix != "" {
		b = append(b, e.Prefix...)
		b = append(b, ": "...)
	}
	b = append(b, e.Kind.String()...)
	if e.Message != "" {
		b = append(b, ": "...)
		b = append(b, e.Message...)
	}
	if e.HasValue {
		b = append(b, fmt.Sprintf(" (%s=%d)", e.Field, e.Value)...)
	}
	if e.Cause != nil {
		b = append(b, fmt.Sprintf(": %v", e.Cause)...)
	}
	return string(b)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same Kind, so callers
// can write errors.Is(err, card.KindQueueFull.Sentinel()) or compare
// directly against another *Error carrying that Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// Sentinel returns a bare *Error of kind k, suitable as the target of
// errors.Is.
func (k Kind) Sentinel() *Error { return &Error{Kind: k} }

func newError(prefix string, kind Kind, message string) *Error {
	return &Error{Kind: kind, Prefix: prefix, Message: message}
}

func newFieldError(prefix string, kind Kind, message, field string, value int64) *Error {
	return &Error{Kind: kind, Prefix: prefix, Message: message, Field: field, Value: value, HasValue: true}
}

func wrapError(prefix string, kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Prefix: prefix, Message: message, Cause: cause}
}
