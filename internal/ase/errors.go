package ase

import (
	"errors"
	"fmt"
)

// Kind classifies why a query did not produce a roster.
type Kind uint8

// Failure kinds surfaced by QueryPlayers. Decoder stop conditions are not failures.
const (
	KindUnknown Kind = iota
	KindTimeout
	KindNetwork
	KindShortResponse
	KindInvalidHeader
	KindGameMismatch
	KindTruncatedField
	KindMissingSentinel
)

var kindNames = [...]string{
	KindUnknown:         "unknown",
	KindTimeout:         "timeout",
	KindNetwork:         "network_error",
	KindShortResponse:   "short_response",
	KindInvalidHeader:   "invalid_header",
	KindGameMismatch:    "game_mismatch",
	KindTruncatedField:  "truncated_field",
	KindMissingSentinel: "missing_sentinel",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText lets kinds appear by name in JSON and log fields.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var (
	ErrTimeout         = errors.New("query timed out")
	ErrNetwork         = errors.New("network error")
	ErrShortResponse   = errors.New("response too short")
	ErrInvalidHeader   = errors.New("invalid response header")
	ErrGameMismatch    = errors.New("unexpected game identifier")
	ErrTruncatedField  = errors.New("truncated field")
	ErrMissingSentinel = errors.New("rules sentinel not found")
)

var kindSentinels = map[Kind]error{
	KindTimeout:         ErrTimeout,
	KindNetwork:         ErrNetwork,
	KindShortResponse:   ErrShortResponse,
	KindInvalidHeader:   ErrInvalidHeader,
	KindGameMismatch:    ErrGameMismatch,
	KindTruncatedField:  ErrTruncatedField,
	KindMissingSentinel: ErrMissingSentinel,
}

// Error is the single failure value returned for a query attempt.
// errors.Is matches it against the sentinel of its Kind and against the wrapped cause.
type Error struct {
	Err    error
	Stage  string
	Detail string
	Offset int
	Kind   Kind
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if s, ok := kindSentinels[e.Kind]; ok {
		msg = s.Error()
	}
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// KindOf extracts the failure kind from err, or KindUnknown when err did not come from this package.
func KindOf(err error) Kind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindUnknown
}

func fail(kind Kind, stage string, offset int, detail string) *Error {
	return &Error{Kind: kind, Stage: stage, Offset: offset, Detail: detail}
}
