package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrInvalid     = errors.New("invalid request")
	ErrRejected    = errors.New("rejected by venue")
	ErrLockHeld    = errors.New("lock already held")
	ErrContextDone = errors.New("context cancelled")
)

// FailureKind classifies a trade failure. Every failure the lifecycle manager
// can produce carries exactly one kind, so callers can branch on it without
// string matching.
type FailureKind string

const (
	FailureValidation   FailureKind = "validation"
	FailureLockConflict FailureKind = "lock_conflict"
	FailureDuplicate    FailureKind = "duplicate_position"
	FailureCapacity     FailureKind = "capacity_exceeded"
	FailureSnapshot     FailureKind = "snapshot_unavailable"
	FailureRisk         FailureKind = "risk_rejected"
	FailureExecution    FailureKind = "execution_failed"
	FailureNotFound     FailureKind = "position_not_found"
)

// TradeError is the typed failure value returned by Enter and Exit. Reasons
// holds every violated condition for risk rejections; Err holds the underlying
// cause for external-call failures.
type TradeError struct {
	Kind    FailureKind
	Reasons []string
	Err     error
}

func (e *TradeError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if len(e.Reasons) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Reasons, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// NewTradeError builds a TradeError of the given kind wrapping cause.
func NewTradeError(kind FailureKind, cause error, reasons ...string) *TradeError {
	return &TradeError{Kind: kind, Reasons: reasons, Err: cause}
}

// IsKind reports whether err is (or wraps) a TradeError of the given kind.
func IsKind(err error, kind FailureKind) bool {
	var te *TradeError
	return errors.As(err, &te) && te.Kind == kind
}
