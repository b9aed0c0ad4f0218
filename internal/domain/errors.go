package domain

import (
	"errors"
	"fmt"
	"time"
)

// Operator registry violations. Never retried; translated directly into
// a notice to the requesting operator.
var (
	ErrAlreadyOperator     = errors.New("already an operator")
	ErrNotAnOperator       = errors.New("not an operator")
	ErrCannotRemoveSelf    = errors.New("cannot remove yourself")
	ErrCannotRemovePrimary = errors.New("cannot remove the primary operator")
)

// ErrDeliveryFailed wraps the last transport error once the delivery
// engine has exhausted its retry budget.
var ErrDeliveryFailed = errors.New("delivery failed")

// RateLimitedError is a transport rate-limit signal carrying the wait
// the transport mandates before the next attempt.
type RateLimitedError struct {
	Wait time.Duration
	Err  error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %v", e.Wait, e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// TransientError is a network or timeout failure worth retrying with
// backoff.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient transport error: %v", e.Err) }

func (e *TransientError) Unwrap() error { return e.Err }
