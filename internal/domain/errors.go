package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
	ErrUnavailable     = errors.New("service unavailable")

	// ErrNotificationFailed means the OTP email could not be delivered.
	// No state was persisted; the caller may simply retry.
	ErrNotificationFailed = errors.New("notification failed")
)

// CooldownError is returned when a new OTP is requested before the resend
// cooldown has elapsed. Retryable by the caller after Remaining.
type CooldownError struct {
	Remaining int // seconds
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new OTP", e.Remaining)
}

func (e *CooldownError) Unwrap() error { return ErrTooManyRequests }

// InvalidCodeError is returned when the submitted code does not match the
// stored hash. The record survives until AttemptsRemaining is exhausted.
type InvalidCodeError struct {
	AttemptsRemaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid OTP, %d attempts remaining", e.AttemptsRemaining)
}

func (e *InvalidCodeError) Unwrap() error { return ErrUnauthorized }
