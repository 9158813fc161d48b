package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/otp-auth-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Email   string `json:"email,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OTPEnvelope wraps a successful send-otp response.
type OTPEnvelope struct {
	Message           string `json:"message"`
	Email             string `json:"email"`
	ExpiresInSeconds  int    `json:"expires_in_seconds"`
	ResendAvailableIn int    `json:"resend_available_in"`
}

// TokenEnvelope wraps a successful verify-otp response.
type TokenEnvelope struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

// ErrorEnvelope carries failure details. AttemptsRemaining is a pointer so
// that a legitimate zero survives serialization.
type ErrorEnvelope struct {
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
	AttemptsRemaining *int   `json:"attempts_remaining,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: msg})
}

// httpError maps engine errors to HTTP status codes and payloads. Unknown
// errors become 503 so infrastructure detail never leaks to the caller.
func httpError(w http.ResponseWriter, err error) {
	var cooldown *domain.CooldownError
	if errors.As(err, &cooldown) {
		writeJSON(w, http.StatusTooManyRequests, ErrorEnvelope{
			Error:             cooldown.Error(),
			RetryAfterSeconds: cooldown.Remaining,
		})
		return
	}
	var invalid *domain.InvalidCodeError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusBadRequest, ErrorEnvelope{
			Error:             invalid.Error(),
			AttemptsRemaining: &invalid.AttemptsRemaining,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrTooManyRequests):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotificationFailed):
		writeError(w, http.StatusInternalServerError, "failed to send OTP email, please try again")
	default:
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	}
}
