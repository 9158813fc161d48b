package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/otp-auth-api/internal/domain"
	"github.com/otp-auth-api/internal/infrastructure/smtp"
	"github.com/otp-auth-api/internal/pkg/hash"
	"github.com/otp-auth-api/internal/pkg/id"
	pkgotp "github.com/otp-auth-api/internal/pkg/otp"
)

// Policy holds the configured OTP lifecycle parameters. Nothing here is
// hardcoded in the engine itself.
type Policy struct {
	Length         int
	Expiry         time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
}

type SendResult struct {
	Email             string
	ExpiresIn         int // seconds
	ResendAvailableIn int // seconds
}

type VerifyResult struct {
	AccessToken string
	User        *domain.User
}

// Service is the OTP lifecycle engine. It holds no mutable state of its own;
// every record it touches lives in the store, keyed by email.
type Service interface {
	Send(ctx context.Context, email string) (*SendResult, error)
	Verify(ctx context.Context, email, code string) (*VerifyResult, error)
	CurrentUser(ctx context.Context, email string) (*domain.User, error)
}

// OTPRepository is the store surface the engine needs for OTP records.
type OTPRepository interface {
	Get(ctx context.Context, email string) (*domain.OTPRecord, error)
	Put(ctx context.Context, rec *domain.OTPRecord) error
	Delete(ctx context.Context, email string) error
	// IncrementAttempts must be a server-side atomic add returning the new
	// counter value, never a read-modify-write.
	IncrementAttempts(ctx context.Context, email string) (int, error)
}

// UserRepository is the store surface the engine needs for user records.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Ensure(ctx context.Context, email, userID string, now time.Time) (*domain.User, error)
	MarkVerified(ctx context.Context, email string) error
}

// TokenSigner mints a bearer token for a verified identity.
type TokenSigner interface {
	Sign(email string, verified bool) (string, error)
}

type ServiceDeps struct {
	OTPRepo  OTPRepository
	UserRepo UserRepository
	Mailer   smtp.Mailer
	Hasher   hash.Hasher
	Signer   TokenSigner
	Policy   Policy
}

type service struct {
	otpRepo  OTPRepository
	userRepo UserRepository
	mailer   smtp.Mailer
	hasher   hash.Hasher
	signer   TokenSigner
	policy   Policy
}

func NewService(deps ServiceDeps) Service {
	return &service{
		otpRepo:  deps.OTPRepo,
		userRepo: deps.UserRepo,
		mailer:   deps.Mailer,
		hasher:   deps.Hasher,
		signer:   deps.Signer,
		policy:   deps.Policy,
	}
}

// Send issues a fresh OTP for the email. The cooldown check runs before any
// side effect, and the mailer runs before any persistence, so a rejected or
// failed send leaves the prior record untouched.
func (s *service) Send(ctx context.Context, email string) (*SendResult, error) {
	existing, err := s.otpRepo.Get(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if existing != nil && !existing.LastResendAt.IsZero() {
		if remaining := s.cooldownRemaining(existing.LastResendAt); remaining > 0 {
			return nil, &domain.CooldownError{Remaining: remaining}
		}
	}

	code, err := pkgotp.Generate(s.policy.Length)
	if err != nil {
		return nil, err
	}
	digest, err := s.hasher.Hash(code)
	if err != nil {
		return nil, fmt.Errorf("hash OTP: %w", err)
	}

	subject := "Your verification code"
	body := fmt.Sprintf(
		"Your verification code is %s. It expires in %d minutes.\n\nIf you didn't request this code, please ignore this email.",
		code, int(s.policy.Expiry.Minutes()),
	)
	if err := s.mailer.SendEmail(email, subject, body); err != nil {
		slog.Warn("OTP email delivery failed", "email", email, "err", err)
		return nil, fmt.Errorf("failed to send OTP email: %w", domain.ErrNotificationFailed)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.policy.Expiry)
	rec := &domain.OTPRecord{
		Email:        email,
		OTPHash:      digest,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
		Attempts:     0,
		LastResendAt: now,
		TTL:          expiresAt.Unix(),
	}
	if err := s.otpRepo.Put(ctx, rec); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.Ensure(ctx, email, id.New(), now); err != nil {
		return nil, err
	}

	return &SendResult{
		Email:             email,
		ExpiresIn:         int(expiresAt.Sub(now).Seconds()),
		ResendAvailableIn: int(s.policy.ResendCooldown.Seconds()),
	}, nil
}

// Verify checks the candidate code and, on success, flips the user to
// verified, destroys the record (one-time use) and mints a bearer token.
// The ceiling is enforced before the comparison: a record whose counter has
// already reached MaxAttempts is deleted by the next Verify that sees it.
func (s *service) Verify(ctx context.Context, email, code string) (*VerifyResult, error) {
	rec, err := s.otpRepo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no OTP found for this email, request a new one: %w", domain.ErrNotFound)
		}
		return nil, err
	}

	if time.Now().UTC().After(rec.ExpiresAt) {
		if err := s.otpRepo.Delete(ctx, email); err != nil {
			slog.Warn("failed to delete expired OTP record", "email", email, "err", err)
		}
		return nil, fmt.Errorf("OTP has expired, request a new one: %w", domain.ErrBadRequest)
	}

	if rec.Attempts >= s.policy.MaxAttempts {
		if err := s.otpRepo.Delete(ctx, email); err != nil {
			slog.Warn("failed to delete exhausted OTP record", "email", email, "err", err)
		}
		return nil, fmt.Errorf("too many failed attempts, request a new OTP: %w", domain.ErrTooManyRequests)
	}

	if !s.hasher.Verify(code, rec.OTPHash) {
		attempts, err := s.otpRepo.IncrementAttempts(ctx, email)
		if err != nil {
			return nil, err
		}
		remaining := s.policy.MaxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		return nil, &domain.InvalidCodeError{AttemptsRemaining: remaining}
	}

	if err := s.userRepo.MarkVerified(ctx, email); err != nil {
		return nil, err
	}
	// The record must be gone before a token exists; a code is never replayable.
	if err := s.otpRepo.Delete(ctx, email); err != nil {
		return nil, fmt.Errorf("delete used OTP record: %w", err)
	}

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	token, err := s.signer.Sign(u.Email, u.Verified)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{AccessToken: token, User: u}, nil
}

func (s *service) CurrentUser(ctx context.Context, email string) (*domain.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}

func (s *service) cooldownRemaining(lastResend time.Time) int {
	remaining := s.policy.ResendCooldown - time.Since(lastResend)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}
