package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/otp-auth-api/internal/application/otp"
	"github.com/otp-auth-api/internal/config"
	"github.com/otp-auth-api/internal/domain"
	jwtinfra "github.com/otp-auth-api/internal/infrastructure/jwt"
	"github.com/otp-auth-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockOTPSvc struct{ mock.Mock }

func (m *mockOTPSvc) Send(ctx context.Context, email string) (*otp.SendResult, error) {
	args := m.Called(ctx, email)
	if r, _ := args.Get(0).(*otp.SendResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOTPSvc) Verify(ctx context.Context, email, code string) (*otp.VerifyResult, error) {
	args := m.Called(ctx, email, code)
	if r, _ := args.Get(0).(*otp.VerifyResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOTPSvc) CurrentUser(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         time.Hour,
	})
	require.NoError(t, err)
	return p
}

func newAuthRouter(svc otp.Service, provider *jwtinfra.Provider) http.Handler {
	h := NewAuthHandler(svc)
	r := chi.NewRouter()
	r.Post("/auth/send-otp", h.SendOTP)
	r.Post("/auth/verify-otp", h.VerifyOTP)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(provider))
		r.Get("/auth/me", h.Me)
		r.Post("/auth/logout", h.Logout)
	})
	return r
}

func postJSON(t *testing.T, router http.Handler, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

// --- SendOTP ---

func TestSendOTP_HappyPath_NormalizesEmail(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Send", mock.Anything, "a@x.com").Return(&otp.SendResult{
		Email: "a@x.com", ExpiresIn: 300, ResendAvailableIn: 60,
	}, nil)

	router := newAuthRouter(svc, newTestJWTProvider(t))
	rec := postJSON(t, router, "/auth/send-otp", map[string]string{"email": "  A@X.com "})

	require.Equal(t, http.StatusOK, rec.Code)
	var env OTPEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "a@x.com", env.Email)
	assert.Equal(t, 300, env.ExpiresInSeconds)
	assert.Equal(t, 60, env.ResendAvailableIn)
	svc.AssertExpectations(t)
}

func TestSendOTP_InvalidBody(t *testing.T) {
	router := newAuthRouter(&mockOTPSvc{}, newTestJWTProvider(t))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/send-otp", bytes.NewReader([]byte("{not json")))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendOTP_MalformedEmail(t *testing.T) {
	svc := &mockOTPSvc{}
	router := newAuthRouter(svc, newTestJWTProvider(t))
	rec := postJSON(t, router, "/auth/send-otp", map[string]string{"email": "not-an-email"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	svc.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendOTP_CooldownActive(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Send", mock.Anything, "a@x.com").Return(nil, &domain.CooldownError{Remaining: 42})

	router := newAuthRouter(svc, newTestJWTProvider(t))
	rec := postJSON(t, router, "/auth/send-otp", map[string]string{"email": "a@x.com"})

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 42, env.RetryAfterSeconds)
}

func TestSendOTP_NotificationFailed(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Send", mock.Anything, "a@x.com").Return(nil, domain.ErrNotificationFailed)

	router := newAuthRouter(svc, newTestJWTProvider(t))
	rec := postJSON(t, router, "/auth/send-otp", map[string]string{"email": "a@x.com"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// --- VerifyOTP ---

func TestVerifyOTP_HappyPath(t *testing.T) {
	svc := &mockOTPSvc{}
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.On("Verify", mock.Anything, "a@x.com", "123456").Return(&otp.VerifyResult{
		AccessToken: "bearer-token",
		User:        &domain.User{UserID: "u1", Email: "a@x.com", Verified: true, CreatedAt: created},
	}, nil)

	router := newAuthRouter(svc, newTestJWTProvider(t))
	rec := postJSON(t, router, "/auth/verify-otp", map[string]string{"email": "a@x.com", "otp": "123456"})

	require.Equal(t, http.StatusOK, rec.Code)
	var env TokenEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "bearer-token", env.AccessToken)
	assert.Equal(t, "bearer", env.TokenType)
	require.NotNil(t, env.User)
	assert.Equal(t, "u1", env.User.UserID)
	assert.True(t, env.User.Verified)
}

func TestVerifyOTP_NonNumericCode(t *testing.T) {
	svc := &mockOTPSvc{}
	router := newAuthRouter(svc, newTestJWTProvider(t))
	rec := postJSON(t, router, "/auth/verify-otp", map[string]string{"email": "a@x.com", "otp": "abc123"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	svc.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyOTP_NotFound(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Verify", mock.Anything, "never-sent@x.com", "123456").Return(nil, domain.ErrNotFound)

	router := newAuthRouter(svc, newTestJWTProvider(t))
	rec := postJSON(t, router, "/auth/verify-otp", map[string]string{"email": "never-sent@x.com", "otp": "123456"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyOTP_InvalidCode_ReportsAttemptsRemaining(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Verify", mock.Anything, "a@x.com", "000000").Return(nil, &domain.InvalidCodeError{AttemptsRemaining: 0})

	router := newAuthRouter(svc, newTestJWTProvider(t))
	rec := postJSON(t, router, "/auth/verify-otp", map[string]string{"email": "a@x.com", "otp": "000000"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.AttemptsRemaining)
	assert.Equal(t, 0, *env.AttemptsRemaining)
}

func TestVerifyOTP_AttemptsExhausted(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Verify", mock.Anything, "a@x.com", "123456").Return(nil, domain.ErrTooManyRequests)

	router := newAuthRouter(svc, newTestJWTProvider(t))
	rec := postJSON(t, router, "/auth/verify-otp", map[string]string{"email": "a@x.com", "otp": "123456"})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

// --- Me / Logout ---

func TestMe_ReturnsCurrentUser(t *testing.T) {
	provider := newTestJWTProvider(t)
	svc := &mockOTPSvc{}
	svc.On("CurrentUser", mock.Anything, "a@x.com").Return(&domain.User{
		UserID: "u1", Email: "a@x.com", Verified: true,
	}, nil)

	token, err := provider.Sign("a@x.com", true)
	require.NoError(t, err)

	router := newAuthRouter(svc, provider)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var u domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "u1", u.UserID)
	assert.True(t, u.Verified)
}

func TestMe_WithoutToken(t *testing.T) {
	router := newAuthRouter(&mockOTPSvc{}, newTestJWTProvider(t))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	provider := newTestJWTProvider(t)
	token, err := provider.Sign("a@x.com", true)
	require.NoError(t, err)

	router := newAuthRouter(&mockOTPSvc{}, provider)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env MessageEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "a@x.com", env.Email)
}
