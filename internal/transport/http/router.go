package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/otp-auth-api/internal/application/otp"
	"github.com/otp-auth-api/internal/config"
	"github.com/otp-auth-api/internal/pkg/hash"
	"github.com/otp-auth-api/internal/transport/http/handler"
	appmiddleware "github.com/otp-auth-api/internal/transport/http/middleware"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// Per-IP limit on the public OTP endpoints: the configured budget per
	// minute, with the full budget available as burst.
	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 5
	}
	sensitiveRL := appmiddleware.NewRateLimiter(
		rate.Every(time.Minute/time.Duration(perMinute)), perMinute,
	)

	otpSvc := otp.NewService(otp.ServiceDeps{
		OTPRepo:  deps.OTPRepo,
		UserRepo: deps.UserRepo,
		Mailer:   deps.Mailer,
		Hasher:   hash.NewBcrypt(bcrypt.DefaultCost),
		Signer:   deps.JWTProvider,
		Policy: otp.Policy{
			Length:         cfg.OTPLength,
			Expiry:         cfg.OTPExpiry,
			ResendCooldown: cfg.OTPResendCooldown,
			MaxAttempts:    cfg.OTPMaxAttempts,
		},
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(otpSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/send-otp", authH.SendOTP)
		r.With(sensitiveRL.Limit).Post("/auth/verify-otp", authH.VerifyOTP)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/me", authH.Me)
			r.Post("/auth/logout", authH.Logout)
		})
	})

	return r
}
