package http

import (
	"github.com/otp-auth-api/internal/application/otp"
	jwtinfra "github.com/otp-auth-api/internal/infrastructure/jwt"
	"github.com/otp-auth-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
// The store fields use the engine's repository interfaces so tests can swap
// DynamoDB out without touching the router.
type Deps struct {
	UserRepo    otp.UserRepository
	OTPRepo     otp.OTPRepository
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
}
