package domain

import "time"

// User is an account identified by its email address. It is created on the
// first OTP request for that address and outlives any individual OTP cycle.
type User struct {
	Email     string    `json:"email" dynamodbav:"email"`
	UserID    string    `json:"id" dynamodbav:"user_id"`
	Verified  bool      `json:"verified" dynamodbav:"verified"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"-" dynamodbav:"updated_at"`
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}
