package domain

import "time"

// OTPRecord is the single live one-time passcode for an email address.
// PK: email. A new send replaces the record wholesale; only Verify mutates
// it in place (attempt increments) or deletes it (terminal outcomes).
// TTL is a Unix timestamp mirror of ExpiresAt used for DynamoDB expiry,
// a safety net behind the engine's own expiry check.
type OTPRecord struct {
	Email        string    `json:"email" dynamodbav:"email"`
	OTPHash      string    `json:"-" dynamodbav:"otp_hash"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt    time.Time `json:"expires_at" dynamodbav:"expires_at"`
	Attempts     int       `json:"attempts" dynamodbav:"attempts"`
	LastResendAt time.Time `json:"last_resend_at" dynamodbav:"last_resend_at"`
	TTL          int64     `json:"-" dynamodbav:"ttl"`
}
