package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generate returns a random numeric code of exactly length digits,
// zero-padded, drawn from crypto/rand.
func Generate(length int) (string, error) {
	if length <= 0 || length > 18 {
		return "", fmt.Errorf("invalid OTP length %d", length)
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate OTP: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
