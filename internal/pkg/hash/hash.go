package hash

import "golang.org/x/crypto/bcrypt"

// Hasher hashes short secrets for storage and verifies candidates against
// stored digests. Digests self-describe their parameters so the cost can be
// raised without invalidating existing records.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Bcrypt implements Hasher using bcrypt. Comparison is constant-time.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt-based hasher. cost controls the work factor;
// values below bcrypt.MinCost fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (h *Bcrypt) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *Bcrypt) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
