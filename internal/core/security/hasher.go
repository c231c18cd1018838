package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/credential-service/internal/core/domain"
)

// DefaultBcryptCost matches the cost the accounts were originally hashed with.
const DefaultBcryptCost = 10

// BcryptHasher implements ports.PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or DefaultBcryptCost when cost
// is outside bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash produces a salted digest. Two calls with the same input yield
// different digests.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", domain.NewError(domain.KindValidationFailed, "password is required")
	}
	if len(plaintext) > domain.MaxPasswordLength {
		return "", domain.NewError(domain.KindValidationFailed, "password must be at most 72 bytes")
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.WrapError(domain.KindValidationFailed, "password must be at most 72 bytes", err)
		}
		return "", domain.WrapError(domain.KindInternal, "could not hash password", err)
	}
	return string(digest), nil
}

// Verify recomputes the digest with the embedded salt and compares in
// constant time.
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	if plaintext == "" || digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
