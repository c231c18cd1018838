package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"time"

	"github.com/storefront/credential-service/internal/core/domain"
	"github.com/storefront/credential-service/internal/core/ports"
)

// Reset ticket parameters.
const (
	ResetSecretBytes   = 20 // 160 bits, 40 hex chars
	DefaultResetWindow = 15 * time.Minute
)

// ResetIssuer implements ports.ResetTokenIssuer.
type ResetIssuer struct {
	window time.Duration
	now    func() time.Time
	random io.Reader
}

// ResetOption customises a ResetIssuer.
type ResetOption func(*ResetIssuer)

// WithResetClock overrides the time source.
func WithResetClock(now func() time.Time) ResetOption {
	return func(r *ResetIssuer) { r.now = now }
}

// WithResetRandom overrides the entropy source.
func WithResetRandom(rd io.Reader) ResetOption {
	return func(r *ResetIssuer) { r.random = rd }
}

// NewResetIssuer returns an issuer whose tickets live for window
// (DefaultResetWindow when window is not positive).
func NewResetIssuer(window time.Duration, opts ...ResetOption) *ResetIssuer {
	if window <= 0 {
		window = DefaultResetWindow
	}
	r := &ResetIssuer{window: window, now: time.Now, random: rand.Reader}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate creates a random secret, its digest and its expiry.
func (r *ResetIssuer) Generate() (ports.ResetTicket, error) {
	raw := make([]byte, ResetSecretBytes)
	if _, err := io.ReadFull(r.random, raw); err != nil {
		return ports.ResetTicket{}, domain.WrapError(domain.KindInternal, "could not generate reset token", err)
	}
	secret := hex.EncodeToString(raw)
	return ports.ResetTicket{
		Secret:    secret,
		Digest:    r.Digest(secret),
		ExpiresAt: r.now().Add(r.window),
	}, nil
}

// Digest is the deterministic SHA-256 hex digest of secret.
func (r *ResetIssuer) Digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Validate reports whether candidate hashes to digest and the ticket has not
// expired. The digest comparison runs in constant time.
func (r *ResetIssuer) Validate(candidate, digest string, expiresAt time.Time) bool {
	if candidate == "" || digest == "" {
		return false
	}
	match := subtle.ConstantTimeCompare([]byte(r.Digest(candidate)), []byte(digest)) == 1
	return match && r.now().Before(expiresAt)
}
