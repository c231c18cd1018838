package ports

import "time"

// PasswordHasher performs slow, salted one-way hashing of passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches digest. A malformed digest
	// is a mismatch, not an error.
	Verify(plaintext, digest string) bool
}

// SessionToken is an issued bearer credential.
type SessionToken struct {
	Value     string
	ExpiresAt time.Time
	TTL       time.Duration
}

// TokenClaims are the verified contents of a session token.
type TokenClaims struct {
	AccountID string
	Role      string
	ExpiresAt time.Time
}

// TokenCodec issues and verifies stateless signed session tokens.
type TokenCodec interface {
	Issue(accountID, role string) (SessionToken, error)
	Verify(token string) (*TokenClaims, error)
}

// ResetTicket is a freshly generated reset ticket. Secret goes to the account
// holder; only Digest and ExpiresAt are persisted.
type ResetTicket struct {
	Secret    string
	Digest    string
	ExpiresAt time.Time
}

// ResetTokenIssuer generates and validates password reset tickets.
type ResetTokenIssuer interface {
	Generate() (ResetTicket, error)
	Digest(secret string) string
	Validate(candidate, digest string, expiresAt time.Time) bool
}
