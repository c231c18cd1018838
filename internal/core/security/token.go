package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storefront/credential-service/internal/core/domain"
	"github.com/storefront/credential-service/internal/core/ports"
)

// DefaultTokenTTL applies when TokenConfig.TTL is not positive.
const DefaultTokenTTL = 24 * time.Hour

// TokenConfig is the process-wide signing configuration, loaded once at
// startup. Secret must never be logged.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

// Claims is the JWT payload of a session token. The account ID travels in
// the registered "sub" claim.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// JWTCodec implements ports.TokenCodec with HS256-signed JWTs.
type JWTCodec struct {
	cfg TokenConfig
	now func() time.Time
}

// TokenOption customises a JWTCodec.
type TokenOption func(*JWTCodec)

// WithTokenClock overrides the time source used for issuing and verifying.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(c *JWTCodec) { c.now = now }
}

// NewJWTCodec validates cfg and returns a codec.
func NewJWTCodec(cfg TokenConfig, opts ...TokenOption) (*JWTCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token signing secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	c := &JWTCodec{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for accountID that expires after the configured TTL.
func (c *JWTCodec) Issue(accountID, role string) (ports.SessionToken, error) {
	if accountID == "" {
		return ports.SessionToken{}, domain.NewError(domain.KindInternal, "cannot issue a token without an account id")
	}

	now := c.now()
	expiresAt := jwt.NewNumericDate(now.Add(c.cfg.TTL))
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: expiresAt,
			ID:        uuid.NewString(),
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.Secret)
	if err != nil {
		return ports.SessionToken{}, domain.WrapError(domain.KindInternal, "could not sign session token", err)
	}
	return ports.SessionToken{Value: signed, ExpiresAt: expiresAt.Time, TTL: c.cfg.TTL}, nil
}

// Verify checks signature, algorithm, issuer and expiry. Nothing from an
// unverified token is returned.
func (c *JWTCodec) Verify(token string) (*ports.TokenClaims, error) {
	if token == "" {
		return nil, domain.NewError(domain.KindTokenMalformed, "session token is missing")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.cfg.Issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.cfg.Secret, nil
	}, opts...)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, domain.NewError(domain.KindUnauthenticated, "invalid session token")
	}

	return &ports.TokenClaims{
		AccountID: claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domain.WrapError(domain.KindTokenMalformed, "session token is malformed", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.WrapError(domain.KindTokenExpired, "session token has expired", err)
	default:
		return domain.WrapError(domain.KindUnauthenticated, "invalid session token", err)
	}
}
