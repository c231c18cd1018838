package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/storefront/credential-service/internal/api/metrics"
	"github.com/storefront/credential-service/internal/core/domain"
	"github.com/storefront/credential-service/internal/core/ports"
)

// Context keys set by Authenticate.
const (
	ContextAccountID = "account_id"
	ContextRole      = "role"
)

// TokenCookie is the cookie a browser session carries its token in.
const TokenCookie = "token"

// Authenticate verifies the session token taken from the Authorization
// header or, failing that, the token cookie, and injects the principal into
// the echo context. A request without a valid token is stopped here.
func Authenticate(guard ports.AccessGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := tokenFrom(c.Request())
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return err
			}

			principal, err := guard.Authenticate(c.Request().Context(), token)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues(verificationResult(err)).Inc()
				return err
			}
			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()

			c.Set(ContextAccountID, principal.AccountID)
			c.Set(ContextRole, principal.Role)
			return next(c)
		}
	}
}

// AccountID returns the authenticated account injected by Authenticate.
func AccountID(c echo.Context) string {
	id, _ := c.Get(ContextAccountID).(string)
	return id
}

func tokenFrom(r *http.Request) (string, error) {
	if h := r.Header.Get(echo.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", domain.NewError(domain.KindUnauthenticated, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if ck, err := r.Cookie(TokenCookie); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	return "", domain.NewError(domain.KindUnauthenticated, "please login to access this resource")
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
