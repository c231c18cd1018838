package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/storefront/credential-service/internal/core/domain"
	"github.com/storefront/credential-service/internal/core/ports"
)

// RequireRole lets the request through only when the authenticated account
// currently holds role. It must run after Authenticate.
func RequireRole(guard ports.AccessGuard, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			accountID := AccountID(c)
			if accountID == "" {
				return domain.NewError(domain.KindUnauthenticated, "please login to access this resource")
			}
			if err := guard.Authorize(c.Request().Context(), accountID, role); err != nil {
				return err
			}
			return next(c)
		}
	}
}
