package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/storefront/credential-service/internal/api/middleware"
	"github.com/storefront/credential-service/internal/core/domain"
)

// ctxAccountID extracts the account injected by the Authenticate middleware.
// An empty value means the route was mounted without it; reject with 401.
func ctxAccountID(c echo.Context) (string, error) {
	id := middleware.AccountID(c)
	if id == "" {
		return "", domain.NewError(domain.KindUnauthenticated, "missing authentication claims")
	}
	return id, nil
}
