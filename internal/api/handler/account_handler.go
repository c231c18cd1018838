package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/credential-service/internal/core/domain"
	"github.com/storefront/credential-service/internal/core/ports"
)

type AccountHandler struct {
	authService ports.AuthService
}

func NewAccountHandler(authService ports.AuthService) *AccountHandler {
	return &AccountHandler{authService: authService}
}

type accountResponse struct {
	Success bool            `json:"success"`
	User    *domain.Account `json:"user"`
}

// Me returns the logged-in account.
//
// @Summary      Current account
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}
	account, err := h.authService.GetAccount(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{Success: true, User: account})
}

// Get returns any account. Mounted behind the admin role check.
//
// @Summary      Get an account by id
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "Account id"
// @Success      200     {object}  accountResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /user/{userId} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	account, err := h.authService.GetAccount(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{Success: true, User: account})
}
