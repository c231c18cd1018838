package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/credential-service/internal/api/metrics"
	"github.com/storefront/credential-service/internal/api/middleware"
	"github.com/storefront/credential-service/internal/core/domain"
	"github.com/storefront/credential-service/internal/core/ports"
)

// ResetPath is where reset links point, relative to the API base.
const ResetPath = "/password/reset"

type AuthHandler struct {
	authService  ports.AuthService
	secureCookie bool
}

// NewAuthHandler returns the handler for the authentication routes.
func NewAuthHandler(authService ports.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

type addressRequest struct {
	Address  string `json:"address"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
	Province string `json:"province"`
	Country  string `json:"country"`
}

type registerRequest struct {
	Email       string         `json:"email" validate:"required"`
	Password    string         `json:"password" validate:"required"`
	FullName    string         `json:"full_name"`
	Phone       string         `json:"phone_number"`
	CompanyName string         `json:"company_name"`
	IsBusiness  bool           `json:"is_business"`
	Address     addressRequest `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type updatePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type sessionResponse struct {
	Success   bool            `json:"success"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	ExpiresIn int64           `json:"expires_in"`
	User      *domain.Account `json:"user"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
}

// Register creates a new account and opens a session for it.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	defer observe("register", time.Now())

	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return countFailure("register", err)
	}

	sess, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		IsBusiness:  req.IsBusiness,
		Address: domain.Address{
			Line1:    req.Address.Address,
			Line2:    req.Address.Address2,
			City:     req.Address.City,
			Zip:      req.Address.Zip,
			Province: req.Address.Province,
			Country:  req.Address.Country,
		},
	})
	if err != nil {
		return countFailure("register", err)
	}

	countSuccess("register")
	return h.sendSession(c, http.StatusCreated, sess)
}

// Login authenticates with email and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	defer observe("login", time.Now())

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return countFailure("login", invalidPayload(err))
	}
	if req.Email == "" || req.Password == "" {
		return countFailure("login", domain.NewError(domain.KindValidationFailed, "please enter email and password"))
	}

	sess, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return countFailure("login", err)
	}

	countSuccess("login")
	return h.sendSession(c, http.StatusOK, sess)
}

// Logout clears the session cookie. Bearer tokens stay valid until they
// expire; the client is expected to discard them.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.authService.Logout(c.Request().Context(), middleware.AccountID(c))
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	countSuccess("logout")
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Logged Out"})
}

// ForgotPassword mails a password reset link.
//
// @Summary      Request a password reset email
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /password/forgot [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	defer observe("password_forgot", time.Now())

	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return countFailure("password_forgot", err)
	}

	err := h.authService.RequestPasswordReset(c.Request().Context(), ports.PasswordResetRequest{Email: req.Email})
	if err != nil {
		return countFailure("password_forgot", err)
	}

	countSuccess("password_forgot")
	return c.JSON(http.StatusOK, messageResponse{
		Success: true,
		Message: "Email sent to " + domain.NormalizeEmail(req.Email) + " successfully",
	})
}

// ResetPassword consumes a reset token and sets a new password.
//
// @Summary      Reset password with an emailed token
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        token  path      string                true  "Reset token from the email"
// @Param        body   body      resetPasswordRequest  true  "New password and confirmation"
// @Success      200    {object}  sessionResponse
// @Failure      400    {object}  errorResponse
// @Router       /password/reset/{token} [put]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	defer observe("password_reset", time.Now())

	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return countFailure("password_reset", err)
	}

	sess, err := h.authService.CompletePasswordReset(c.Request().Context(), ports.CompleteResetInput{
		Secret:          c.Param("token"),
		NewPassword:     req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return countFailure("password_reset", err)
	}

	countSuccess("password_reset")
	return h.sendSession(c, http.StatusOK, sess)
}

// UpdatePassword changes the password of the logged-in account.
//
// @Summary      Change password
// @Tags         password
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updatePasswordRequest  true  "Old, new and confirmed password"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /password/update [put]
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	defer observe("password_update", time.Now())

	accountID, err := ctxAccountID(c)
	if err != nil {
		return countFailure("password_update", err)
	}

	var req updatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return countFailure("password_update", err)
	}

	sess, err := h.authService.ChangePassword(c.Request().Context(), accountID, ports.ChangePasswordInput{
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return countFailure("password_update", err)
	}

	countSuccess("password_update")
	return h.sendSession(c, http.StatusOK, sess)
}

func (h *AuthHandler) sendSession(c echo.Context, status int, sess *ports.Session) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(status, sessionResponse{
		Success:   true,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		ExpiresIn: int64(sess.TTL / time.Second),
		User:      sess.Account,
	})
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return invalidPayload(err)
	}
	return c.Validate(req)
}

func invalidPayload(err error) error {
	return domain.WrapError(domain.KindValidationFailed, "invalid payload", err)
}

func observe(op string, start time.Time) {
	metrics.AuthOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func countSuccess(op string) {
	metrics.AuthOperationsTotal.WithLabelValues(op, "success").Inc()
}

func countFailure(op string, err error) error {
	metrics.AuthOperationsTotal.WithLabelValues(op, string(domain.KindOf(err))).Inc()
	return err
}
