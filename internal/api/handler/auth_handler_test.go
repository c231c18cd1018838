package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/credential-service/internal/api/middleware"
	"github.com/storefront/credential-service/internal/core/domain"
	"github.com/storefront/credential-service/internal/core/ports"
)

type stubAuthService struct {
	registerFn       func(ctx context.Context, in ports.RegisterInput) (*ports.Session, error)
	loginFn          func(ctx context.Context, email, password string) (*ports.Session, error)
	requestResetFn   func(ctx context.Context, in ports.PasswordResetRequest) error
	completeResetFn  func(ctx context.Context, in ports.CompleteResetInput) (*ports.Session, error)
	changePasswordFn func(ctx context.Context, accountID string, in ports.ChangePasswordInput) (*ports.Session, error)
	getAccountFn     func(ctx context.Context, accountID string) (*domain.Account, error)
	loggedOut        []string
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(_ context.Context, accountID string) {
	s.loggedOut = append(s.loggedOut, accountID)
}

func (s *stubAuthService) RequestPasswordReset(ctx context.Context, in ports.PasswordResetRequest) error {
	return s.requestResetFn(ctx, in)
}

func (s *stubAuthService) CompletePasswordReset(ctx context.Context, in ports.CompleteResetInput) (*ports.Session, error) {
	return s.completeResetFn(ctx, in)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, accountID string, in ports.ChangePasswordInput) (*ports.Session, error) {
	return s.changePasswordFn(ctx, accountID, in)
}

func (s *stubAuthService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.getAccountFn(ctx, accountID)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func testSession(email string) *ports.Session {
	return &ports.Session{
		Token:     "signed.jwt.token",
		ExpiresAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		TTL:       24 * time.Hour,
		Account:   &domain.Account{ID: "acc-1", Email: email, Role: domain.RoleUser, PasswordHash: "$2a$10$hash"},
	}
}

func tokenCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.TokenCookie {
			return ck
		}
	}
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*ports.Session, error) {
			if in.Email != "a@x.com" || in.Password != "longenough1" || in.Address.City != "Lima" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return testSession(in.Email), nil
		},
	}
	h := NewAuthHandler(stub, false)

	req := jsonRequest(http.MethodPost, "/api/v1/register", `{"email":"a@x.com","password":"longenough1","address":{"city":"Lima"}}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "signed.jwt.token" {
		t.Fatalf("unexpected token: %v", resp["token"])
	}
	if resp["expires_in"] != float64(86400) {
		t.Fatalf("unexpected expires_in: %v", resp["expires_in"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("user missing in response")
	}
	if _, leaked := user["PasswordHash"]; leaked {
		t.Fatalf("password hash must not be serialised")
	}
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatalf("response leaks the password hash: %s", rec.Body.String())
	}

	ck := tokenCookie(rec)
	if ck == nil || ck.Value != "signed.jwt.token" || !ck.HttpOnly {
		t.Fatalf("expected http-only token cookie, got %+v", ck)
	}
}

func TestAuthHandler_Register_MissingFields(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, false)

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/register", `{"email":""}`), httptest.NewRecorder())
	err := h.Register(c)
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "email is required") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.Session, error) {
			return nil, domain.ErrDuplicateIdentity
		},
	}
	h := NewAuthHandler(stub, false)

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/register", `{"email":"a@x.com","password":"longenough1"}`), httptest.NewRecorder())
	if err := h.Register(c); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (*ports.Session, error) {
			if password != "s3cretpass" {
				return nil, domain.ErrInvalidCredentials
			}
			return testSession(email), nil
		},
	}
	h := NewAuthHandler(stub, true)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/login", `{"email":"a@x.com","password":"s3cretpass"}`), rec)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ck := tokenCookie(rec); ck == nil || !ck.Secure {
		t.Fatalf("expected secure cookie, got %+v", ck)
	}

	c = e.NewContext(jsonRequest(http.MethodPost, "/api/v1/login", `{"email":"a@x.com","password":"wrong"}`), httptest.NewRecorder())
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	c = e.NewContext(jsonRequest(http.MethodPost, "/api/v1/login", `{"email":"a@x.com"}`), httptest.NewRecorder())
	if err := h.Login(c); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{}
	h := NewAuthHandler(stub, false)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/logout", nil), rec)
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Logged Out") {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
	ck := tokenCookie(rec)
	if ck == nil || ck.Value != "" || ck.MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %+v", ck)
	}
	if len(stub.loggedOut) != 1 {
		t.Fatalf("service logout not called")
	}
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	e := newTestEcho()
	var got ports.PasswordResetRequest
	stub := &stubAuthService{
		requestResetFn: func(_ context.Context, in ports.PasswordResetRequest) error {
			got = in
			return nil
		},
	}
	h := NewAuthHandler(stub, false)

	req := jsonRequest(http.MethodPost, "/api/v1/password/forgot", `{"email":"A@x.com"}`)
	req.Host = "shop.example"
	rec := httptest.NewRecorder()
	if err := h.ForgotPassword(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if got != (ports.PasswordResetRequest{Email: "A@x.com"}) {
		t.Fatalf("unexpected reset request: %+v", got)
	}
	if !strings.Contains(rec.Body.String(), "Email sent to a@x.com successfully") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_ForgotPassword_DeliveryFailed(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		requestResetFn: func(context.Context, ports.PasswordResetRequest) error {
			return domain.ErrDeliveryFailed
		},
	}
	h := NewAuthHandler(stub, false)

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/v1/password/forgot", `{"email":"a@x.com"}`), httptest.NewRecorder())
	if err := h.ForgotPassword(c); !errors.Is(err, domain.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		completeResetFn: func(_ context.Context, in ports.CompleteResetInput) (*ports.Session, error) {
			if in.Secret != "abc123" || in.NewPassword != "brandnewpass" || in.ConfirmPassword != "brandnewpass" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return testSession("a@x.com"), nil
		},
	}
	h := NewAuthHandler(stub, false)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/api/v1/password/reset/abc123", `{"password":"brandnewpass","confirmPassword":"brandnewpass"}`), rec)
	c.SetParamNames("token")
	c.SetParamValues("abc123")

	if err := h.ResetPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || tokenCookie(rec) == nil {
		t.Fatalf("expected session response, got %d", rec.Code)
	}
}

func TestAuthHandler_UpdatePassword_RequiresPrincipal(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, false)

	c := e.NewContext(jsonRequest(http.MethodPut, "/api/v1/password/update", `{}`), httptest.NewRecorder())
	if err := h.UpdatePassword(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthHandler_UpdatePassword(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		changePasswordFn: func(_ context.Context, accountID string, in ports.ChangePasswordInput) (*ports.Session, error) {
			if accountID != "acc-1" {
				t.Fatalf("unexpected account: %s", accountID)
			}
			if in.NewPassword != in.ConfirmPassword {
				return nil, domain.ErrPasswordConfirmationMismatch
			}
			return testSession("a@x.com"), nil
		},
	}
	h := NewAuthHandler(stub, false)

	c := e.NewContext(jsonRequest(http.MethodPut, "/api/v1/password/update",
		`{"oldPassword":"longenough1","newPassword":"brandnewpass","confirmPassword":"other"}`), httptest.NewRecorder())
	c.Set(middleware.ContextAccountID, "acc-1")
	if err := h.UpdatePassword(c); !errors.Is(err, domain.ErrPasswordConfirmationMismatch) {
		t.Fatalf("expected ErrPasswordConfirmationMismatch, got %v", err)
	}

	rec := httptest.NewRecorder()
	c = e.NewContext(jsonRequest(http.MethodPut, "/api/v1/password/update",
		`{"oldPassword":"longenough1","newPassword":"brandnewpass","confirmPassword":"brandnewpass"}`), rec)
	c.Set(middleware.ContextAccountID, "acc-1")
	if err := h.UpdatePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_Me(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		getAccountFn: func(_ context.Context, id string) (*domain.Account, error) {
			if id != "acc-1" {
				return nil, domain.ErrIdentityNotFound
			}
			return &domain.Account{ID: id, Email: "a@x.com", Role: domain.RoleUser}, nil
		},
	}
	h := NewAccountHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), rec)
	c.Set(middleware.ContextAccountID, "acc-1")
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"email":"a@x.com"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/user/missing", nil), httptest.NewRecorder())
	c.SetParamNames("userId")
	c.SetParamValues("missing")
	if err := h.Get(c); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}
