package ports

import (
	"context"
	"time"

	"github.com/storefront/credential-service/internal/core/domain"
)

// RegisterInput carries the fields accepted at sign-up. Only Email and
// Password are mandatory.
type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	Phone       string
	CompanyName string
	IsBusiness  bool
	Address     domain.Address
}

// PasswordResetRequest asks for a reset ticket to be mailed to Email.
type PasswordResetRequest struct {
	Email string
}

// CompleteResetInput consumes a reset ticket.
type CompleteResetInput struct {
	Secret          string
	NewPassword     string
	ConfirmPassword string
}

// ChangePasswordInput is supplied by an authenticated caller.
type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// Session is what a successful authentication hands back to the caller.
type Session struct {
	Token     string
	ExpiresAt time.Time
	TTL       time.Duration
	Account   *domain.Account
}

// AuthService is the credential lifecycle use-case boundary.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, accountID string)
	RequestPasswordReset(ctx context.Context, in PasswordResetRequest) error
	CompletePasswordReset(ctx context.Context, in CompleteResetInput) (*Session, error)
	ChangePassword(ctx context.Context, accountID string, in ChangePasswordInput) (*Session, error)
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
}

// Principal identifies the caller behind a verified session token.
type Principal struct {
	AccountID string
	Role      string
}

// AccessGuard gates protected operations.
type AccessGuard interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
	Authorize(ctx context.Context, accountID, requiredRole string) error
}
