package ports

import (
	"context"

	"github.com/storefront/credential-service/internal/core/domain"
)

// CredentialStore persists account records. Implementations guarantee that a
// single Create or Update is atomic; nothing spans more than one account.
//
// Lookups return domain.ErrNotFound when no record matches. Create returns
// domain.ErrDuplicateIdentity when the email or ID is already taken. Any
// other error is treated as a transient storage failure.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// FindByResetHash returns the account whose pending reset ticket has the
	// given digest, regardless of its expiry.
	FindByResetHash(ctx context.Context, hash string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, id string, patch domain.AccountPatch) error
}
