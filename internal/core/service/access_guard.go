package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/storefront/credential-service/internal/core/domain"
	"github.com/storefront/credential-service/internal/core/ports"
)

// RoleCache abstracts the short-lived account role cache (Redis).
// A miss is reported as ("", false, nil).
type RoleCache interface {
	Get(ctx context.Context, accountID string) (string, bool, error)
	Set(ctx context.Context, accountID, role string) error
}

type accessGuard struct {
	tokens ports.TokenCodec
	store  ports.CredentialStore
	roles  RoleCache
	log    zerolog.Logger
}

// NewAccessGuard returns an AccessGuard. roles may be nil, in which case every
// Authorize call reads the store.
func NewAccessGuard(tokens ports.TokenCodec, store ports.CredentialStore, roles RoleCache, log zerolog.Logger) ports.AccessGuard {
	return &accessGuard{
		tokens: tokens,
		store:  store,
		roles:  roles,
		log:    log.With().Str("component", "access_guard").Logger(),
	}
}

// Authenticate verifies a session token. Every failure is Unauthenticated;
// the specific cause (expired, malformed) stays reachable via errors.Is.
func (g *accessGuard) Authenticate(_ context.Context, token string) (*ports.Principal, error) {
	if token == "" {
		return nil, domain.NewError(domain.KindUnauthenticated, "please login to access this resource")
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return nil, err
		}
		return nil, domain.WrapError(domain.KindUnauthenticated, domain.PublicMessage(err), err)
	}

	return &ports.Principal{AccountID: claims.AccountID, Role: claims.Role}, nil
}

// Authorize checks that the account currently holds requiredRole. The role is
// read from the cache when present, otherwise from the store.
func (g *accessGuard) Authorize(ctx context.Context, accountID, requiredRole string) error {
	if domain.ValidateRole(requiredRole) != nil || accountID == "" {
		return domain.ErrForbidden
	}

	role, err := g.roleOf(ctx, accountID)
	if err != nil {
		return err
	}
	if role != requiredRole {
		g.log.Info().Str("account_id", accountID).Str("role", role).Str("required", requiredRole).Msg("access denied")
		return domain.NewError(domain.KindForbidden, "role "+role+" is not allowed to access this resource")
	}
	return nil
}

func (g *accessGuard) roleOf(ctx context.Context, accountID string) (string, error) {
	if g.roles != nil {
		role, ok, err := g.roles.Get(ctx, accountID)
		if err != nil {
			g.log.Warn().Err(err).Str("account_id", accountID).Msg("role cache read failed, falling back to store")
		} else if ok {
			return role, nil
		}
	}

	account, err := g.store.FindByID(ctx, accountID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "", domain.ErrForbidden
	case err != nil:
		g.log.Error().Err(err).Str("account_id", accountID).Msg("role lookup failed")
		return "", domain.WrapError(domain.KindStorage, domain.ErrStorage.Message, err)
	}

	if g.roles != nil {
		if err := g.roles.Set(ctx, accountID, account.Role); err != nil {
			g.log.Warn().Err(err).Str("account_id", accountID).Msg("failed to cache role")
		}
	}
	return account.Role, nil
}
