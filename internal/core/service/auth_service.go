package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/storefront/credential-service/internal/core/domain"
	"github.com/storefront/credential-service/internal/core/ports"
)

const resetMailSubject = "Password Recovery"

// dummyPassword is hashed at construction and verified against when a login
// names an unknown account, so both failure paths cost one bcrypt comparison.
const dummyPassword = "credential-service-timing-equaliser"

// AuthService implements ports.AuthService.
type AuthService struct {
	store   ports.CredentialStore
	hasher  ports.PasswordHasher
	tokens  ports.TokenCodec
	resets  ports.ResetTokenIssuer
	mailer  ports.Mailer
	notices ports.NoticeSink
	log     zerolog.Logger
	now     func() time.Time

	resetURLBase string
	dummyDigest  string
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithResetURLBase sets the link prefix put in reset emails. It is required.
func WithResetURLBase(base string) Option {
	return func(s *AuthService) { s.resetURLBase = strings.TrimRight(base, "/") }
}

// WithNotices enables password-changed notifications.
func WithNotices(sink ports.NoticeSink) Option {
	return func(s *AuthService) { s.notices = sink }
}

// WithClock overrides the time source used for account timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService wires the authentication use cases.
func NewAuthService(
	store ports.CredentialStore,
	hasher ports.PasswordHasher,
	tokens ports.TokenCodec,
	resets ports.ResetTokenIssuer,
	mailer ports.Mailer,
	log zerolog.Logger,
	opts ...Option,
) (*AuthService, error) {
	switch {
	case store == nil:
		return nil, errors.New("auth service: credential store is required")
	case hasher == nil:
		return nil, errors.New("auth service: password hasher is required")
	case tokens == nil:
		return nil, errors.New("auth service: token codec is required")
	case resets == nil:
		return nil, errors.New("auth service: reset token issuer is required")
	case mailer == nil:
		return nil, errors.New("auth service: mailer is required")
	}

	s := &AuthService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		resets: resets,
		mailer: mailer,
		log:    log.With().Str("component", "auth_service").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resetURLBase == "" {
		return nil, errors.New("auth service: reset URL base is required")
	}

	digest, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("auth service: hash dummy password: %w", err)
	}
	s.dummyDigest = digest
	return s, nil
}

// Register creates an account with the default role and opens a session for it.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	email := domain.NormalizeEmail(in.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := domain.ValidateProfile(in.FullName, in.Phone); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	account := &domain.Account{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: digest,
		Role:         domain.RoleUser,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		CompanyName:  strings.TrimSpace(in.CompanyName),
		IsBusiness:   in.IsBusiness,
		Address:      in.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			s.log.Info().Str("email", email).Msg("registration rejected: duplicate identity")
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, s.storageError("register", err)
	}

	s.log.Info().Str("account_id", account.ID).Msg("account registered")
	return s.openSession(account)
}

// Login verifies email and password. Unknown accounts and wrong passwords
// fail identically with InvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.NewError(domain.KindValidationFailed, "please enter email and password")
	}

	account, err := s.store.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.hasher.Verify(password, s.dummyDigest)
		s.log.Info().Msg("login rejected: invalid credentials")
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, s.storageError("login", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		s.log.Info().Str("account_id", account.ID).Msg("login rejected: invalid credentials")
		return nil, domain.ErrInvalidCredentials
	}

	s.log.Info().Str("account_id", account.ID).Msg("login succeeded")
	return s.openSession(account)
}

// Logout has no server-side state to discard. Tokens are stateless and expire
// on their own; the transport clears whatever the caller holds.
func (s *AuthService) Logout(_ context.Context, accountID string) {
	s.log.Info().Str("account_id", accountID).Msg("logged out")
}

// RequestPasswordReset stores a fresh reset digest for the account and mails
// the secret. When delivery fails the digest is cleared again.
func (s *AuthService) RequestPasswordReset(ctx context.Context, in ports.PasswordResetRequest) error {
	email := domain.NormalizeEmail(in.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}

	account, err := s.store.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrIdentityNotFound
	case err != nil:
		return s.storageError("request password reset", err)
	}

	ticket, err := s.resets.Generate()
	if err != nil {
		return err
	}

	digest := &domain.ResetDigest{Hash: ticket.Digest, ExpiresAt: ticket.ExpiresAt.UTC()}
	if err := s.store.Update(ctx, account.ID, domain.AccountPatch{SetReset: digest}); err != nil {
		return s.storageError("request password reset", err)
	}

	msg := ports.Message{
		To:      account.Email,
		Subject: resetMailSubject,
		Body:    resetMailBody(s.resetURLBase + "/" + ticket.Secret),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID).Msg("reset email delivery failed, rolling back ticket")

		rollback := domain.AccountPatch{ClearReset: true, ExpectResetHash: ticket.Digest}
		if rbErr := s.store.Update(context.WithoutCancel(ctx), account.ID, rollback); rbErr != nil && !errors.Is(rbErr, domain.ErrNotFound) {
			s.log.Error().Err(rbErr).Str("account_id", account.ID).Msg("reset ticket rollback failed")
		}
		return domain.WrapError(domain.KindDeliveryFailed, domain.ErrDeliveryFailed.Message, err)
	}

	s.log.Info().Str("account_id", account.ID).Time("expires_at", digest.ExpiresAt).Msg("password reset requested")
	return nil
}

// CompletePasswordReset consumes a reset ticket and sets a new password.
// A ticket can be consumed at most once.
func (s *AuthService) CompletePasswordReset(ctx context.Context, in ports.CompleteResetInput) (*ports.Session, error) {
	if in.Secret == "" {
		return nil, domain.ErrResetTokenInvalidOrExpired
	}

	digest := s.resets.Digest(in.Secret)
	account, err := s.store.FindByResetHash(ctx, digest)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.ErrResetTokenInvalidOrExpired
	case err != nil:
		return nil, s.storageError("complete password reset", err)
	}

	if !account.HasPendingReset() ||
		!s.resets.Validate(in.Secret, account.PendingReset.Hash, account.PendingReset.ExpiresAt) {
		s.log.Info().Str("account_id", account.ID).Msg("reset rejected: ticket invalid or expired")
		return nil, domain.ErrResetTokenInvalidOrExpired
	}

	if in.NewPassword != in.ConfirmPassword {
		return nil, domain.ErrPasswordConfirmationMismatch
	}
	if err := domain.ValidatePassword(in.NewPassword); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return nil, err
	}

	patch := domain.AccountPatch{
		PasswordHash:    &hash,
		ClearReset:      true,
		ExpectResetHash: account.PendingReset.Hash,
	}
	if err := s.store.Update(ctx, account.ID, patch); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Another request consumed or replaced the ticket first.
			return nil, domain.ErrResetTokenInvalidOrExpired
		}
		return nil, s.storageError("complete password reset", err)
	}

	account.PasswordHash = hash
	account.PendingReset = nil
	s.notify(account, ports.NoticePasswordReset)

	s.log.Info().Str("account_id", account.ID).Msg("password reset completed")
	return s.openSession(account)
}

// ChangePassword replaces the password of an authenticated account after
// checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, accountID string, in ports.ChangePasswordInput) (*ports.Session, error) {
	account, err := s.findAccount(ctx, "change password", accountID)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(in.OldPassword, account.PasswordHash) {
		s.log.Info().Str("account_id", account.ID).Msg("password change rejected: old password incorrect")
		return nil, domain.ErrOldPasswordIncorrect
	}
	if in.NewPassword != in.ConfirmPassword {
		return nil, domain.ErrPasswordConfirmationMismatch
	}
	if err := domain.ValidatePassword(in.NewPassword); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, account.ID, domain.AccountPatch{PasswordHash: &hash, ClearReset: true}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, s.storageError("change password", err)
	}

	account.PasswordHash = hash
	account.PendingReset = nil
	s.notify(account, ports.NoticePasswordChanged)

	s.log.Info().Str("account_id", account.ID).Msg("password changed")
	return s.openSession(account)
}

// GetAccount returns the public view of one account.
func (s *AuthService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.findAccount(ctx, "get account", accountID)
}

func (s *AuthService) findAccount(ctx context.Context, op, accountID string) (*domain.Account, error) {
	if accountID == "" {
		return nil, domain.ErrIdentityNotFound
	}
	account, err := s.store.FindByID(ctx, accountID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.ErrIdentityNotFound
	case err != nil:
		return nil, s.storageError(op, err)
	}
	return account, nil
}

func (s *AuthService) openSession(account *domain.Account) (*ports.Session, error) {
	tok, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	return &ports.Session{
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt,
		TTL:       tok.TTL,
		Account:   account,
	}, nil
}

func (s *AuthService) notify(account *domain.Account, kind ports.NoticeKind) {
	if s.notices == nil {
		return
	}
	if !s.notices.Enqueue(ports.Notice{AccountID: account.ID, Email: account.Email, Kind: kind}) {
		s.log.Warn().Str("account_id", account.ID).Str("kind", string(kind)).Msg("notice dropped")
	}
}

func (s *AuthService) storageError(op string, err error) error {
	s.log.Error().Err(err).Str("operation", op).Msg("credential store failure")
	return domain.WrapError(domain.KindStorage, domain.ErrStorage.Message, fmt.Errorf("%s: %w", op, err))
}

func resetMailBody(link string) string {
	return "Your password reset token is :- \n\n" + link +
		"\n\nIf you have not requested this email then, please ignore it."
}
