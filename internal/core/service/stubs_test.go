package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/credential-service/internal/core/domain"
	"github.com/storefront/credential-service/internal/core/ports"
	"github.com/storefront/credential-service/internal/core/security"
)

var errStoreDown = errors.New("connection refused")

// brokenHasher fails every Hash call.
type brokenHasher struct{}

func (brokenHasher) Hash(string) (string, error) {
	return "", errors.New("bcrypt: cost out of range")
}

func (brokenHasher) Verify(string, string) bool { return false }

type stubStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	updates  []domain.AccountPatch

	// failUpdateAfter makes every Update after the n-th return errStoreDown.
	failUpdateAfter int
	failFind        bool
}

func newStubStore() *stubStore {
	return &stubStore{accounts: make(map[string]*domain.Account), failUpdateAfter: -1}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.PendingReset != nil {
		r := *a.PendingReset
		clone.PendingReset = &r
	}
	return &clone
}

func (s *stubStore) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFind {
		return nil, errStoreDown
	}
	for _, a := range s.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubStore) FindByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFind {
		return nil, errStoreDown
	}
	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (s *stubStore) FindByResetHash(_ context.Context, hash string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.PendingReset != nil && a.PendingReset.Hash == hash {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubStore) Create(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == account.Email || a.ID == account.ID {
			return domain.ErrDuplicateIdentity
		}
	}
	s.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (s *stubStore) Update(_ context.Context, id string, patch domain.AccountPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdateAfter >= 0 && len(s.updates) >= s.failUpdateAfter {
		return errStoreDown
	}
	s.updates = append(s.updates, patch)

	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.ExpectResetHash != "" && (a.PendingReset == nil || a.PendingReset.Hash != patch.ExpectResetHash) {
		return domain.ErrNotFound
	}
	if patch.PasswordHash != nil {
		a.PasswordHash = *patch.PasswordHash
	}
	if patch.ClearReset {
		a.PendingReset = nil
	}
	if patch.SetReset != nil {
		r := *patch.SetReset
		a.PendingReset = &r
	}
	return nil
}

func (s *stubStore) get(id string) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAccount(s.accounts[id])
}

func (s *stubStore) put(a *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = cloneAccount(a)
}

type stubMailer struct {
	mu   sync.Mutex
	sent []ports.Message
	err  error
}

func (m *stubMailer) Send(_ context.Context, msg ports.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *stubMailer) last() (ports.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ports.Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

type stubNotices struct {
	mu      sync.Mutex
	notices []ports.Notice
}

func (n *stubNotices) Enqueue(notice ports.Notice) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return true
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc     *AuthService
	store   *stubStore
	mailer  *stubMailer
	notices *stubNotices
	tokens  *security.JWTCodec
	resets  *security.ResetIssuer
	clock   *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	tokens, err := security.NewJWTCodec(security.TokenConfig{
		Secret: []byte("test-secret-test-secret-test-secret"),
		TTL:    time.Hour,
		Issuer: "test",
	}, security.WithTokenClock(clock.Now))
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}

	f := &fixture{
		store:   newStubStore(),
		mailer:  &stubMailer{},
		notices: &stubNotices{},
		tokens:  tokens,
		resets:  security.NewResetIssuer(15*time.Minute, security.WithResetClock(clock.Now)),
		clock:   clock,
	}
	f.svc, err = NewAuthService(
		f.store,
		security.NewBcryptHasher(bcrypt.MinCost),
		f.tokens,
		f.resets,
		f.mailer,
		zerolog.Nop(),
		WithResetURLBase("https://shop.example/api/v1/password/reset/"),
		WithNotices(f.notices),
		WithClock(clock.Now),
	)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return f
}
