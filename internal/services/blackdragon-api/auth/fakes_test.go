package auth

import (
	"context"
	"sync"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/account"
	"github.com/NordCoder/BlackDragon/internal/domain/user"
	"github.com/NordCoder/BlackDragon/internal/repository/memory"
	"github.com/NordCoder/BlackDragon/internal/repository/postgres"
	"github.com/NordCoder/BlackDragon/internal/token"
	"github.com/google/uuid"
)

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*user.User
	err     error
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byEmail: map[string]*user.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return postgres.ErrConflict
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) DeleteByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	delete(f.byEmail, email)
	return u, nil
}

func (f *fakeUsers) setRoles(email string, roles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byEmail[email].Roles = roles
}

type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type recordingSink struct {
	mu     sync.Mutex
	events []account.Event
}

func (s *recordingSink) Write(_ context.Context, ev account.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) types() []account.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]account.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	now       time.Time
	users     *fakeUsers
	ledger    *memory.Ledger
	sink      *recordingSink
	issuer    *token.Issuer
	validator *token.Validator
	uc        *Usecase
}

func newFixture() *fixture {
	f := &fixture{
		now:    time.Date(2025, 4, 2, 18, 30, 0, 0, time.UTC),
		users:  newFakeUsers(),
		ledger: memory.NewLedger(),
		sink:   &recordingSink{},
	}
	clock := func() time.Time { return f.now }
	cfg := token.Config{
		Secret:   []byte("auth-usecase-test-secret"),
		Issuer:   "blackdragon",
		Audience: "blackdragon-members",
		TTL:      30 * time.Minute,
		Now:      clock,
	}
	var err error
	if f.issuer, err = token.NewIssuer(cfg); err != nil {
		panic(err)
	}
	if f.validator, err = token.NewValidator(cfg, f.ledger); err != nil {
		panic(err)
	}
	f.uc = NewUseCase(f.users, f.ledger, f.issuer, passTx{}, f.sink, Config{
		PasswordMinLength: 8,
		TokenTTL:          cfg.TTL,
		Now:               clock,
	})
	return f
}
