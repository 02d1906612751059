package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/NordCoder/BlackDragon/internal/domain/account"
	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/NordCoder/BlackDragon/internal/domain/revocation"
	"github.com/NordCoder/BlackDragon/internal/domain/user"
	"github.com/NordCoder/BlackDragon/internal/domain/validation"
	"github.com/NordCoder/BlackDragon/internal/repository/postgres"
	"github.com/NordCoder/BlackDragon/internal/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrUserNotFound       = errors.New("user not found")
)

const (
	CodeInvalidEmail     = "InvalidEmail"
	CodePasswordTooShort = "PasswordTooShort"
	CodeDuplicateEmail   = "DuplicateEmail"
	CodePasswordTooLong  = "PasswordTooLong"
)

const DefaultPasswordMinLength = 8

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

type TokenIssuer interface {
	Issue(subject, email string, roles []string) (token.Token, error)
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventSink receives account events inside the business transaction.
type EventSink interface {
	Write(ctx context.Context, ev account.Event) error
}

type Config struct {
	PasswordMinLength int
	// TokenTTL bounds how long a subject cutoff has to be kept.
	TokenTTL time.Duration
	Now      func() time.Time
}

type Usecase struct {
	users  user.Repo
	ledger revocation.Ledger
	issuer TokenIssuer
	tx     Transactor
	events EventSink
	cfg    Config

	dummyHash []byte
}

func NewUseCase(users user.Repo, ledger revocation.Ledger, issuer TokenIssuer, tx Transactor, events EventSink, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.PasswordMinLength <= 0 {
		cfg.PasswordMinLength = DefaultPasswordMinLength
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = token.DefaultTTL
	}
	// Compared against when the email is unknown so both failure paths cost a bcrypt round.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("blackdragon-dummy-password"), bcrypt.DefaultCost)
	return &Usecase{users: users, ledger: ledger, issuer: issuer, tx: tx, events: events, cfg: cfg, dummyHash: dummy}
}

func (u *Usecase) Register(ctx context.Context, email, password string) (*user.User, error) {
	email = user.NormalizeEmail(email)

	verr := &validation.Error{}
	if !validEmail(email) {
		verr.Add(CodeInvalidEmail, fmt.Sprintf("Email '%s' is invalid.", email))
	}
	if utf8.RuneCountInString(password) < u.cfg.PasswordMinLength {
		verr.Add(CodePasswordTooShort, fmt.Sprintf("Passwords must be at least %d characters.", u.cfg.PasswordMinLength))
	}
	if len(password) > maxPasswordBytes {
		verr.Add(CodePasswordTooLong, fmt.Sprintf("Passwords must be at most %d bytes.", maxPasswordBytes))
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := u.cfg.Now()
	newUser := &user.User{Email: email, Roles: []string{}, PasswordHash: string(hash), CreatedAt: now, UpdatedAt: now}
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.users.Create(ctx, newUser); err != nil {
			return err
		}
		return u.events.Write(ctx, account.Event{
			Type:   account.EventUserRegistered,
			UserID: newUser.ID,
			Email:  newUser.Email,
			At:     now,
		})
	})
	if errors.Is(err, postgres.ErrConflict) {
		return nil, validation.New(CodeDuplicateEmail, fmt.Sprintf("Email '%s' is already taken.", email))
	}
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return newUser, nil
}

func (u *Usecase) Login(ctx context.Context, email, password string) (token.Token, error) {
	rec, err := u.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if errors.Is(err, postgres.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(u.dummyHash, []byte(password))
		return token.Token{}, ErrInvalidCredentials
	}
	if err != nil {
		return token.Token{}, fmt.Errorf("login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return token.Token{}, ErrInvalidCredentials
	}
	t, err := u.issuer.Issue(rec.ID, rec.Email, rec.Roles)
	if err != nil {
		return token.Token{}, fmt.Errorf("issue token: %w", err)
	}
	return t, nil
}

// Logout revokes the token the caller authenticated with until it expires.
func (u *Usecase) Logout(ctx context.Context, caller identity.Identity) error {
	if !caller.IsAuthenticated() || caller.TokenID() == "" {
		return ErrUnauthenticated
	}
	now := u.cfg.Now()
	exp := caller.ExpiresAt()
	return u.tx.WithTx(ctx, func(ctx context.Context) error {
		err := u.ledger.Revoke(ctx, revocation.Record{
			TokenID:   caller.TokenID(),
			Subject:   caller.UserID(),
			RevokedAt: now,
			ExpiresAt: exp,
		})
		if err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
		return u.events.Write(ctx, account.Event{
			Type:      account.EventTokenRevoked,
			UserID:    caller.UserID(),
			TokenID:   caller.TokenID(),
			ExpiresAt: &exp,
			At:        now,
		})
	})
}

// DeleteAccount removes the account behind email. Members may delete only
// their own account, admins any. Every token issued to the account so far
// stops validating.
func (u *Usecase) DeleteAccount(ctx context.Context, caller identity.Identity, email string) (*user.User, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	email = user.NormalizeEmail(email)
	admin := caller.IsInRole(identity.RoleAdmin)
	if !admin && user.NormalizeEmail(caller.Email()) != email {
		return nil, ErrForbidden
	}

	var deleted *user.User
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		rec, err := u.users.GetByEmail(ctx, email)
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if !admin && rec.ID != caller.UserID() {
			return ErrForbidden
		}
		if deleted, err = u.users.DeleteByEmail(ctx, email); err != nil {
			if errors.Is(err, postgres.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		now := u.cfg.Now()
		cutoff := revocation.SubjectCutoff{
			Subject:   deleted.ID,
			NotBefore: now,
			ExpiresAt: now.Add(u.cfg.TokenTTL),
		}
		if err := u.ledger.RevokeSubject(ctx, cutoff); err != nil {
			return fmt.Errorf("revoke subject: %w", err)
		}
		return u.events.Write(ctx, account.Event{
			Type:      account.EventUserDeleted,
			UserID:    deleted.ID,
			Email:     deleted.Email,
			NotBefore: &cutoff.NotBefore,
			ExpiresAt: &cutoff.ExpiresAt,
			At:        now,
		})
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
