package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/NordCoder/BlackDragon/internal/domain/profile"
	"github.com/NordCoder/BlackDragon/internal/domain/validation"
	"github.com/NordCoder/BlackDragon/internal/repository/postgres"
)

var (
	ErrUnauthenticated = errors.New("missing user identity")
	ErrProfileNotFound = errors.New("profile not found")
)

const (
	CodeInvalidBelt = "InvalidBeltLevel"
	CodeTooLong     = "FieldTooLong"
)

// maxLengths mirrors the column widths of user_profiles.
var maxLengths = map[string]int{
	"firstName":    100,
	"lastName":     100,
	"displayName":  100,
	"phoneNumber":  32,
	"addressLine1": 200,
	"addressLine2": 200,
	"city":         100,
	"state":        100,
	"postalCode":   20,
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Usecase struct {
	repo profile.Repo
	tx   Transactor
	now  func() time.Time
}

func NewUseCase(repo profile.Repo, tx Transactor, now func() time.Time) *Usecase {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Usecase{repo: repo, tx: tx, now: now}
}

func (u *Usecase) GetMe(ctx context.Context, caller identity.Identity) (*profile.Profile, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	p, err := u.repo.GetByUserID(ctx, caller.UserID())
	if errors.Is(err, postgres.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// UpsertMe applies patch to the caller's profile, creating it with the
// default belt on first use. Nil patch fields keep their stored value.
func (u *Usecase) UpsertMe(ctx context.Context, caller identity.Identity, patch profile.Patch) (*profile.Profile, error) {
	if !caller.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	patch, err := normalize(patch)
	if err != nil {
		return nil, err
	}

	var out *profile.Profile
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		now := u.now()
		p, err := u.repo.GetByUserIDForUpdate(ctx, caller.UserID())
		switch {
		case err == nil:
		case errors.Is(err, postgres.ErrNotFound):
			p = profile.NewProfile(caller.UserID(), now)
			p.Apply(patch, now)
			err = u.repo.Insert(ctx, p)
			if err == nil {
				out = p
				return nil
			}
			if !errors.Is(err, postgres.ErrConflict) {
				return fmt.Errorf("insert profile: %w", err)
			}
			// lost the race for the first insert; patch the winner's row
			if p, err = u.repo.GetByUserIDForUpdate(ctx, caller.UserID()); err != nil {
				return fmt.Errorf("reload profile: %w", err)
			}
		default:
			return fmt.Errorf("lock profile: %w", err)
		}

		p.Apply(patch, now)
		if err := u.repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func normalize(patch profile.Patch) (profile.Patch, error) {
	verr := &validation.Error{}

	if patch.BeltLevel != nil {
		belt, ok := profile.CanonicalBelt(*patch.BeltLevel)
		if !ok {
			verr.Add(CodeInvalidBelt, fmt.Sprintf("Belt level must be one of: %s.", strings.Join(profile.BeltLevels(), ", ")))
		} else {
			patch.BeltLevel = &belt
		}
	}

	fields := patch.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		v := fields[name]
		if v == nil {
			continue
		}
		if limit := maxLengths[name]; utf8.RuneCountInString(*v) > limit {
			verr.Add(CodeTooLong, fmt.Sprintf("%s must be at most %d characters.", name, limit))
		}
	}

	if err := verr.Err(); err != nil {
		return patch, err
	}
	return patch, nil
}
