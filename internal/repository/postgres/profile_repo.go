package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/BlackDragon/internal/domain/profile"
	"github.com/jackc/pgx/v5"
)

var _ profile.Repo = (*ProfileRepo)(nil)

type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

const profileColumns = `id, user_id, first_name, last_name, display_name, phone_number,
       address_line1, address_line2, city, state, postal_code, belt_level, created_utc, updated_utc`

const (
	qProfileByUser = `
SELECT ` + profileColumns + `
FROM user_profiles
WHERE user_id = $1;`

	qProfileByUserForUpdate = `
SELECT ` + profileColumns + `
FROM user_profiles
WHERE user_id = $1
FOR UPDATE;`

	// ON CONFLICT keeps the surrounding transaction usable when a concurrent
	// request created the row first.
	qProfileInsert = `
INSERT INTO user_profiles (user_id, first_name, last_name, display_name, phone_number,
                           address_line1, address_line2, city, state, postal_code,
                           belt_level, created_utc, updated_utc)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (user_id) DO NOTHING
RETURNING id;`

	qProfileUpdate = `
UPDATE user_profiles
SET first_name    = $2,
    last_name     = $3,
    display_name  = $4,
    phone_number  = $5,
    address_line1 = $6,
    address_line2 = $7,
    city          = $8,
    state         = $9,
    postal_code   = $10,
    belt_level    = $11,
    updated_utc   = $12
WHERE user_id = $1;`
)

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*profile.Profile, error) {
	return r.get(ctx, qProfileByUser, userID)
}

func (r *ProfileRepo) GetByUserIDForUpdate(ctx context.Context, userID string) (*profile.Profile, error) {
	return r.get(ctx, qProfileByUserForUpdate, userID)
}

func (r *ProfileRepo) get(ctx context.Context, q, userID string) (*profile.Profile, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var p profile.Profile
	if err := scanProfile(r.db.execQueryer(ctx).QueryRow(ctx, q, userID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepo) Insert(ctx context.Context, p *profile.Profile) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	err := r.db.execQueryer(ctx).QueryRow(ctx, qProfileInsert,
		p.UserID, p.FirstName, p.LastName, p.DisplayName, p.PhoneNumber,
		p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode,
		p.BeltLevel, p.CreatedUTC, p.UpdatedUTC,
	).Scan(&p.ID)
	switch {
	case errors.Is(err, pgx.ErrNoRows), isUniqueViolation(err):
		return ErrConflict
	case err != nil:
		return fmt.Errorf("profile insert: %w", err)
	}
	return nil
}

func (r *ProfileRepo) Update(ctx context.Context, p *profile.Profile) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.execQueryer(ctx).Exec(ctx, qProfileUpdate,
		p.UserID, p.FirstName, p.LastName, p.DisplayName, p.PhoneNumber,
		p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode,
		p.BeltLevel, p.UpdatedUTC,
	)
	if err != nil {
		return fmt.Errorf("profile update: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row, p *profile.Profile) error {
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.FirstName,
		&p.LastName,
		&p.DisplayName,
		&p.PhoneNumber,
		&p.AddressLine1,
		&p.AddressLine2,
		&p.City,
		&p.State,
		&p.PostalCode,
		&p.BeltLevel,
		&p.CreatedUTC,
		&p.UpdatedUTC,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan profile: %w", err)
	}
	return nil
}
