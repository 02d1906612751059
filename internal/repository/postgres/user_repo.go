package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/BlackDragon/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const (
	qUserInsert = `
INSERT INTO users (id, email, password_hash, roles)
VALUES ($1, $2, $3, $4)
RETURNING id, email, password_hash, roles, created_at, updated_at;`

	qUserByID = `
SELECT id, email, password_hash, roles, created_at, updated_at
FROM users
WHERE id = $1;`

	qUserByEmail = `
SELECT id, email, password_hash, roles, created_at, updated_at
FROM users
WHERE email = $1;`

	qUserDeleteByEmail = `
DELETE FROM users
WHERE email = $1
RETURNING id, email, password_hash, roles, created_at, updated_at;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}

	eq := r.db.execQueryer(ctx)
	if err := scanUser(eq.QueryRow(ctx, qUserInsert, u.ID, u.Email, u.PasswordHash, roles), u); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByEmail, email), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteByEmail removes the account and returns what was removed.
// The profile row goes with it through the foreign key cascade.
func (r *UserRepo) DeleteByEmail(ctx context.Context, email string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserDeleteByEmail, email), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanUser(row pgx.Row, out *user.User) error {
	if err := row.Scan(&out.ID, &out.Email, &out.PasswordHash, &out.Roles, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	return nil
}
