package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/NordCoder/BlackDragon/internal/domain/revocation"
)

var _ revocation.Ledger = (*RevocationRepo)(nil)

type RevocationRepo struct {
	db *DB
}

func NewRevocationRepo(db *DB) *RevocationRepo { return &RevocationRepo{db: db} }

const (
	qRevokeToken = `
INSERT INTO revoked_tokens (jti, subject, revoked_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (jti) DO NOTHING;`

	qRevokeSubject = `
INSERT INTO subject_revocations (subject, not_before, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (subject) DO UPDATE
SET not_before = GREATEST(subject_revocations.not_before, EXCLUDED.not_before),
    expires_at = GREATEST(subject_revocations.expires_at, EXCLUDED.expires_at);`

	qIsRevoked = `
SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)
    OR EXISTS (SELECT 1 FROM subject_revocations WHERE subject = $2 AND not_before >= $3);`

	qPruneTokens   = `DELETE FROM revoked_tokens WHERE expires_at < $1;`
	qPruneSubjects = `DELETE FROM subject_revocations WHERE expires_at < $1;`
)

func (r *RevocationRepo) Revoke(ctx context.Context, rec revocation.Record) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qRevokeToken, rec.TokenID, rec.Subject, rec.RevokedAt, rec.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RevocationRepo) RevokeSubject(ctx context.Context, c revocation.SubjectCutoff) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qRevokeSubject, c.Subject, c.NotBefore, c.ExpiresAt); err != nil {
		return fmt.Errorf("revoke subject: %w", err)
	}
	return nil
}

func (r *RevocationRepo) IsRevoked(ctx context.Context, claims identity.ClaimSet) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var revoked bool
	if err := r.db.Pool.QueryRow(ctx, qIsRevoked, claims.TokenID, claims.Subject, claims.IssuedAt).Scan(&revoked); err != nil {
		return false, fmt.Errorf("is revoked: %w", err)
	}
	return revoked, nil
}

func (r *RevocationRepo) Prune(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tokens, err := r.db.Pool.Exec(ctx, qPruneTokens, now)
	if err != nil {
		return 0, fmt.Errorf("prune tokens: %w", err)
	}
	subjects, err := r.db.Pool.Exec(ctx, qPruneSubjects, now)
	if err != nil {
		return tokens.RowsAffected(), fmt.Errorf("prune subjects: %w", err)
	}
	return tokens.RowsAffected() + subjects.RowsAffected(), nil
}
