package revocation

import (
	"context"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/identity"
)

type Ledger interface {
	// Revoke is idempotent: revoking a token id twice keeps the first record.
	Revoke(ctx context.Context, r Record) error
	RevokeSubject(ctx context.Context, c SubjectCutoff) error
	IsRevoked(ctx context.Context, claims identity.ClaimSet) (bool, error)
	// Prune drops entries that expired before now and returns how many were removed.
	Prune(ctx context.Context, now time.Time) (int64, error)
}
