package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/NordCoder/BlackDragon/internal/domain/revocation"
	"github.com/NordCoder/BlackDragon/internal/repository/memory"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seeded(t *testing.T) *memory.Ledger {
	t.Helper()
	l := memory.NewLedger()
	ctx := context.Background()
	require.NoError(t, l.Revoke(ctx, revocation.Record{TokenID: "old", Subject: "u1", RevokedAt: t0.Add(-time.Hour), ExpiresAt: t0.Add(-10 * time.Minute)}))
	require.NoError(t, l.Revoke(ctx, revocation.Record{TokenID: "live", Subject: "u1", RevokedAt: t0, ExpiresAt: t0.Add(20 * time.Minute)}))
	require.NoError(t, l.RevokeSubject(ctx, revocation.SubjectCutoff{Subject: "u2", NotBefore: t0.Add(-2 * time.Hour), ExpiresAt: t0.Add(-90 * time.Minute)}))
	return l
}

func TestTick_PrunesOnlyExpired(t *testing.T) {
	l := seeded(t)
	uc := NewUC(l, 0)
	uc.Now = func() time.Time { return t0 }

	n, err := uc.Tick(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 1, l.Len())

	revoked, err := l.IsRevoked(context.Background(), identity.ClaimSet{TokenID: "live", Subject: "u1"})
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestTick_GraceKeepsRecentlyExpired(t *testing.T) {
	l := seeded(t)
	uc := NewUC(l, time.Hour)
	uc.Now = func() time.Time { return t0 }

	n, err := uc.Tick(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 2, l.Len())
}

type brokenLedger struct{ *memory.Ledger }

func (brokenLedger) Prune(context.Context, time.Time) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestRunner_CountsErrorsAndStops(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	before := testutil.ToFloat64(mErr)

	r := New(zap.New(core), NewUC(brokenLedger{memory.NewLedger()}, 0), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before+1, testutil.ToFloat64(mErr))
	assert.Equal(t, 1, logs.FilterMessage("retention tick error").Len())
}

func TestRunner_Defaults(t *testing.T) {
	r := New(nil, NewUC(memory.NewLedger(), 0), 0)
	assert.Equal(t, DefaultTick, r.Tick)
	assert.NotNil(t, r.Log)
}
