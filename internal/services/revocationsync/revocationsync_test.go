package revocationsync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/account"
	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/NordCoder/BlackDragon/internal/obs/retry"
	kafkarepo "github.com/NordCoder/BlackDragon/internal/repository/kafka"
	"github.com/NordCoder/BlackDragon/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)

func newHandler() (*Handler, *memory.Ledger) {
	l := memory.NewLedger()
	h := NewHandler(l, nil)
	h.now = func() time.Time { return t0 }
	return h, l
}

func isRevoked(t *testing.T, l *memory.Ledger, c identity.ClaimSet) bool {
	t.Helper()
	ok, err := l.IsRevoked(context.Background(), c)
	require.NoError(t, err)
	return ok
}

func TestApply_TokenRevoked(t *testing.T) {
	h, l := newHandler()
	exp := t0.Add(20 * time.Minute)

	ev := account.Event{Type: account.EventTokenRevoked, UserID: "u1", TokenID: "jti-1", ExpiresAt: &exp, At: t0}
	require.NoError(t, h.Apply(context.Background(), ev))
	require.NoError(t, h.Apply(context.Background(), ev))

	assert.True(t, isRevoked(t, l, identity.ClaimSet{Subject: "u1", TokenID: "jti-1"}))
	assert.False(t, isRevoked(t, l, identity.ClaimSet{Subject: "u1", TokenID: "jti-2"}))
	assert.Equal(t, 1, l.Len())
}

func TestApply_ExpiredRevocationSkipped(t *testing.T) {
	h, l := newHandler()
	exp := t0.Add(-time.Minute)

	require.NoError(t, h.Apply(context.Background(), account.Event{
		Type: account.EventTokenRevoked, UserID: "u1", TokenID: "jti-1", ExpiresAt: &exp,
	}))
	assert.Equal(t, 0, l.Len())
}

func TestApply_UserDeleted(t *testing.T) {
	h, l := newHandler()
	nb, exp := t0, t0.Add(30*time.Minute)

	require.NoError(t, h.Apply(context.Background(), account.Event{
		Type: account.EventUserDeleted, UserID: "u1", NotBefore: &nb, ExpiresAt: &exp,
	}))

	assert.True(t, isRevoked(t, l, identity.ClaimSet{Subject: "u1", TokenID: "a", IssuedAt: t0.Add(-time.Minute)}))
	assert.False(t, isRevoked(t, l, identity.ClaimSet{Subject: "u1", TokenID: "b", IssuedAt: t0.Add(time.Minute)}))
}

func TestApply_MalformedIsPermanent(t *testing.T) {
	h, _ := newHandler()

	err := h.Apply(context.Background(), account.Event{Type: account.EventTokenRevoked, UserID: "u1"})
	assert.ErrorIs(t, err, retry.ErrPermanent)
	err = h.Apply(context.Background(), account.Event{Type: account.EventUserDeleted, UserID: "u1"})
	assert.ErrorIs(t, err, retry.ErrPermanent)

	assert.NoError(t, h.Apply(context.Background(), account.Event{Type: account.EventUserRegistered, UserID: "u1"}))
}

type fakeConsumer struct{ payloads [][]byte }

func (f fakeConsumer) Consume(ctx context.Context, h kafkarepo.Handler) error {
	for _, p := range f.payloads {
		if err := h(ctx, []byte("u1"), p); err != nil {
			return err
		}
	}
	return nil
}

func TestRunner_DecodesAccountEvents(t *testing.T) {
	h, l := newHandler()
	exp := t0.Add(10 * time.Minute)
	payload, err := json.Marshal(account.Event{Type: account.EventTokenRevoked, UserID: "u1", TokenID: "jti-9", ExpiresAt: &exp, At: t0})
	require.NoError(t, err)

	require.NoError(t, NewRunner(fakeConsumer{payloads: [][]byte{payload}}, h, nil).Run(context.Background()))
	assert.True(t, isRevoked(t, l, identity.ClaimSet{Subject: "u1", TokenID: "jti-9"}))

	err = NewRunner(fakeConsumer{payloads: [][]byte{[]byte("{")}}, h, nil).Run(context.Background())
	assert.ErrorIs(t, err, retry.ErrPermanent)
}
