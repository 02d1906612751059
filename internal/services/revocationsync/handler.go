// Package revocationsync replays revocations published by any replica into
// the local in-memory ledger.
package revocationsync

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/account"
	"github.com/NordCoder/BlackDragon/internal/domain/revocation"
	"github.com/NordCoder/BlackDragon/internal/obs"
	"github.com/NordCoder/BlackDragon/internal/obs/retry"
	kafkarepo "github.com/NordCoder/BlackDragon/internal/repository/kafka"
	"go.uber.org/zap"
)

type Handler struct {
	ledger revocation.Ledger
	log    *zap.Logger
	now    func() time.Time
}

func NewHandler(ledger revocation.Ledger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{ledger: ledger, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Apply records the revocation carried by ev. Events of other types are ignored.
func (h *Handler) Apply(ctx context.Context, ev account.Event) error {
	log := obs.WithTrace(ctx, h.log).With(zap.String("type", string(ev.Type)), zap.String("user_id", ev.UserID))

	switch ev.Type {
	case account.EventTokenRevoked:
		if ev.TokenID == "" || ev.ExpiresAt == nil {
			return fmt.Errorf("%w: token.revoked without token id or expiry", retry.ErrPermanent)
		}
		if ev.ExpiresAt.Before(h.now()) {
			log.Debug("revocation already expired; skipped")
			return nil
		}
		err := h.ledger.Revoke(ctx, revocation.Record{
			TokenID:   ev.TokenID,
			Subject:   ev.UserID,
			RevokedAt: ev.At,
			ExpiresAt: *ev.ExpiresAt,
		})
		if err != nil {
			return fmt.Errorf("revoke %s: %w", ev.TokenID, err)
		}
		log.Debug("token revocation applied", zap.String("jti", ev.TokenID))

	case account.EventUserDeleted:
		if ev.UserID == "" || ev.NotBefore == nil || ev.ExpiresAt == nil {
			return fmt.Errorf("%w: user.deleted without cutoff", retry.ErrPermanent)
		}
		err := h.ledger.RevokeSubject(ctx, revocation.SubjectCutoff{
			Subject:   ev.UserID,
			NotBefore: *ev.NotBefore,
			ExpiresAt: *ev.ExpiresAt,
		})
		if err != nil {
			return fmt.Errorf("revoke subject %s: %w", ev.UserID, err)
		}
		log.Debug("subject cutoff applied")
	}
	return nil
}

// KafkaHandler adapts Apply to the account topic's JSON payload.
func (h *Handler) KafkaHandler() kafkarepo.Handler {
	return kafkarepo.JSONHandler(func(ctx context.Context, _ []byte, ev account.Event) error {
		return h.Apply(ctx, ev)
	})
}
