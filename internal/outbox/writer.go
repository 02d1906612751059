package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NordCoder/BlackDragon/internal/domain/account"
	"github.com/NordCoder/BlackDragon/internal/domain/outbox"
	"github.com/google/uuid"
)

// Writer stores account events in the outbox. Called inside a transaction
// the event commits or rolls back with the business change.
type Writer struct {
	repo outbox.Repository
}

func NewWriter(repo outbox.Repository) *Writer { return &Writer{repo: repo} }

func (w *Writer) Write(ctx context.Context, ev account.Event) error {
	kind, ok := outbox.KindOf(ev.Type)
	if !ok {
		return fmt.Errorf("unknown account event type %q", ev.Type)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Type, err)
	}
	return w.repo.Enqueue(ctx, uuid.NewString(), kind, data)
}

// Discard drops events; used when no broker is configured.
type Discard struct{}

func (Discard) Write(context.Context, account.Event) error { return nil }
