package kafka

import (
	"context"

	"github.com/NordCoder/BlackDragon/internal/domain/account"
)

var _ account.Publisher = (*AccountEventsKafka)(nil)

type AccountEventsKafka struct {
	p *Producer
}

func NewAccountEventsKafka(p *Producer) *AccountEventsKafka { return &AccountEventsKafka{p: p} }

// Publish keys messages by user id so one user's events keep their order.
func (e *AccountEventsKafka) Publish(ctx context.Context, ev account.Event) error {
	return e.p.PublishJSON(ctx, ev.Key(), ev)
}
