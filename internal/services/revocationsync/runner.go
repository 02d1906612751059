package revocationsync

import (
	"context"

	kafkarepo "github.com/NordCoder/BlackDragon/internal/repository/kafka"
	"go.uber.org/zap"
)

type consumer interface {
	Consume(ctx context.Context, h kafkarepo.Handler) error
}

type Runner struct {
	c   consumer
	h   *Handler
	log *zap.Logger
}

func NewRunner(c consumer, h *Handler, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{c: c, h: h, log: log}
}

func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("revocation sync started")
	return r.c.Consume(ctx, r.h.KafkaHandler())
}
