package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BootstrapConsumer makes sure the topic exists before the reader joins its group.
func BootstrapConsumer(ctx context.Context, cfg *ConsumerConfig, spec TopicSpec, logger *zap.Logger) *Consumer {
	if spec.Name == "" {
		spec.Name = cfg.Topic
	}
	if spec.MaxWait <= 0 {
		spec.MaxWait = 5 * time.Second
	}
	if err := EnsureTopic(ctx, cfg.Brokers, spec, logger); err != nil && logger != nil {
		logger.Warn("ensure topic failed; consumer will retry on fetch", zap.String("topic", spec.Name), zap.Error(err))
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	return NewConsumer(cfg)
}
