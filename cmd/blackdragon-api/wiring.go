package main

import (
	"context"

	config "github.com/NordCoder/BlackDragon/internal/config/blackdragon-api"
	"github.com/NordCoder/BlackDragon/internal/domain/revocation"
	"github.com/NordCoder/BlackDragon/internal/obs/retry"
	"github.com/NordCoder/BlackDragon/internal/outbox"
	kafkarepo "github.com/NordCoder/BlackDragon/internal/repository/kafka"
	"github.com/NordCoder/BlackDragon/internal/repository/memory"
	pg "github.com/NordCoder/BlackDragon/internal/repository/postgres"
	"github.com/NordCoder/BlackDragon/internal/services/blackdragon-api/auth"
	"github.com/NordCoder/BlackDragon/internal/services/retention"
	"github.com/NordCoder/BlackDragon/internal/services/revocationsync"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type background struct {
	name string
	run  func(ctx context.Context) error
}

func buildLedger(cfg *config.Config, db *pg.DB) revocation.Ledger {
	if cfg.Auth.Ledger == config.LedgerMemory {
		return memory.NewLedger()
	}
	return pg.NewRevocationRepo(db)
}

// buildEvents returns the sink account events are written to plus the
// workers that move them to kafka. Without kafka events are dropped.
func buildEvents(ctx context.Context, cfg *config.Config, db *pg.DB, ledger revocation.Ledger, logger *zap.Logger) (auth.EventSink, []background, func()) {
	if !cfg.Kafka.Enable {
		return outbox.Discard{}, nil, func() {}
	}

	spec := kafkarepo.TopicSpec{
		Name:              cfg.Kafka.Topic,
		NumPartitions:     cfg.Kafka.NumPartitions,
		ReplicationFactor: cfg.Kafka.ReplicationFactor,
	}
	if err := kafkarepo.EnsureTopic(ctx, cfg.Kafka.Brokers, spec, logger); err != nil {
		logger.Warn("ensure topic failed; producer will auto-create", zap.Error(err))
	}

	producer := kafkarepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(logger)
	publisher := kafkarepo.NewAccountEventsKafka(producer)

	outboxRepo := pg.NewOutboxRepo(db)
	runner := outbox.NewOutboxRunner(
		logger,
		outboxRepo,
		outbox.MakeGlobalOutboxHandler(publisher, retry.PublishPolicy("account-events", logger)),
		cfg.Outbox.Workers,
		cfg.Outbox.BatchSize,
		cfg.Outbox.WaitTime,
		cfg.Outbox.InProgressTTL,
	)
	jobs := []background{{name: "outbox", run: runner.Run}}
	closers := []func() error{producer.Close}

	// An in-process ledger only sees local logouts; replay the others from the topic.
	if mem, ok := ledger.(*memory.Ledger); ok {
		consumer := kafkarepo.BootstrapConsumer(ctx, &kafkarepo.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			GroupID:       cfg.Kafka.GroupID + "-" + uuid.NewString()[:8],
			Topic:         cfg.Kafka.Topic,
			FromBeginning: true,
		}, spec, logger)
		syncer := revocationsync.NewRunner(consumer, revocationsync.NewHandler(mem, logger), logger)
		jobs = append(jobs, background{name: "revocation-sync", run: syncer.Run})
		closers = append(closers, consumer.Close)
	}

	return outbox.NewWriter(outboxRepo), jobs, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("kafka close", zap.Error(err))
			}
		}
	}
}

func buildRetention(cfg *config.Config, ledger revocation.Ledger, logger *zap.Logger) background {
	r := retention.New(logger.Named("retention"), retention.NewUC(ledger, cfg.Retention.Grace), cfg.Retention.Tick)
	return background{name: "retention", run: r.Run}
}
