package main

import (
	"context"

	config "github.com/NordCoder/BlackDragon/internal/config/blackdragon-api"
	"github.com/NordCoder/BlackDragon/internal/obs"
	"go.uber.org/zap"
)

func initOTel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (func(context.Context) error, error) {
	closer, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		return nil, err
	}
	if cfg.OTEL.Enable {
		logger.Info("tracing enabled", zap.String("endpoint", cfg.OTEL.OTLPEndpoint), zap.Float64("ratio", cfg.OTEL.SampleRatio))
	}
	return closer.Shutdown, nil
}
