package main

import (
	"context"
	"time"

	config "github.com/NordCoder/BlackDragon/internal/config/blackdragon-api"
	pg "github.com/NordCoder/BlackDragon/internal/repository/postgres"
	"go.uber.org/zap"
)

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	start := time.Now()
	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("db connected", zap.Duration("took", time.Since(start)))
	return db, nil
}
