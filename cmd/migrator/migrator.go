package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	config "github.com/NordCoder/BlackDragon/internal/config/blackdragon-api"
	"github.com/NordCoder/BlackDragon/internal/obs"
	"github.com/NordCoder/BlackDragon/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Usage: migrator [-c config.yaml] [up|down|status|version]. DB_DSN overrides db.dsn.
func main() {
	flags := pflag.NewFlagSet("migrator", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "config/blackdragon-api.yaml", "path to YAML config")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	command := "up"
	if flags.NArg() > 0 {
		command = flags.Arg(0)
	}

	dsn := os.Getenv("DB_DSN")
	logCfg := obs.LogConfig{Level: "info", App: "blackdragon-migrator", Env: "dev", Ver: "dev"}
	// the service config requires a signing key the migrator never uses
	if cfg, err := config.Load(*configPath); err == nil {
		logCfg.Env, logCfg.Ver, logCfg.Pretty = cfg.App.Env, cfg.App.Version, cfg.Log.Pretty
		if dsn == "" {
			dsn = cfg.DB.DSN
		}
	}

	logger, err := obs.NewLogger(logCfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if dsn == "" {
		logger.Fatal("DB_DSN is empty")
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(zap.NewStdLog(logger))
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal("set dialect", zap.Error(err))
	}
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	if err := goose.RunContext(context.Background(), command, db, "."); err != nil {
		logger.Fatal("migrate", zap.String("command", command), zap.Error(err))
	}
	logger.Info("migrations done", zap.String("command", command))
}
