package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	config "github.com/NordCoder/BlackDragon/internal/config/blackdragon-api"
	pg "github.com/NordCoder/BlackDragon/internal/repository/postgres"
	api "github.com/NordCoder/BlackDragon/internal/services/blackdragon-api"
	"github.com/NordCoder/BlackDragon/internal/services/blackdragon-api/auth"
	"github.com/NordCoder/BlackDragon/internal/token"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	flags := pflag.NewFlagSet("blackdragon-api", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "config/blackdragon-api.yaml", "path to YAML config; env vars override it")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting blackdragon-api",
		zap.String("env", cfg.App.Env),
		zap.String("ver", cfg.App.Version),
		zap.String("ledger", cfg.Auth.Ledger),
		zap.Bool("kafka", cfg.Kafka.Enable),
	)

	otelShutdown, err := initOTel(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := initDB(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	tokenCfg := cfg.Auth.AsTokenConfig()
	ledger := buildLedger(cfg, db)
	issuer, err := token.NewIssuer(tokenCfg)
	if err != nil {
		logger.Fatal("token issuer", zap.Error(err))
	}
	validator, err := token.NewValidator(tokenCfg, ledger)
	if err != nil {
		logger.Fatal("token validator", zap.Error(err))
	}

	events, jobs, closeKafka := buildEvents(rootCtx, cfg, db, ledger, logger)
	defer closeKafka()
	jobs = append(jobs, buildRetention(cfg, ledger, logger))

	router := api.NewRouter(api.Deps{
		Logger:    logger,
		Users:     pg.NewUserRepo(db),
		Profiles:  pg.NewProfileRepo(db),
		Ledger:    ledger,
		Issuer:    issuer,
		Validator: validator,
		Tx:        pg.NewTransactor(db, logger),
		Events:    events,
		Auth: auth.Config{
			PasswordMinLength: cfg.Auth.PasswordMinLength,
			TokenTTL:          cfg.Auth.TokenTTL,
		},
		Health: db.Ping,
	})

	grpcServer, healthSrv, grpcLn, err := buildGRPCServer(cfg)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	go watchHealth(rootCtx, healthSrv, db.Ping, logger)

	grpcErrCh := make(chan error, 1)
	go func() { grpcErrCh <- serveGRPC(grpcServer, grpcLn, cfg, logger) }()

	httpSrv := buildHTTPServer(cfg, router)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	jobsCtx, stopJobs := context.WithCancel(rootCtx)
	jobsDone := make(chan struct{}, len(jobs))
	for _, j := range jobs {
		go func() {
			defer func() { jobsDone <- struct{}{} }()
			if err := j.run(jobsCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background job stopped", zap.String("job", j.name), zap.Error(err))
			}
		}()
	}

	var runErr error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case runErr = <-grpcErrCh:
		if runErr != nil {
			logger.Error("grpc serve", zap.Error(runErr))
		}
	case runErr = <-httpErrCh:
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(shCtx)
	gracefulStopGRPC(grpcServer)

	stopJobs()
wait:
	for range jobs {
		select {
		case <-jobsDone:
		case <-shCtx.Done():
			logger.Warn("background jobs did not stop in time")
			break wait
		}
	}
	logger.Info("bye")
}
