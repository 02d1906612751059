package main

import (
	"net/http"
	"time"

	config "github.com/NordCoder/BlackDragon/internal/config/blackdragon-api"
	"github.com/NordCoder/BlackDragon/internal/obs"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           obs.HTTPHandler(router, cfg.App.Name),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
