package main

import (
	"context"
	"net"
	"time"

	config "github.com/NordCoder/BlackDragon/internal/config/blackdragon-api"
	"github.com/NordCoder/BlackDragon/internal/obs"
	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const healthPollInterval = 10 * time.Second

// buildGRPCServer exposes the standard health service for orchestrators
// and load balancers. Its status follows the database ping.
func buildGRPCServer(cfg *config.Config) (*grpc.Server, *health.Server, net.Listener, error) {
	grpcMetrics := grpcprometheus.NewServerMetrics()
	grpcMetrics.EnableHandlingTimeHistogram()

	opts := obs.GRPCServerOpts()
	opts = append(opts,
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	grpcServer := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	grpcMetrics.InitializeMetrics(grpcServer)
	if err := prometheus.Register(grpcMetrics); err != nil {
		return nil, nil, nil, err
	}

	ln, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return nil, nil, nil, err
	}
	return grpcServer, hs, ln, nil
}

func watchHealth(ctx context.Context, hs *health.Server, ping func(context.Context) error, logger *zap.Logger) {
	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		status := healthpb.HealthCheckResponse_SERVING
		if err := ping(ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			if last != status {
				logger.Warn("health: db unreachable", zap.Error(err))
			}
		}
		if status != last {
			hs.SetServingStatus("", status)
			last = status
		}

		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

func serveGRPC(s *grpc.Server, ln net.Listener, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("grpc listening", zap.String("addr", cfg.Server.GRPCAddr))
	return s.Serve(ln)
}

func gracefulStopGRPC(s *grpc.Server) { s.GracefulStop() }
