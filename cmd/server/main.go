package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"

	grpcadapter "github.com/simaogato/bondcurve-backend/internal/adapter/grpc"
	"github.com/simaogato/bondcurve-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/bondcurve-backend/internal/config"
	"github.com/simaogato/bondcurve-backend/internal/lib/log"
	"github.com/simaogato/bondcurve-backend/internal/metrics"
	"github.com/simaogato/bondcurve-backend/internal/ratelimit"
	"github.com/simaogato/bondcurve-backend/internal/usecase/pricing"
	"github.com/simaogato/bondcurve-backend/internal/usecase/seeder"
)

const (
	dbConnectAttempts = 5
	dbConnectBackoff  = 2 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; the environment always wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := log.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 1. Setup Database
	db, err := connectDB(ctx, cfg.DB, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		logger.Info().Msg("database schema applied")
	}

	// 2. Initialize Repositories (Postgres)
	certificateRepo := postgres.NewCertificateRepository(db)
	quoteRepo := postgres.NewQuoteRepository(db)

	if cfg.DB.SeedDemo {
		created, err := seeder.NewDemoSeeder(certificateRepo).Seed(ctx)
		if err != nil {
			return fmt.Errorf("seed demo certificates: %w", err)
		}
		logger.Info().Int("created", created).Msg("demo certificates seeded")
	}

	// 3. Initialize Services (Use Cases)
	pricingService := pricing.NewPricingService(certificateRepo, quoteRepo, logger)

	// 4. Start gRPC Server
	registry := metrics.NewRegistry()
	limiter := ratelimit.NewLimiter(cfg.GRPC.RateLimitRPS, cfg.GRPC.RateLimitBurst)
	go limiter.Run(ctx, time.Minute, cfg.GRPC.RateLimitIdle)

	grpcServer := grpcadapter.NewGRPCServer(cfg.GRPC, grpcadapter.NewServer(pricingService, registry), limiter, registry, logger)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPC.Addr, err)
	}

	// 5. Start metrics server
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", cfg.GRPC.Addr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("serve gRPC: %w", err)
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve metrics: %w", err)
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received, shutting down gracefully")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server failed, shutting down")
	}

	return shutdown(grpcServer, metricsServer, cfg.GRPC.ShutdownTimeout, logger)
}

// connectDB retries the initial connection while postgres starts up
func connectDB(ctx context.Context, cfg postgres.Config, logger *zerolog.Logger) (*postgres.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		db, err := postgres.NewDB(ctx, cfg)
		if err == nil {
			return db, nil
		}
		lastErr = err

		logger.Warn().Err(err).Int("attempt", attempt).Msg("database not ready")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dbConnectBackoff):
		}
	}
	return nil, fmt.Errorf("connect to database: %w", lastErr)
}

// shutdown stops both servers, forcing the gRPC server once timeout passes
func shutdown(grpcServer *grpclib.Server, metricsServer *http.Server, timeout time.Duration, logger *zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		logger.Warn().Msg("graceful stop timed out, forcing")
		grpcServer.Stop()
	}
	logger.Info().Msg("gRPC server stopped")

	if err := metricsServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}
