package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/serroba/brandlink/internal/container"
	"github.com/serroba/brandlink/internal/messaging"
	"github.com/serroba/brandlink/internal/metrics"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	opts := &container.Options{
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		LogFormat:   getEnv("LOG_FORMAT", "console"),
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.MetricsPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)

	group, err := do.Invoke[*messaging.ConsumerGroup](injector)
	if err != nil {
		logger.Fatal("failed to build consumer group", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	metricsServer := &http.Server{
		Addr:              getEnv("METRICS_ADDR", ":9090"),
		Handler:           do.MustInvoke[*metrics.Metrics](injector).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	logger.Info("consuming clicks",
		zap.Bool("postgres", opts.DatabaseURL != ""),
		zap.String("metricsAddr", metricsServer.Addr),
	)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	_ = metricsServer.Shutdown(shutdownCtx)

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}
