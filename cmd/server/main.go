package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/brandlink/internal/container"
	"github.com/serroba/brandlink/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.RepositoryPackage(injector)
	container.RateLimitPackage(injector)
	container.MetricsPackage(injector)
	container.WorkerPackage(injector)
	container.PublisherGroupPackage(injector)
	container.AnalyticsPackage(injector)
	container.HTTPPackage(injector)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var server *http.Server

		hooks.OnStart(func() {
			if err := options.Validate(); err != nil {
				logger.Fatal("invalid options", zap.Error(err))
			}

			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("store", options.Store),
				zap.String("clickSink", options.ClickSink),
			)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			// Pending click tasks drain here, before the stores close.
			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
		})
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema for the configured store",
		Run: humacli.WithOptions(func(_ *cobra.Command, _ []string, options *container.Options) {
			injector := do.New()
			registerPackages(injector, options)

			logger := do.MustInvoke[*zap.Logger](injector)

			if err := migrate(injector, options); err != nil {
				logger.Fatal("migration failed", zap.String("store", options.Store), zap.Error(err))
			}

			logger.Info("migration complete", zap.String("store", options.Store))

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}
		}),
	})

	cli.Run()
}

func migrate(injector *do.Injector, options *container.Options) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch options.Store {
	case container.StorePostgres:
		pg, err := do.Invoke[*container.Postgres](injector)
		if err != nil {
			return err
		}

		return store.MigratePostgres(ctx, pg.Pool)
	case container.StoreSQLite:
		// Opening the database applies the schema.
		_, err := do.Invoke[*container.Storage](injector)

		return err
	default:
		return fmt.Errorf("store %q has no schema", options.Store)
	}
}
