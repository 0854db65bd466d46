package container

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/brandlink/internal/analytics"
	"github.com/serroba/brandlink/internal/handlers"
	"github.com/serroba/brandlink/internal/health"
	"github.com/serroba/brandlink/internal/messaging"
	"github.com/serroba/brandlink/internal/metrics"
	"github.com/serroba/brandlink/internal/middleware"
	"github.com/serroba/brandlink/internal/ratelimit"
	"github.com/serroba/brandlink/internal/shortener"
	"github.com/serroba/brandlink/internal/worker"
	"go.uber.org/zap"
)

// MetricsPackage provides the Prometheus collectors.
func MetricsPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
}

// WorkerPackage provides the started background pool that records clicks.
func WorkerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*worker.Pool, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		pool := worker.NewPool(worker.Config{
			Workers:     opts.Workers,
			QueueSize:   opts.QueueSize,
			TaskTimeout: time.Duration(opts.TaskTimeout) * time.Second,
		}, m, logger)

		if err := pool.Start(context.Background()); err != nil {
			return nil, err
		}

		return pool, nil
	})
}

// AnalyticsPackage provides the click recorder. Clicks go straight to the
// store, or onto the Redis stream for cmd/consumer with --click-sink=stream.
func AnalyticsPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*analytics.Recorder, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		var sink analytics.Store
		if opts.ClickSink == SinkStream {
			sink = analytics.NewPublishSink(do.MustInvoke[*messaging.PublisherGroup](i).Publisher())
		} else {
			sink = do.MustInvoke[*Storage](i).Clicks
		}

		var locator analytics.Locator
		if opts.GeoURL != "" {
			locator = analytics.NewHTTPLocator(opts.GeoURL, nil)
		}

		return analytics.NewRecorder(sink, locator, m, logger), nil
	})
}

// HTTPPackage provides the router and the Huma API with every route and
// middleware registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		storage := do.MustInvoke[*Storage](i)
		limiter := do.MustInvoke[*ratelimit.PolicyLimiter](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		// The recorder and its sink must outlive the pool: the injector shuts
		// services down in reverse invocation order, so the pool drains first.
		recorder := do.MustInvoke[*analytics.Recorder](i)
		pool := do.MustInvoke[*worker.Pool](i)

		huma.NewError = handlers.NewAPIError

		api := humachi.New(router, huma.DefaultConfig("Brandlink", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))
		api.UseMiddleware(middleware.PolicyRateLimiter(api, limiter, ratelimit.NewOperationScopeResolver(), logger))

		redirect := handlers.NewRedirectHandler(
			shortener.NewDomainResolver(storage.Repository, opts.DefaultDomain),
			storage.Repository,
			shortener.NewAccessGuard(time.Now),
			recorder,
			pool,
			m,
			handlers.RedirectConfig{Status: opts.RedirectStatus},
			logger,
		)

		health.RegisterRoutes(api, health.NewHandler(storage.Checks))

		if opts.AdminToken != "" {
			creator := do.MustInvoke[*shortener.Creator](i)
			handlers.RegisterAdminRoutes(api, handlers.NewAdminHandler(creator, opts.AdminToken, "https", logger))
		} else {
			logger.Info("admin api disabled; set --admin-token to enable it")
		}

		router.Handle("/metrics", m.Handler())

		handlers.RegisterRoutes(api, redirect)

		return api, nil
	})
}
