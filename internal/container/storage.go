package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/samber/do"
	"github.com/serroba/brandlink/internal/analytics"
	"github.com/serroba/brandlink/internal/health"
	"github.com/serroba/brandlink/internal/ratelimit"
	"github.com/serroba/brandlink/internal/shortener"
	"github.com/serroba/brandlink/internal/store"
	"go.uber.org/zap"
)

// Storage is the selected backing store seen through the interfaces the
// rest of the service needs.
type Storage struct {
	Repository shortener.Repository
	Clicks     analytics.Store
	Checks     map[string]health.Checker

	closer func() error
}

// Shutdown releases stores the container opened itself.
func (s *Storage) Shutdown() error {
	if s.closer == nil {
		return nil
	}

	return s.closer()
}

// RepositoryPackage provides the link store, wrapped in the Redis cache when
// Redis is enabled, and the Creator used by the admin API.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Storage, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		rdb := do.MustInvoke[*Redis](i)

		storage, err := openStorage(i, opts)
		if err != nil {
			return nil, err
		}

		if rdb.Enabled() {
			storage.Checks["redis"] = health.NewRedisChecker(rdb.Client)

			if opts.CacheTTL > 0 {
				storage.Repository = store.NewRedisCacheRepository(
					storage.Repository, rdb.Client, time.Duration(opts.CacheTTL)*time.Second,
				)
			}
		}

		logger.Info("storage ready",
			zap.String("store", opts.Store),
			zap.Bool("cache", rdb.Enabled() && opts.CacheTTL > 0),
		)

		return storage, nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Creator, error) {
		opts := do.MustInvoke[*Options](i)
		storage := do.MustInvoke[*Storage](i)

		generate, err := nanoid.Standard(opts.SlugLength)
		if err != nil {
			return nil, fmt.Errorf("slug generator: %w", err)
		}

		return shortener.NewCreator(storage.Repository, generate, opts.DefaultDomain), nil
	})
}

func openStorage(i *do.Injector, opts *Options) (*Storage, error) {
	switch opts.Store {
	case StorePostgres:
		pg := do.MustInvoke[*Postgres](i)
		s := store.NewPostgresStore(pg.Pool)

		return &Storage{
			Repository: s,
			Clicks:     s,
			Checks:     map[string]health.Checker{"postgres": s},
		}, nil

	case StoreSQLite:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s, err := store.OpenSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		return &Storage{
			Repository: s,
			Clicks:     s,
			Checks:     map[string]health.Checker{"sqlite": s},
			closer:     s.Shutdown,
		}, nil

	default:
		s := store.NewMemoryStore()
		if err := seedDefaultDomain(s, opts.DefaultDomain); err != nil {
			return nil, err
		}

		return &Storage{
			Repository: s,
			Clicks:     s,
			Checks:     map[string]health.Checker{"memory": s},
		}, nil
	}
}

// seedDefaultDomain registers the default domain so a fresh in-memory
// server can create links without the admin domain call.
func seedDefaultDomain(s shortener.Repository, name string) error {
	if name == "" {
		return nil
	}

	creator := shortener.NewCreator(s, nil, name)

	_, err := creator.CreateDomain(context.Background(), shortener.NewDomain{
		UserID:   "system",
		Name:     name,
		Verified: true,
		Default:  true,
	})
	if err != nil && !errors.Is(err, shortener.ErrDomainTaken) {
		return fmt.Errorf("seed default domain: %w", err)
	}

	return nil
}

// RateLimitPackage provides the policy limiter, backed by Redis when it is
// enabled so limits hold across replicas.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		rdb := do.MustInvoke[*Redis](i)

		var backend ratelimit.Store = store.NewRateLimitMemoryStore()
		if rdb.Enabled() {
			backend = store.NewRateLimitRedisStore(rdb.Client)
		}

		return ratelimit.NewPolicyLimiter(backend, ratelimit.DefaultPolicy()), nil
	})
}
