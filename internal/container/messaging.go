package container

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/samber/do"
	"github.com/serroba/brandlink/internal/analytics"
	analyticsstore "github.com/serroba/brandlink/internal/analytics/store"
	"github.com/serroba/brandlink/internal/messaging"
	"github.com/serroba/brandlink/internal/metrics"
	"github.com/serroba/brandlink/internal/store"
	"go.uber.org/zap"
)

// ClickConsumerGroup is the Redis stream consumer group clicks are read with.
const ClickConsumerGroup = "brandlink-clicks"

// PublisherGroupPackage provides the Redis stream publisher.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		rdb := do.MustInvoke[*Redis](i)

		if !rdb.Enabled() {
			return nil, fmt.Errorf("redis stream publisher: redis-addr is empty")
		}

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: rdb.Client},
			messaging.NewZapLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("redis stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the consumer group that drains the click
// stream into PostgreSQL, or into the log when no database is configured.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		rdb := do.MustInvoke[*Redis](i)

		if !rdb.Enabled() {
			return nil, fmt.Errorf("redis stream subscriber: redis-addr is empty")
		}

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        rdb.Client,
				ConsumerGroup: ClickConsumerGroup,
			},
			messaging.NewZapLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("redis stream subscriber: %w", err)
		}

		var sink analytics.Store = analyticsstore.NewLog(logger)
		if opts.DatabaseURL != "" {
			sink = store.NewPostgresStore(do.MustInvoke[*Postgres](i).Pool)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewClickConsumer(subscriber, sink, do.MustInvoke[*metrics.Metrics](i), logger))

		return group, nil
	})
}
