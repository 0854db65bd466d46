package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a consumer the group starts and stops.
type Runnable interface {
	Topic() string
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs consumers sharing one subscriber and closes the
// subscriber after the last of them stops.
type ConsumerGroup struct {
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Topics lists the topics of the registered consumers.
func (g *ConsumerGroup) Topics() []string {
	topics := make([]string, 0, len(g.consumers))
	for _, c := range g.consumers {
		topics = append(topics, c.Topic())
	}

	return topics
}

// Start starts every consumer. If one fails, those already started are
// stopped again.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			return fmt.Errorf("start consumer for %s: %w", consumer.Topic(), err)
		}
	}

	g.logger.Info("consumer group started", zap.Strings("topics", g.Topics()))

	return nil
}

// Shutdown stops every consumer, then closes the subscriber. All errors are joined.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group", zap.Strings("topics", g.Topics()))

	var errs []error

	for _, consumer := range g.consumers {
		if err := consumer.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("stop consumer for %s: %w", consumer.Topic(), err))
		}
	}

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}

	return errors.Join(errs...)
}
