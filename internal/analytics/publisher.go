package analytics

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/brandlink/internal/messaging"
	"go.uber.org/zap"
)

// TopicClickRecorded carries clicks from the API to the analytics consumer.
const TopicClickRecorded = "clicks.recorded"

const (
	consumerRetries = 3
	consumerBackoff = 200 * time.Millisecond
)

// PublishSink is a Store that hands clicks to the message stream instead of
// writing them directly.
type PublishSink struct {
	publish messaging.Publish[Click]
}

// NewPublishSink creates a sink publishing to TopicClickRecorded. The click
// ID doubles as the message ID.
func NewPublishSink(publisher message.Publisher) *PublishSink {
	return &PublishSink{
		publish: messaging.NewPublishFunc[Click](publisher, TopicClickRecorded, func(c *Click) string { return c.ID }),
	}
}

func (s *PublishSink) SaveClick(ctx context.Context, click *Click) error {
	return s.publish(ctx, click)
}

// NewClickConsumer creates a consumer persisting streamed clicks into store.
// Stores ignore a click ID they already hold, so redelivery is harmless.
func NewClickConsumer(
	subscriber message.Subscriber, store Store, observer messaging.Observer, logger *zap.Logger,
) *messaging.Consumer[Click] {
	return messaging.NewConsumer[Click](subscriber, messaging.ConsumerConfig{
		Topic:   TopicClickRecorded,
		Retries: consumerRetries,
		Backoff: consumerBackoff,
	}, store.SaveClick, observer, logger)
}

var _ Store = (*PublishSink)(nil)
