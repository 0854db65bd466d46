package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Metadata keys set on every published message.
const (
	MetadataTopic       = "topic"
	MetadataPublishedAt = "published_at"
)

// Publish sends one event.
type Publish[T any] func(ctx context.Context, event *T) error

// KeyFunc derives the message ID from an event. Consumers see the same ID on
// redelivery, so an ID taken from the event lets them dedupe.
type KeyFunc[T any] func(event *T) string

// NewPublishFunc returns a JSON publisher for topic. A nil key or an empty
// key result falls back to a random UUID.
func NewPublishFunc[T any](publisher message.Publisher, topic string, key KeyFunc[T]) Publish[T] {
	return func(ctx context.Context, event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", topic, err)
		}

		id := ""
		if key != nil {
			id = key(event)
		}

		if id == "" {
			id = watermill.NewUUID()
		}

		msg := message.NewMessage(id, payload)
		msg.Metadata.Set(MetadataTopic, topic)
		msg.Metadata.Set(MetadataPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))
		msg.SetContext(ctx)

		if err := publisher.Publish(topic, msg); err != nil {
			return fmt.Errorf("publish %s event %s: %w", topic, id, err)
		}

		return nil
	}
}

// PublisherGroup owns the publisher shared by every Publish func.
type PublisherGroup struct {
	publisher message.Publisher
}

func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the publisher.
func (g *PublisherGroup) Shutdown() error {
	if err := g.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}

	return nil
}
