package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/brandlink/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	messages   []*message.Message
	topic      string
	publishErr error
	closeErr   error
}

func (p *capturePublisher) Publish(topic string, msgs ...*message.Message) error {
	if p.publishErr != nil {
		return p.publishErr
	}

	p.topic = topic
	p.messages = append(p.messages, msgs...)

	return nil
}

func (p *capturePublisher) Close() error {
	return p.closeErr
}

func eventID(e *visitEvent) string { return e.ID }

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes json with the event id and metadata", func(t *testing.T) {
		pub := &capturePublisher{}
		publish := messaging.NewPublishFunc[visitEvent](pub, "clicks.test", eventID)

		require.NoError(t, publish(context.Background(), &visitEvent{ID: "click-1", LinkID: "link-1"}))

		assert.Equal(t, "clicks.test", pub.topic)
		require.Len(t, pub.messages, 1)

		msg := pub.messages[0]
		assert.Equal(t, "click-1", msg.UUID)
		assert.Equal(t, "clicks.test", msg.Metadata.Get(messaging.MetadataTopic))

		_, err := time.Parse(time.RFC3339Nano, msg.Metadata.Get(messaging.MetadataPublishedAt))
		require.NoError(t, err)

		var got visitEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, "link-1", got.LinkID)
	})

	t.Run("generates an id without a key", func(t *testing.T) {
		pub := &capturePublisher{}
		publish := messaging.NewPublishFunc[visitEvent](pub, "clicks.test", nil)

		require.NoError(t, publish(context.Background(), &visitEvent{LinkID: "link-1"}))
		require.Len(t, pub.messages, 1)
		assert.NotEmpty(t, pub.messages[0].UUID)
	})

	t.Run("wraps publisher errors", func(t *testing.T) {
		pub := &capturePublisher{publishErr: errors.New("stream down")}
		publish := messaging.NewPublishFunc[visitEvent](pub, "clicks.test", eventID)

		err := publish(context.Background(), &visitEvent{ID: "click-2"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "stream down")
		assert.Contains(t, err.Error(), "click-2")
	})
}

func TestPublisherGroup(t *testing.T) {
	pub := &capturePublisher{}
	group := messaging.NewPublisherGroup(pub)

	assert.Equal(t, pub, group.Publisher())
	assert.NoError(t, group.Shutdown())

	failing := messaging.NewPublisherGroup(&capturePublisher{closeErr: errors.New("close error")})
	assert.ErrorContains(t, failing.Shutdown(), "close publisher")
}
