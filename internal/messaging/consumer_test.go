package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/brandlink/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type visitEvent struct {
	ID     string `json:"id"`
	LinkID string `json:"linkId"`
}

type stubSubscriber struct {
	msgs         chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newStubSubscriber() *stubSubscriber {
	return &stubSubscriber{msgs: make(chan *message.Message, 10)}
}

func (s *stubSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}

	return s.msgs, nil
}

func (s *stubSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.msgs)
	}

	return nil
}

type recordingObserver struct {
	mu      sync.Mutex
	results []string
}

func (o *recordingObserver) StreamEvent(_, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.results = append(o.results, result)
}

func (o *recordingObserver) Results() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]string(nil), o.results...)
}

func visitMessage(t *testing.T, e visitEvent) *message.Message {
	t.Helper()

	payload, err := json.Marshal(e)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

// waitSettled returns "ack" or "nack".
func waitSettled(t *testing.T, msg *message.Message) string {
	t.Helper()

	select {
	case <-msg.Acked():
		return "ack"
	case <-msg.Nacked():
		return "nack"
	case <-time.After(2 * time.Second):
		t.Fatal("message was never settled")

		return ""
	}
}

func startConsumer(
	t *testing.T, cfg messaging.ConsumerConfig, h messaging.Handler[visitEvent], obs messaging.Observer,
) (*stubSubscriber, *messaging.Consumer[visitEvent]) {
	t.Helper()

	sub := newStubSubscriber()
	c := messaging.NewConsumer(sub, cfg, h, obs, zap.NewNop())
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Shutdown() })

	return sub, c
}

func TestConsumerStart(t *testing.T) {
	t.Run("reports its topic", func(t *testing.T) {
		_, c := startConsumer(t, messaging.ConsumerConfig{Topic: "clicks.test"},
			func(context.Context, *visitEvent) error { return nil }, nil)

		assert.Equal(t, "clicks.test", c.Topic())
	})

	t.Run("returns subscribe error and shuts down cleanly", func(t *testing.T) {
		sub := &stubSubscriber{subscribeErr: errors.New("stream unreachable")}
		c := messaging.NewConsumer[visitEvent](sub, messaging.ConsumerConfig{Topic: "clicks.test"},
			func(context.Context, *visitEvent) error { return nil }, nil, zap.NewNop())

		require.Error(t, c.Start(context.Background()))
		assert.NoError(t, c.Shutdown())
	})

	t.Run("shutdown without start returns", func(t *testing.T) {
		c := messaging.NewConsumer[visitEvent](newStubSubscriber(), messaging.ConsumerConfig{Topic: "clicks.test"},
			func(context.Context, *visitEvent) error { return nil }, nil, zap.NewNop())

		assert.NoError(t, c.Shutdown())
	})
}

func TestConsumerHandling(t *testing.T) {
	t.Run("acks handled events", func(t *testing.T) {
		obs := &recordingObserver{}
		got := make(chan visitEvent, 1)

		sub, _ := startConsumer(t, messaging.ConsumerConfig{Topic: "clicks.test"},
			func(_ context.Context, e *visitEvent) error {
				got <- *e

				return nil
			}, obs)

		msg := visitMessage(t, visitEvent{ID: "c1", LinkID: "l1"})
		sub.msgs <- msg

		assert.Equal(t, "ack", waitSettled(t, msg))
		assert.Equal(t, visitEvent{ID: "c1", LinkID: "l1"}, <-got)
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual([]string{messaging.ResultHandled}, obs.Results())
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("acks and drops undecodable payloads", func(t *testing.T) {
		obs := &recordingObserver{}
		var calls atomic.Int32

		sub, _ := startConsumer(t, messaging.ConsumerConfig{Topic: "clicks.test", Retries: 3},
			func(context.Context, *visitEvent) error {
				calls.Add(1)

				return nil
			}, obs)

		msg := message.NewMessage(uuid.NewString(), []byte("not json"))
		sub.msgs <- msg

		assert.Equal(t, "ack", waitSettled(t, msg))
		assert.Zero(t, calls.Load())
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual([]string{messaging.ResultDropped}, obs.Results())
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("retries transient failures before acking", func(t *testing.T) {
		var calls atomic.Int32

		sub, _ := startConsumer(t, messaging.ConsumerConfig{Topic: "clicks.test", Retries: 2, Backoff: time.Millisecond},
			func(context.Context, *visitEvent) error {
				if calls.Add(1) < 3 {
					return errors.New("database busy")
				}

				return nil
			}, nil)

		msg := visitMessage(t, visitEvent{ID: "c2"})
		sub.msgs <- msg

		assert.Equal(t, "ack", waitSettled(t, msg))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("nacks once retries are exhausted", func(t *testing.T) {
		obs := &recordingObserver{}
		var calls atomic.Int32

		sub, _ := startConsumer(t, messaging.ConsumerConfig{Topic: "clicks.test", Retries: 1, Backoff: time.Millisecond},
			func(context.Context, *visitEvent) error {
				calls.Add(1)

				return errors.New("database down")
			}, obs)

		msg := visitMessage(t, visitEvent{ID: "c3"})
		sub.msgs <- msg

		assert.Equal(t, "nack", waitSettled(t, msg))
		assert.Equal(t, int32(2), calls.Load())
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual([]string{messaging.ResultFailed}, obs.Results())
		}, time.Second, 5*time.Millisecond)
	})
}
