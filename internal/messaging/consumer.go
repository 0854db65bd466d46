package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Outcomes reported to an Observer.
const (
	ResultHandled = "handled"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)

// Handler processes one event. An error is retried, then nacked.
type Handler[T any] func(ctx context.Context, event *T) error

// Observer is told how each message ended.
type Observer interface {
	StreamEvent(topic, result string)
}

type nopObserver struct{}

func (nopObserver) StreamEvent(string, string) {}

// ConsumerConfig tunes a consumer.
type ConsumerConfig struct {
	Topic string
	// Retries is how many extra attempts a failing handler gets before the
	// message is nacked back to the stream.
	Retries int
	// Backoff is the wait before the first retry; it doubles per attempt.
	Backoff time.Duration
}

// Consumer decodes JSON messages of one topic into T and hands them to a handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	cfg        ConsumerConfig
	handler    Handler[T]
	observer   Observer
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a consumer. observer may be nil.
func NewConsumer[T any](
	subscriber message.Subscriber,
	cfg ConsumerConfig,
	handler Handler[T],
	observer Observer,
	logger *zap.Logger,
) *Consumer[T] {
	if observer == nil {
		observer = nopObserver{}
	}

	return &Consumer[T]{
		subscriber: subscriber,
		cfg:        cfg,
		handler:    handler,
		observer:   observer,
		logger:     logger.With(zap.String("topic", cfg.Topic)),
		done:       make(chan struct{}),
	}
}

func (c *Consumer[T]) Topic() string {
	return c.cfg.Topic
}

// Start subscribes and consumes in the background until ctx ends or
// Shutdown is called.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.cfg.Topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return err
	}

	go c.consumeLoop(ctx, msgs)

	return nil
}

func (c *Consumer[T]) consumeLoop(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer[T]) handleMessage(ctx context.Context, msg *message.Message) {
	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Redelivery cannot fix a payload that does not decode.
		c.logger.Error("dropping undecodable event", zap.String("messageId", msg.UUID), zap.Error(err))
		c.observer.StreamEvent(c.cfg.Topic, ResultDropped)
		msg.Ack()

		return
	}

	if err := c.handleWithRetry(ctx, &event); err != nil {
		c.logger.Error("failed to handle event",
			zap.String("messageId", msg.UUID),
			zap.Int("attempts", c.cfg.Retries+1),
			zap.Error(err),
		)
		c.observer.StreamEvent(c.cfg.Topic, ResultFailed)
		msg.Nack()

		return
	}

	msg.Ack()
	c.observer.StreamEvent(c.cfg.Topic, ResultHandled)
	c.logger.Debug("processed event", zap.String("messageId", msg.UUID))
}

func (c *Consumer[T]) handleWithRetry(ctx context.Context, event *T) error {
	wait := c.cfg.Backoff

	var err error

	for attempt := 0; ; attempt++ {
		if err = c.handler(ctx, event); err == nil || attempt >= c.cfg.Retries {
			return err
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}

		wait *= 2
	}
}

// Shutdown stops the consumer and waits for the in-flight message.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
