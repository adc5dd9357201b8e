package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// ErrPermanent marks a message that will never succeed. The consumer commits
// past it instead of retrying.
var ErrPermanent = errors.New("kafka: permanent message failure")

type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	backoff []time.Duration
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, backoff []time.Duration, logger *slog.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.ClientID = clientID
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: consumer group: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: g, handler: handler, backoff: backoff, logger: logger}, nil
}

func (c *Consumer) Run(ctx context.Context, topics []string) error {
	go func() {
		for err := range c.group.Errors() {
			c.logger.WarnContext(ctx, "kafka consumer error", "err", err)
		}
	}()
	h := groupHandler{handler: c.handler, backoff: c.backoff, logger: c.logger}
	for {
		if err := c.group.Consume(ctx, topics, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler MessageHandler
	backoff []time.Duration
	logger  *slog.Logger
}

func (h groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.handle(sess.Context(), message); err != nil {
			// transient failure outlived the retries; leave the offset so the
			// next session redelivers from here
			return err
		}
		sess.MarkMessage(message, "")
	}
	return nil
}

// handle retries transient failures with the configured backoff. Permanent
// failures are logged and skipped.
func (h groupHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = h.handler.Handle(ctx, msg)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrPermanent) {
			h.logger.WarnContext(ctx, "kafka message dropped", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
			return nil
		}
		if attempt >= len(h.backoff) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.backoff[attempt]):
		}
	}
}
