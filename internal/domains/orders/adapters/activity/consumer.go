package activity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer copies activity events from Kafka into a durable sink. Redelivered
// events whose id is already stored are committed without being written again.
// A message whose write fails is retried in place, so offsets are only ever
// committed in order and nothing behind a failing event is acknowledged.
type Consumer struct {
	r       messageReader
	sink    ports.ActivitySink
	logger  *slog.Logger
	backoff func() backoff.BackOff
}

func NewConsumer(brokers []string, topic, groupID string, sink ports.ActivitySink, logger *slog.Logger) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		sink:   sink,
		logger: logger,
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

// Run consumes until ctx is cancelled or the reader fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.store(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

// store keeps retrying msg until the sink accepts it or ctx ends.
func (c *Consumer) store(ctx context.Context, msg kafka.Message) error {
	notify := func(err error, wait time.Duration) {
		c.logger.Error("activity event not stored, retrying",
			slog.String("error", err.Error()),
			slog.Int64("offset", msg.Offset),
			slog.Int("partition", msg.Partition),
			slog.Duration("wait", wait))
	}
	return backoff.RetryNotify(func() error {
		return c.handle(ctx, msg)
	}, backoff.WithContext(c.newBackOff(), ctx), notify)
}

func (c *Consumer) newBackOff() backoff.BackOff {
	if c.backoff != nil {
		return c.backoff()
	}
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// Malformed payloads can never succeed; log and move past them.
		c.logger.Warn("discarding malformed activity event", slog.String("error", err.Error()))
		return nil
	}
	err := c.sink.Record(ctx, event.entry())
	if errors.Is(err, ports.ErrDuplicateActivity) {
		return nil
	}
	return err
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
