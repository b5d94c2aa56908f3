package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

const (
	DefaultChannel = "orders.notifications"
	recentKey      = "orders:notifications:recent"
	recentLimit    = 100
)

var _ ports.NotificationSink = (*RedisPublisher)(nil)

// Message is the JSON payload published for every notification.
type Message struct {
	Level   string    `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	OrderID int64     `json:"orderId,omitempty"`
	At      time.Time `json:"at"`
}

// RedisPublisher publishes notifications on a pub/sub channel and keeps a capped
// list of the most recent ones for clients that connect late.
type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
}

func NewRedisPublisher(rdb redis.UniversalClient, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Notify(ctx context.Context, n ports.Notification) error {
	if p == nil || p.rdb == nil {
		return errors.New("redis notification publisher not configured")
	}
	payload, err := json.Marshal(Message{
		Level:   string(n.Level),
		Title:   n.Title,
		Message: n.Message,
		OrderID: n.OrderID,
		At:      n.At.UTC(),
	})
	if err != nil {
		return err
	}
	pipe := p.rdb.TxPipeline()
	pipe.Publish(ctx, p.channel, payload)
	pipe.LPush(ctx, recentKey, payload)
	pipe.LTrim(ctx, recentKey, 0, recentLimit-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit notifications, newest first.
func (p *RedisPublisher) Recent(ctx context.Context, limit int64) ([]Message, error) {
	if p == nil || p.rdb == nil {
		return nil, errors.New("redis notification publisher not configured")
	}
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}
	raw, err := p.rdb.LRange(ctx, recentKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
