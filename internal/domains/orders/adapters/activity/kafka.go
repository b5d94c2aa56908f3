package activity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

const DefaultTopic = "orders.activity"

var _ ports.ActivitySink = (*KafkaPublisher)(nil)

// Event is the wire form of an activity entry.
type Event struct {
	ID          string    `json:"id"`
	ActorID     int64     `json:"actorId"`
	ActorName   string    `json:"actorName"`
	ActionType  string    `json:"actionType"`
	Description string    `json:"description"`
	TargetType  string    `json:"targetType"`
	TargetID    int64     `json:"targetId"`
	RecordedAt  time.Time `json:"recordedAt"`
}

func toEvent(entry ports.ActivityEntry) Event {
	return Event{
		ID:          entry.ID,
		ActorID:     entry.ActorID,
		ActorName:   entry.ActorName,
		ActionType:  entry.ActionType,
		Description: entry.Description,
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		RecordedAt:  entry.RecordedAt.UTC(),
	}
}

func (e Event) entry() ports.ActivityEntry {
	return ports.ActivityEntry{
		ID:          e.ID,
		ActorID:     e.ActorID,
		ActorName:   e.ActorName,
		ActionType:  e.ActionType,
		Description: e.Description,
		TargetType:  e.TargetType,
		TargetID:    e.TargetID,
		RecordedAt:  e.RecordedAt.UTC(),
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher appends activity entries to a Kafka topic keyed by order id,
// so entries for one order stay on one partition in order.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Record(ctx context.Context, entry ports.ActivityEntry) error {
	if p == nil || p.w == nil {
		return errors.New("kafka activity publisher not configured")
	}
	value, err := json.Marshal(toEvent(entry))
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.TargetType + ":" + itoa(entry.TargetID)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(entry.ActionType)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}
