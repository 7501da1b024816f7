package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"pizza-storefront/internal/logs"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards cart events to a topic, keyed by session so one session's events
// stay ordered within a partition.
type KafkaPublisher struct {
	writer  MessageWriter
	logger  *slog.Logger
	timeout time.Duration
}

// NewKafkaPublisher builds an async writer; delivery failures are logged, never returned to
// the cart operation that raised the event.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	logger = logs.OrDiscard(logger)
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("publish cart events", "count", len(messages), "err", err)
			}
		},
	}
	return NewKafkaPublisherWithWriter(writer, logger)
}

func NewKafkaPublisherWithWriter(w MessageWriter, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: logs.OrDiscard(logger), timeout: 5 * time.Second}
}

// Handle is a bus Handler.
func (p *KafkaPublisher) Handle(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("encode cart event", "type", e.Type, "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Session),
		Value: data,
		Time:  e.At,
	}); err != nil {
		p.logger.Error("publish cart event", "type", e.Type, "session", e.Session, "err", err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
