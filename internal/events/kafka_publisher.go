package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards dispatched events to a Kafka topic as JSON. Writes
// are best-effort: failures are logged and never reach the caller.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

// NewKafkaPublisher returns nil when brokers or topic are missing so callers
// can skip the subscription.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
		},
		logger: logger,
	}
}

// Register subscribes the publisher to every event type.
func (p *KafkaPublisher) Register(d Dispatcher) {
	if p == nil || d == nil {
		return
	}
	SubscribeAll(d, AllEventTypes, p.Handle)
}

// Handle writes one event keyed by thread id so a thread's events stay ordered
// within a partition.
func (p *KafkaPublisher) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("kafka: marshal event", zap.String("event_type", string(event.Type)), zap.Error(err))
		return nil
	}
	msg := kafka.Message{Value: body}
	if event.ThreadID != 0 {
		msg.Key = []byte(strconv.FormatInt(event.ThreadID, 10))
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("kafka: write event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
