package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes keyed settlement events to a single topic.
// The key decides partition assignment, so callers pick it to serialize
// related events (transaction reference, batch code).
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher parks unprocessable messages on the DLQ topic
// together with the failure reason.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
