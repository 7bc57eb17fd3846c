package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lystun/payflo-sub003/internal/config"
	"github.com/segmentio/kafka-go"
)

// CollectionEventProducer publishes collection reports onto the settlement
// stream. Messages are keyed by transaction reference; writes are async for
// throughput since the reporting path is idempotent end to end.
type CollectionEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

func NewCollectionEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*CollectionEventProducer, error) {
	if cfg.CollectionTopic == "" {
		return nil, fmt.Errorf("kafka collection topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for collection producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.CollectionTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure collection topic %s exists: %w", cfg.CollectionTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.CollectionTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Using async for high throughput
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.CollectionTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.CollectionTopic, "count", len(messages))
			}
		},
	}

	return &CollectionEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.CollectionTopic,
	}, nil
}

func (p *CollectionEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	return publishJSON(ctx, p.writer, p.logger, p.topic, key, value)
}

func (p *CollectionEventProducer) Close() error {
	p.logger.Info("Closing collection event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

// RunRequestProducer publishes settlement run triggers. Messages are keyed
// by batch code so one consumer owns a batch's runs, and writes are
// synchronous with full acks since a lost trigger means a missed run.
type RunRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

func NewRunRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*RunRequestProducer, error) {
	if cfg.RunTopic == "" {
		return nil, fmt.Errorf("kafka run topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for run producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.RunTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure run topic %s exists: %w", cfg.RunTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.RunTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &RunRequestProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.RunTopic,
	}, nil
}

func (p *RunRequestProducer) Publish(ctx context.Context, key string, value interface{}) error {
	return publishJSON(ctx, p.writer, p.logger, p.topic, key, value)
}

func (p *RunRequestProducer) Close() error {
	p.logger.Info("Closing run request producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

func publishJSON(ctx context.Context, writer KafkaWriter, logger *slog.Logger, topic, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		logger.Error("Failed to publish message",
			"topic", topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", topic, err)
	}

	logger.Debug("Published message",
		"topic", topic,
		"key", key,
	)
	return nil
}
