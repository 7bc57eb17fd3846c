package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lystun/payflo-sub003/internal/config"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// NotificationProducer publishes payout outcomes for downstream email/SMS
// delivery. Publishing is fire and forget: a write failure is logged and
// never surfaces into the settlement run.
type NotificationProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

func NewNotificationProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*NotificationProducer, error) {
	if cfg.NotificationTopic == "" {
		return nil, fmt.Errorf("kafka notification topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for notification producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.NotificationTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure notification topic %s exists: %w", cfg.NotificationTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.NotificationTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write notifications asynchronously", "topic", cfg.NotificationTopic, "error", err, "count", len(messages))
			}
		},
	}

	return &NotificationProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.NotificationTopic,
	}, nil
}

// NotifyPayout publishes one payout outcome, keyed by transaction reference
func (p *NotificationProducer) NotifyPayout(ctx context.Context, notification *shared.PayoutNotification) {
	if err := publishJSON(ctx, p.writer, p.logger, p.topic, notification.Reference, notification); err != nil {
		p.logger.Error("Failed to publish payout notification",
			"reference", notification.Reference,
			"business_id", notification.BusinessID.String(),
			"error", err,
		)
	}
}

func (p *NotificationProducer) Close() error {
	p.logger.Info("Closing notification producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
