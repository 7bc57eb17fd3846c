package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/platform/messaging/producers"
	"github.com/lystun/payflo-sub003/internal/settlement/service"
)

// CollectionEventHandler handles incoming collection reports from Kafka
type CollectionEventHandler struct {
	reportingService service.ReportingService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

func NewCollectionEventHandler(
	logger *slog.Logger,
	reportingService service.ReportingService,
	producer producers.DeadLetterPublisher,
) *CollectionEventHandler {
	return &CollectionEventHandler{
		reportingService: reportingService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage processes one collection report message
func (h *CollectionEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.CollectionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return h.deadLetter(ctx, key, value, "Failed to unmarshal collection event from Kafka message", err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received collection report",
		"reference", event.Reference,
		"business_id", event.BusinessID.String(),
	)

	if err := h.reportingService.ReportCollection(ctx, &event); err != nil {
		logger.Error("Failed to report collection",
			"reference", event.Reference,
			"error", err,
		)
		return fmt.Errorf("reporting collection %s failed: %w", event.Reference, err)
	}

	logger.Info("Successfully reported collection", "reference", event.Reference)
	return nil // Success, commit offset
}

// RunRequestHandler handles settlement run triggers from Kafka. The topic is
// keyed by batch code, so all runs for one batch land on one consumer.
type RunRequestHandler struct {
	runService service.RunService
	producer   producers.DeadLetterPublisher
	logger     *slog.Logger
}

func NewRunRequestHandler(
	logger *slog.Logger,
	runService service.RunService,
	producer producers.DeadLetterPublisher,
) *RunRequestHandler {
	return &RunRequestHandler{
		runService: runService,
		producer:   producer,
		logger:     logger,
	}
}

// HandleMessage processes one run trigger message
func (h *RunRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.RunRequest
	if err := json.Unmarshal(value, &request); err != nil {
		return h.deadLetter(ctx, key, value, "Failed to unmarshal run request from Kafka message", err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received settlement run request",
		"batch_code", request.BatchCode,
		"mode", string(request.Mode),
		"force", request.Force,
	)

	if err := h.runService.Run(ctx, &request); err != nil {
		logger.Error("Settlement run failed",
			"batch_code", request.BatchCode,
			"error", err,
		)
		return fmt.Errorf("settlement run for batch %s failed: %w", request.BatchCode, err)
	}

	logger.Info("Settlement run request handled", "batch_code", request.BatchCode)
	return nil // Success, commit offset
}

func (h *CollectionEventHandler) deadLetter(ctx context.Context, key, value []byte, msg string, cause error) error {
	return publishToDLQ(ctx, h.logger, h.producer, key, value, msg, cause)
}

func (h *RunRequestHandler) deadLetter(ctx context.Context, key, value []byte, msg string, cause error) error {
	return publishToDLQ(ctx, h.logger, h.producer, key, value, msg, cause)
}

// publishToDLQ parks an unprocessable message on the DLQ so the offset can
// be committed. When the DLQ is unavailable the original error is returned
// and Kafka redelivers.
func publishToDLQ(ctx context.Context, logger *slog.Logger, producer producers.DeadLetterPublisher, key, value []byte, msg string, cause error) error {
	logger.Error(msg,
		"error", cause,
		"message_key", string(key),
	)

	if producer != nil {
		dlqReason := fmt.Sprintf("%s: %s", msg, cause.Error())
		if dlqErr := producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
			logger.Error("Failed to publish message to DLQ after unmarshal error",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			// Message handled, commit offset
			return nil
		}
	}
	return fmt.Errorf("failed to unmarshal message value: %w", cause)
}
