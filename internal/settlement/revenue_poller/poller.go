// Package revenue_poller drains the revenue-adjustment outbox: whenever a
// fee-bearing transaction is reversed, the platform's accrued cut is given
// back out of the locked bucket of the platform wallet.
package revenue_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lystun/payflo-sub003/internal/config"
	"github.com/lystun/payflo-sub003/internal/domain/outbox"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
)

// Poller processes pending revenue adjustments
type Poller struct {
	outboxRepo       outbox.Repository
	applier          AdjustmentApplier
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	applier AdjustmentApplier,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		applier:          applier,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting revenue adjustment poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Revenue adjustment poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			p.logger.Debug("Poller tick: processing pending adjustments")
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending adjustments", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending adjustments: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending adjustments found.")
		return nil
	}

	p.logger.Info("Fetched pending adjustments", "count", len(messages))

	for _, msg := range messages {
		err := p.applier.Apply(ctx, msg)
		if err != nil {
			p.logger.Error("Failed to apply revenue adjustment",
				"outbox_id", msg.ID, "transaction_ref", msg.TransactionRef, "current_attempts", msg.Attempts, "error", err,
			)

			if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
				p.logger.Error("Failed to increment attempts for adjustment", "outbox_id", msg.ID, "error", errInc)
				continue
			}

			if msg.Attempts+1 >= p.maxRetryAttempts {
				p.logger.Warn("Max retry attempts reached for adjustment, marking as FAILED_TO_APPLY",
					"outbox_id", msg.ID, "transaction_ref", msg.TransactionRef, "attempts_made", msg.Attempts+1,
				)
				if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToApply); errUpdate != nil {
					p.logger.Error("Failed to update adjustment status after max retries", "outbox_id", msg.ID, "error", errUpdate)
				}
			}
			continue
		}
		p.logger.Info("Applied revenue adjustment", "outbox_id", msg.ID, "transaction_ref", msg.TransactionRef)
	}
	return nil
}
