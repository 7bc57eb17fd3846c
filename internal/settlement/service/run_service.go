package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
)

type RunServiceImpl struct {
	batches    batch.Repository
	grouping   GroupingEngine
	calculator LumpCalculator
	dispatcher PayoutDispatcher
	logger     *slog.Logger
}

func NewRunService(
	batches batch.Repository,
	grouping GroupingEngine,
	calculator LumpCalculator,
	dispatcher PayoutDispatcher,
	logger *slog.Logger,
) RunService {
	return &RunServiceImpl{
		batches:    batches,
		grouping:   grouping,
		calculator: calculator,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Run executes one settlement pass over a batch: refresh the overview,
// compute the payable lumps, dispatch them business by business, then apply
// the completion rule. A business failure aborts that business only.
func (s *RunServiceImpl) Run(ctx context.Context, request *shared.RunRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	if err := request.Validate(); err != nil {
		logger.Error("Rejecting malformed run request", "error", err)
		return nil
	}

	today := time.Now()
	code := request.BatchCode
	if code == "" {
		code = batch.CodeFor(today)
	}
	logger = logger.With("batch_code", code)

	b, err := s.batches.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, batch.ErrBatchNotFound{}) {
			logger.Warn("No batch exists for run request, nothing to do")
			return nil
		}
		return fmt.Errorf("failed to load batch %s: %w", code, err)
	}

	if b.IsSettled && !request.Force {
		logger.Info("Batch already settled, skipping run")
		return nil
	}
	if b.IsRunning {
		// Messages are keyed by batch code so a live concurrent run is not
		// possible; a stale flag means a prior run died mid-flight.
		logger.Warn("Batch marked running from a prior interrupted run, proceeding")
	}

	b.BeginRun()
	if err := s.batches.Save(ctx, b); err != nil {
		return fmt.Errorf("failed to persist run start for batch %s: %w", code, err)
	}

	if err := s.grouping.RefreshOverview(ctx, b, today); err != nil {
		return s.finish(ctx, b, logger, err)
	}

	lumps, err := s.calculator.ComputeGroups(ctx, b, request, today)
	if err != nil {
		return s.finish(ctx, b, logger, err)
	}

	logger.Info("Starting settlement run",
		"mode", string(request.Mode),
		"force", request.Force,
		"include_past", request.IncludePast,
		"businesses", len(lumps),
	)

	var failed int
	for _, lump := range lumps {
		if err := s.dispatcher.Dispatch(ctx, b, lump); err != nil {
			failed++
			logger.Error("Business payout failed, continuing with remaining businesses",
				"business_id", lump.Business.ID.String(),
				"error", err,
			)
		}
		// Persist per-business progress so a crash cannot replay payouts
		if err := s.batches.Save(ctx, b); err != nil {
			return fmt.Errorf("failed to persist run progress for batch %s: %w", code, err)
		}
	}

	if err := s.grouping.RefreshOverview(ctx, b, today); err != nil {
		return s.finish(ctx, b, logger, err)
	}

	if err := s.finish(ctx, b, logger, nil); err != nil {
		return err
	}

	logger.Info("Settlement run finished",
		"status", string(b.Status),
		"settled_businesses", len(b.Analytics.SettledBusinesses),
		"failed_businesses", failed,
		"settled_amount", b.Analytics.SettledAmount,
	)
	return nil
}

// finish closes the run, applies the completion rule, and records the audit
// snapshot even when the run aborted early.
func (s *RunServiceImpl) finish(ctx context.Context, b *batch.Batch, logger *slog.Logger, runErr error) error {
	b.FinishRun()
	if err := s.batches.Save(ctx, b); err != nil {
		logger.Error("Failed to persist run completion", "error", err)
		if runErr == nil {
			return fmt.Errorf("failed to persist run completion for batch %s: %w", b.Code, err)
		}
	}
	return runErr
}
