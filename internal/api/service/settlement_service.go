package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/platform/messaging/producers"
)

// SettlementServiceImpl implements the SettlementService interface
type SettlementServiceImpl struct {
	batchRepo batch.Repository
	txnRepo   transaction.Repository
	producer  producers.MessagePublisher
	logger    *slog.Logger
}

// NewSettlementService creates a new settlement service
func NewSettlementService(logger *slog.Logger, batchRepo batch.Repository, txnRepo transaction.Repository, producer producers.MessagePublisher) SettlementService {
	return &SettlementServiceImpl{
		batchRepo: batchRepo,
		txnRepo:   txnRepo,
		producer:  producer,
		logger:    logger,
	}
}

// RequestRun validates and enqueues a settlement run trigger. Messages are
// keyed by batch code so all runs of one batch land on one partition and
// execute serially.
func (s *SettlementServiceImpl) RequestRun(ctx context.Context, request *shared.RunRequest) error {
	if err := request.Validate(); err != nil {
		return err
	}

	key := request.BatchCode
	if key == "" {
		key = batch.CodeFor(time.Now())
	}

	if err := s.producer.Publish(ctx, key, request); err != nil {
		s.logger.Error("Failed to publish run request",
			"batch_code", key,
			"mode", string(request.Mode),
			"error", err,
		)
		return err
	}

	s.logger.Info("Settlement run requested",
		"batch_code", key,
		"mode", string(request.Mode),
		"force", request.Force,
		"include_past", request.IncludePast,
	)

	return nil
}

// GetBatch retrieves a settlement batch by its code
func (s *SettlementServiceImpl) GetBatch(ctx context.Context, code string) (*batch.Batch, error) {
	return s.batchRepo.GetByCode(ctx, code)
}

// GetBatchTransactions retrieves a page of a batch's transactions
func (s *SettlementServiceImpl) GetBatchTransactions(ctx context.Context, code string, page, perPage int) ([]*transaction.Transaction, error) {
	offset := (page - 1) * perPage
	return s.txnRepo.ListByBatch(ctx, code, perPage, offset)
}
