package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/fees"
	"github.com/lystun/payflo-sub003/internal/platform/messaging/producers"
)

// ErrLinkOwnership indicates a payment link used with the wrong business
var ErrLinkOwnership = errors.New("payment link does not belong to this business")

// CollectionServiceImpl implements the CollectionService interface
type CollectionServiceImpl struct {
	businessRepo business.Repository
	txnRepo      transaction.Repository
	calculator   *fees.Calculator
	producer     producers.MessagePublisher
	logger       *slog.Logger
}

// NewCollectionService creates a new collection service
func NewCollectionService(
	logger *slog.Logger,
	businessRepo business.Repository,
	txnRepo transaction.Repository,
	calculator *fees.Calculator,
	producer producers.MessagePublisher,
) CollectionService {
	return &CollectionServiceImpl{
		businessRepo: businessRepo,
		txnRepo:      txnRepo,
		calculator:   calculator,
		producer:     producer,
		logger:       logger,
	}
}

// ReportCollection computes fees, records the ledger transaction, and
// publishes the collection event. Grouping and wallet funding happen on
// the worker, so a slow batch document never blocks the collection path.
func (s *CollectionServiceImpl) ReportCollection(ctx context.Context, params ReportCollectionParams) (*transaction.Transaction, error) {
	biz, err := s.businessRepo.GetByID(ctx, params.BusinessID)
	if err != nil {
		return nil, err
	}

	link, err := s.businessRepo.GetPaymentLink(ctx, params.PaymentLinkID)
	if err != nil {
		return nil, err
	}
	if link.BusinessID != biz.ID {
		return nil, ErrLinkOwnership
	}

	breakdown, err := s.calculator.Calculate(params.Amount, shared.FeatureCollection, s.calculator.SettingsFor(biz))
	if err != nil {
		return nil, err
	}

	txn, err := transaction.NewCollection(biz.ID, link.ID, params.Currency, params.Amount, breakdown.Fee, breakdown.VAT, breakdown.Revenue)
	if err != nil {
		return nil, err
	}
	txn.CorrelationID = params.CorrelationID

	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, err
	}

	event := &shared.CollectionEvent{
		Reference:     txn.Reference,
		BusinessID:    biz.ID,
		CorrelationID: params.CorrelationID,
		Timestamp:     time.Now(),
	}
	if err := s.producer.Publish(ctx, txn.Reference, event); err != nil {
		// The transaction is durable; only the report into the batch is
		// lost. Surface the failure so the caller retries the publish.
		s.logger.Error("Failed to publish collection event",
			"reference", txn.Reference,
			"business_id", biz.ID.String(),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Collection reported",
		"reference", txn.Reference,
		"business_id", biz.ID.String(),
		"amount", txn.Amount,
		"settle_amount", txn.SettleAmount,
	)

	return txn, nil
}
