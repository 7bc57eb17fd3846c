package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
)

type ReportingServiceImpl struct {
	batches      batch.Repository
	transactions transaction.Repository
	grouping     GroupingEngine
	wallets      WalletLedger
	platformID   uuid.UUID
	logger       *slog.Logger
}

func NewReportingService(
	batches batch.Repository,
	transactions transaction.Repository,
	grouping GroupingEngine,
	wallets WalletLedger,
	platformID uuid.UUID,
	logger *slog.Logger,
) ReportingService {
	return &ReportingServiceImpl{
		batches:      batches,
		transactions: transactions,
		grouping:     grouping,
		wallets:      wallets,
		platformID:   platformID,
		logger:       logger,
	}
}

// ReportCollection attaches a reported collection to today's batch and
// credits the merchant's settlement bucket with the net settle amount. The
// credit is keyed to the transaction reference, so redeliveries and replays
// after a partial failure land exactly one funding. Returned errors are
// retried by the consumer.
func (s *ReportingServiceImpl) ReportCollection(ctx context.Context, event *shared.CollectionEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Processing reported collection", "reference", event.Reference, "business_id", event.BusinessID.String())

	today := time.Now()
	b, err := s.batches.FindOrCreateForDate(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to load batch for %s: %w", batch.CodeFor(today), err)
	}

	attached, err := s.grouping.ReportTransaction(ctx, b, event.Reference, today)
	if err != nil {
		return err
	}

	funded := false
	if attached {
		txn, err := s.transactions.GetByReference(ctx, event.Reference)
		if err != nil {
			return err
		}
		funded, err = s.wallets.FundSettlement(ctx, txn)
		if err != nil {
			return fmt.Errorf("failed to fund settlement bucket for %s: %w", event.Reference, err)
		}
		if funded {
			s.accrueRevenue(ctx, txn, logger)
		}
	}

	if err := s.batches.Save(ctx, b); err != nil {
		return fmt.Errorf("failed to save batch %s: %w", b.Code, err)
	}

	logger.Info("Collection reported into batch", "reference", event.Reference, "batch_code", b.Code, "funded", funded)
	return nil
}

// accrueRevenue parks the platform's cut of a collection (fee plus VAT) in
// the platform wallet's locked bucket. Accrual failures are logged, not
// retried, so a wallet hiccup cannot wedge the collection stream.
func (s *ReportingServiceImpl) accrueRevenue(ctx context.Context, txn *transaction.Transaction, logger *slog.Logger) {
	cut := txn.Fee + txn.VATFee
	if s.platformID == uuid.Nil || cut == 0 {
		return
	}
	if _, err := s.wallets.CreditLocked(ctx, s.platformID, cut); err != nil {
		logger.Error("Failed to accrue platform revenue",
			"reference", txn.Reference,
			"amount", cut,
			"error", err,
		)
	}
}
