package revenue_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/outbox"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
)

// AdjustmentApplier applies one revenue adjustment to the platform wallet
type AdjustmentApplier interface {
	Apply(ctx context.Context, message *outbox.Message) error
}

type revenueWallet interface {
	DebitLocked(ctx context.Context, businessID uuid.UUID, amount int64) (*wallet.Wallet, error)
}

// AdjustmentApplierImpl implements AdjustmentApplier
type AdjustmentApplierImpl struct {
	outboxRepo outbox.Repository
	wallets    revenueWallet
	platformID uuid.UUID
	logger     *slog.Logger
}

func NewAdjustmentApplier(
	outboxRepo outbox.Repository,
	wallets revenueWallet,
	platformID uuid.UUID,
	logger *slog.Logger,
) AdjustmentApplier {
	return &AdjustmentApplierImpl{
		outboxRepo: outboxRepo,
		wallets:    wallets,
		platformID: platformID,
		logger:     logger,
	}
}

// Apply debits the platform wallet's locked bucket by the reversed
// transaction's fee plus VAT, then marks the message processed. Applying is
// idempotent through the outbox status; the poller never hands over a
// PROCESSED message.
func (a *AdjustmentApplierImpl) Apply(ctx context.Context, message *outbox.Message) error {
	adj, err := message.GetAdjustment()
	if err != nil {
		a.logger.Error("Failed to unmarshal revenue adjustment from outbox payload",
			"outbox_id", message.ID, "transaction_ref", message.TransactionRef, "error", err,
		)
		if updateErr := a.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToApply); updateErr != nil {
			a.logger.Error("Also failed to update outbox status after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	give := adj.Fee + adj.VATFee
	if give > 0 {
		if _, err := a.wallets.DebitLocked(ctx, a.platformID, give); err != nil {
			return fmt.Errorf("failed to debit platform locked bucket for %s: %w", adj.TransactionRef, err)
		}
	}

	if err := a.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		return fmt.Errorf("adjustment for %s applied, but failed to mark outbox %d as PROCESSED: %w",
			adj.TransactionRef, message.ID, err)
	}

	a.logger.Info("Revenue adjustment applied",
		"outbox_id", message.ID,
		"transaction_ref", adj.TransactionRef,
		"amount", give,
	)
	return nil
}
