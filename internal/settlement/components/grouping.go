package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
)

// GroupingEngineImpl builds and maintains the batch's business/link/item
// tree from reported collection transactions.
type GroupingEngineImpl struct {
	transactions transaction.Repository
	businesses   business.Repository
	logger       *slog.Logger
}

func NewGroupingEngine(
	transactions transaction.Repository,
	businesses business.Repository,
	logger *slog.Logger,
) *GroupingEngineImpl {
	return &GroupingEngineImpl{
		transactions: transactions,
		businesses:   businesses,
		logger:       logger,
	}
}

// ReportTransaction attaches one collection to the batch tree. The whole
// operation is idempotent: re-reporting an attached transaction leaves the
// tree unchanged, and subaccount snapshots are replaced wholesale so late
// configuration changes surface on the next report. The returned flag says
// the transaction qualifies and belongs to this batch; it deliberately stays
// true on redelivery, because the ledger dedupes the settlement funding on
// the transaction reference and a lost batch save must not cost the
// merchant the credit.
func (g *GroupingEngineImpl) ReportTransaction(ctx context.Context, b *batch.Batch, reference string, today time.Time) (bool, error) {
	txn, err := g.transactions.GetByReference(ctx, reference)
	if err != nil {
		return false, fmt.Errorf("failed to load reported transaction %s: %w", reference, err)
	}

	if !txn.QualifiesForSettlement() {
		g.logger.Info("transaction does not qualify for settlement, skipping",
			"reference", reference,
			"feature", string(txn.Feature),
			"status", string(txn.Status),
		)
		return false, nil
	}

	if b.HasTransaction(reference) {
		return true, nil
	}

	biz, err := g.businesses.GetByID(ctx, txn.BusinessID)
	if err != nil {
		var notFound business.ErrBusinessNotFound
		if errors.As(err, &notFound) {
			g.logger.Error("reported transaction references unknown business, skipping",
				"reference", reference,
				"business_id", txn.BusinessID.String(),
			)
			return false, nil
		}
		return false, err
	}

	if b.Status == shared.BatchStatusCompleted {
		g.logger.Info("reopening completed batch for late collection", "batch_code", b.Code, "reference", reference)
		b.Reopen()
	}

	// A transaction already carrying this batch code was attached by an
	// earlier delivery whose batch save was lost; the tree entry is rebuilt
	// the same way as a fresh attach.
	b.AttachTransaction(txn)
	if err := g.transactions.AttachToBatch(ctx, reference, b.Code); err != nil {
		return false, fmt.Errorf("failed to attach transaction %s to batch %s: %w", reference, b.Code, err)
	}

	b.SchedulePayout(biz.ID, biz.NextPayoutDate(today))

	group := b.EnsureGroup(biz.ID)
	link := group.EnsureLink(txn.PaymentLinkID)
	g.snapshotSubaccounts(ctx, link, txn.PaymentLinkID)
	link.PruneSettledItems()
	link.Items[reference] = batch.LineItem{
		Reference:        reference,
		Amount:           txn.Amount,
		Fee:              txn.Fee,
		VATFee:           txn.VATFee,
		Revenue:          txn.Revenue,
		SettleAmount:     txn.SettleAmount,
		SettlementStatus: shared.SettlementStatusPending,
	}

	if err := g.RefreshOverview(ctx, b, today); err != nil {
		return false, err
	}

	g.logger.Info("attached collection to batch",
		"reference", reference,
		"batch_code", b.Code,
		"business_id", biz.ID.String(),
		"settle_amount", txn.SettleAmount,
	)
	return true, nil
}

// snapshotSubaccounts replaces the link's split configuration with the
// current one. A link with no stored configuration keeps whatever snapshot
// it already has.
func (g *GroupingEngineImpl) snapshotSubaccounts(ctx context.Context, link *batch.LinkGroup, linkID string) {
	if linkID == "" {
		return
	}
	cfg, err := g.businesses.GetPaymentLink(ctx, linkID)
	if err != nil {
		var notFound business.ErrPaymentLinkNotFound
		if errors.As(err, &notFound) {
			g.logger.Warn("payment link has no stored configuration, keeping prior snapshot", "payment_link_id", linkID)
			return
		}
		g.logger.Error("failed to load payment link configuration", "payment_link_id", linkID, "error", err)
		return
	}

	snapshots := make([]batch.SubaccountSnapshot, 0, len(cfg.Subaccounts))
	for _, sub := range cfg.Subaccounts {
		snapshots = append(snapshots, batch.SubaccountSnapshot{
			SubaccountID: sub.ID,
			Code:         sub.Code,
			BankCode:     sub.BankCode,
			AccountNo:    sub.AccountNo,
			AccountName:  sub.AccountName,
			SplitType:    sub.SplitType,
			SplitValue:   sub.SplitValue.String(),
		})
	}
	link.ReplaceSubaccounts(snapshots)
}

// RefreshOverview recomputes the batch's pending position from the
// per-business unsettled totals.
func (g *GroupingEngineImpl) RefreshOverview(ctx context.Context, b *batch.Batch, today time.Time) error {
	pendingTotals := make(map[string]int64, len(b.PayoutSchedule))
	for businessKey := range b.PayoutSchedule {
		businessID, err := uuid.Parse(businessKey)
		if err != nil {
			g.logger.Error("malformed business key in payout schedule", "key", businessKey)
			continue
		}
		total, err := g.transactions.PendingSettleTotal(ctx, businessID, b.Code)
		if err != nil {
			return fmt.Errorf("failed to sum pending settle total for business %s: %w", businessKey, err)
		}
		pendingTotals[businessKey] = total
	}
	b.RecomputeOverview(today, pendingTotals)
	return nil
}
