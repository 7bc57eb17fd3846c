package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/provider"
	"github.com/lystun/payflo-sub003/internal/settlement/service"
)

// PayoutDispatcherImpl pays one business's lump: subaccount shares first,
// then the residual to the business's configured destination. The wallet is
// debited before every provider call; a failed call is compensated with a
// reversal that credits the settlement bucket back.
type PayoutDispatcherImpl struct {
	transactions transaction.Repository
	wallets      service.WalletLedger
	payouts      provider.PayoutProvider
	notifier     service.Notifier
	currency     string
	logger       *slog.Logger
}

func NewPayoutDispatcher(
	transactions transaction.Repository,
	wallets service.WalletLedger,
	payouts provider.PayoutProvider,
	notifier service.Notifier,
	currency string,
	logger *slog.Logger,
) *PayoutDispatcherImpl {
	return &PayoutDispatcherImpl{
		transactions: transactions,
		wallets:      wallets,
		payouts:      payouts,
		notifier:     notifier,
		currency:     currency,
		logger:       logger,
	}
}

// Dispatch pays out one business. A failure anywhere aborts this business
// only; already-paid subaccount shares stay settled and the business is
// retried on the next run.
func (d *PayoutDispatcherImpl) Dispatch(ctx context.Context, b *batch.Batch, lump *service.LumpSum) error {
	businessID := lump.Business.ID
	if b.IsBusinessSettled(businessID) {
		return nil
	}

	for _, link := range lump.Links {
		for _, share := range link.Shares {
			if b.IsSubaccountSettled(share.Snapshot.SubaccountID) {
				continue
			}
			if err := d.payShare(ctx, b, lump, link.PaymentLinkID, share); err != nil {
				return err
			}
		}
	}

	if lump.Residual > 0 {
		if err := d.payResidual(ctx, b, lump); err != nil {
			return err
		}
	}

	for _, link := range lump.Links {
		updated, err := d.transactions.MarkSettled(ctx, businessID, b.Code, link.PaymentLinkID)
		if err != nil {
			return fmt.Errorf("failed to mark transactions settled for business %s link %s: %w",
				businessID.String(), link.PaymentLinkID, err)
		}
		d.settleTreeItems(b, businessID.String(), link.PaymentLinkID)
		d.logger.Info("settled link transactions",
			"batch_code", b.Code,
			"business_id", businessID.String(),
			"payment_link_id", link.PaymentLinkID,
			"count", updated,
		)
	}

	// Shares are tracked under SharedAmount as they pay; only the residual
	// paid to the business itself counts toward SettledAmount.
	b.MarkBusinessSettled(businessID, lump.Residual)
	d.logger.Info("business payout completed",
		"batch_code", b.Code,
		"business_id", businessID.String(),
		"total", lump.Total,
		"residual", lump.Residual,
		"chargeback_applied", lump.ChargebackApplied,
	)
	return nil
}

// payShare pays one subaccount's cut to its bank account
func (d *PayoutDispatcherImpl) payShare(ctx context.Context, b *batch.Batch, lump *service.LumpSum, linkID string, share service.SubaccountShare) error {
	businessID := lump.Business.ID
	txn, err := transaction.NewPayout(businessID, share.Snapshot.SubaccountID, b.Code, linkID, d.currency, share.Amount)
	if err != nil {
		return err
	}
	if err := d.transactions.Create(ctx, txn); err != nil {
		return fmt.Errorf("failed to record subaccount payout transaction: %w", err)
	}

	applied, err := d.wallets.DebitSettlement(ctx, businessID, share.Amount)
	if err != nil {
		txn.MarkFailed(shared.FailureReasonUnknownError)
		d.updateAndNotify(ctx, txn, false)
		return fmt.Errorf("failed to debit settlement bucket for subaccount %s: %w", share.Snapshot.SubaccountID, err)
	}

	result, err := d.payouts.Payout(ctx, provider.PayoutRequest{
		Amount:      share.Amount,
		Currency:    d.currency,
		BankCode:    share.Snapshot.BankCode,
		AccountNo:   share.Snapshot.AccountNo,
		AccountName: share.Snapshot.AccountName,
		Reference:   txn.Reference,
		Narration:   fmt.Sprintf("Settlement %s subaccount share", b.Code),
	})
	if err != nil {
		return d.compensate(ctx, txn, applied, err)
	}

	txn.MarkSuccessful(result.ProviderRef)
	d.updateAndNotify(ctx, txn, true)
	b.MarkSubaccountSettled(share.Snapshot.SubaccountID, share.Amount)
	return nil
}

// payResidual pays what remains of the lump to the business itself, either
// through the provider or as an internal move into the available bucket.
func (d *PayoutDispatcherImpl) payResidual(ctx context.Context, b *batch.Batch, lump *service.LumpSum) error {
	businessID := lump.Business.ID
	txn, err := transaction.NewPayout(businessID, "", b.Code, "", d.currency, lump.Residual)
	if err != nil {
		return err
	}
	if err := d.transactions.Create(ctx, txn); err != nil {
		return fmt.Errorf("failed to record business payout transaction: %w", err)
	}

	if lump.Business.PayoutDestination == shared.PayoutDestinationWallet {
		if _, err := d.wallets.SettleToWallet(ctx, businessID, lump.Residual); err != nil {
			txn.MarkFailed(shared.FailureReasonInsufficientBalance)
			d.updateAndNotify(ctx, txn, false)
			return fmt.Errorf("failed to move residual into wallet for business %s: %w", businessID.String(), err)
		}
		txn.MarkSuccessful("")
		d.updateAndNotify(ctx, txn, true)
		return nil
	}

	applied, err := d.wallets.DebitSettlement(ctx, businessID, lump.Residual)
	if err != nil {
		txn.MarkFailed(shared.FailureReasonUnknownError)
		d.updateAndNotify(ctx, txn, false)
		return fmt.Errorf("failed to debit settlement bucket for business %s: %w", businessID.String(), err)
	}

	result, err := d.payouts.Payout(ctx, provider.PayoutRequest{
		Amount:      lump.Residual,
		Currency:    d.currency,
		BankCode:    lump.Business.BankCode,
		AccountNo:   lump.Business.AccountNo,
		AccountName: lump.Business.AccountName,
		Reference:   txn.Reference,
		Narration:   fmt.Sprintf("Settlement %s payout", b.Code),
	})
	if err != nil {
		return d.compensate(ctx, txn, applied, err)
	}

	txn.MarkSuccessful(result.ProviderRef)
	d.updateAndNotify(ctx, txn, true)
	return nil
}

// compensate undoes the pre-call wallet debit after a failed provider call.
// Only the amount the debit actually applied is credited back; a debit that
// clamped to zero leaves nothing to reverse.
func (d *PayoutDispatcherImpl) compensate(ctx context.Context, txn *transaction.Transaction, applied int64, payoutErr error) error {
	txn.MarkFailed(failureReason(payoutErr))
	d.updateAndNotify(ctx, txn, false)

	if applied <= 0 {
		return payoutErr
	}

	d.logger.Error("provider payout failed, reversing settlement debit",
		"reference", txn.Reference,
		"business_id", txn.BusinessID.String(),
		"amount", applied,
		"error", payoutErr,
	)
	if _, err := d.wallets.ReverseToSettlement(ctx, txn, applied); err != nil {
		return fmt.Errorf("payout failed and reversal also failed for %s: %v (payout error: %w)",
			txn.Reference, err, payoutErr)
	}
	return payoutErr
}

func (d *PayoutDispatcherImpl) updateAndNotify(ctx context.Context, txn *transaction.Transaction, succeeded bool) {
	if err := d.transactions.Update(ctx, txn); err != nil {
		d.logger.Error("failed to persist payout transaction state", "reference", txn.Reference, "error", err)
	}
	d.notifier.NotifyPayout(ctx, &shared.PayoutNotification{
		Reference:     txn.Reference,
		BusinessID:    txn.BusinessID,
		SubaccountID:  txn.SubaccountID,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Succeeded:     succeeded,
		FailureReason: txn.FailureReason,
		Timestamp:     time.Now(),
	})
}

// settleTreeItems flips the batch tree's line items so the overview stops
// counting them as pending.
func (d *PayoutDispatcherImpl) settleTreeItems(b *batch.Batch, businessKey, linkID string) {
	group, ok := b.Groups[businessKey]
	if !ok {
		return
	}
	link, ok := group.Links[linkID]
	if !ok {
		return
	}
	for ref, item := range link.Items {
		item.SettlementStatus = shared.SettlementStatusCompleted
		link.Items[ref] = item
	}
}

func failureReason(err error) shared.FailureReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.FailureReasonProviderTimeout
	}
	return shared.FailureReasonProviderError
}
