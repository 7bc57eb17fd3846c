package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
)

// ReportingService attaches a reported collection to the current settlement
// batch and funds the merchant's settlement bucket.
type ReportingService interface {
	ReportCollection(ctx context.Context, event *shared.CollectionEvent) error
}

// RunService executes one settlement run over a batch.
type RunService interface {
	Run(ctx context.Context, request *shared.RunRequest) error
}

// GroupingEngine maintains the batch's business/link/item tree
type GroupingEngine interface {
	// ReportTransaction attaches one collection transaction to the batch
	// tree. Returns true whenever the transaction qualifies and belongs to
	// this batch, so the caller can fund the merchant's settlement bucket;
	// the ledger dedupes the funding on the transaction reference, so
	// redeliveries and tree rebuilds may safely signal true again.
	ReportTransaction(ctx context.Context, b *batch.Batch, reference string, today time.Time) (bool, error)

	// RefreshOverview rebuilds the batch's due/past-due position
	RefreshOverview(ctx context.Context, b *batch.Batch, today time.Time) error
}

// SubaccountShare is one subaccount's computed cut of a link's lump
type SubaccountShare struct {
	Snapshot batch.SubaccountSnapshot
	Amount   int64
}

// LinkLump is the pending total of one payment link and its split shares
type LinkLump struct {
	PaymentLinkID string
	Amount        int64
	Shares        []SubaccountShare
	Shared        int64
}

// LumpSum is everything the dispatcher needs to pay out one business:
// the payable total, the per-link split shares, and the residual owed to
// the business itself after shares and pending chargeback exposure are
// deducted. ChargebackApplied is the exposure withheld from the residual;
// the withheld funds stay in the settlement bucket.
type LumpSum struct {
	Business          *business.Business
	Total             int64
	Links             []LinkLump
	Residual          int64
	ChargebackApplied int64
}

// LumpCalculator decides which businesses a run pays and how much
type LumpCalculator interface {
	ComputeGroups(ctx context.Context, b *batch.Batch, request *shared.RunRequest, today time.Time) ([]*LumpSum, error)
}

// PayoutDispatcher moves one business's lump out of its settlement bucket:
// subaccount shares first, then the residual to the business's configured
// destination.
type PayoutDispatcher interface {
	Dispatch(ctx context.Context, b *batch.Batch, lump *LumpSum) error
}

// WalletLedger is the slice of wallet operations the settlement flows need:
// fund the settlement bucket once per reported collection, debit it before
// calling the provider, credit back the applied amount on failure, and move
// wallet-destination payouts internally.
type WalletLedger interface {
	FundSettlement(ctx context.Context, txn *transaction.Transaction) (bool, error)
	DebitSettlement(ctx context.Context, businessID uuid.UUID, amount int64) (int64, error)
	SettleToWallet(ctx context.Context, businessID uuid.UUID, amount int64) (*wallet.Wallet, error)
	ReverseToSettlement(ctx context.Context, original *transaction.Transaction, amount int64) (*transaction.Transaction, error)
	CreditLocked(ctx context.Context, businessID uuid.UUID, amount int64) (*wallet.Wallet, error)
}

// ChargebackAggregator exposes the pending chargeback exposure per business
type ChargebackAggregator interface {
	PendingTotal(ctx context.Context, businessID uuid.UUID) (int64, error)
}

// Notifier publishes payout outcomes for downstream delivery. Publishing is
// fire and forget; failures must not affect the run.
type Notifier interface {
	NotifyPayout(ctx context.Context, notification *shared.PayoutNotification)
}
