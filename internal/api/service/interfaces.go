package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
	"github.com/shopspring/decimal"
)

// CreateBusinessParams carries the onboarding fields for a new merchant
type CreateBusinessParams struct {
	Name                string
	Email               string
	SettlementDelayDays int
	PayoutDestination   shared.PayoutDestination
	BankCode            string
	AccountNo           string
	AccountName         string
	FeePercent          decimal.Decimal
	FeeFixed            int64
	FeeCap              int64
	VATPercent          decimal.Decimal
}

// BusinessService defines the interface for merchant onboarding operations
type BusinessService interface {
	// CreateBusiness creates a business together with its empty wallet
	CreateBusiness(ctx context.Context, params CreateBusinessParams) (*business.Business, error)

	// GetBusiness retrieves a business by its ID
	// Returns ErrBusinessNotFound if the business doesn't exist
	GetBusiness(ctx context.Context, id uuid.UUID) (*business.Business, error)

	// CreatePaymentLink creates a payment link with its subaccount splits
	CreatePaymentLink(ctx context.Context, link *business.PaymentLink) error

	// GetBusinessTransactions retrieves a page of a business's ledger history
	GetBusinessTransactions(ctx context.Context, businessID uuid.UUID, page, perPage int) ([]*transaction.Transaction, error)
}

// ReportCollectionParams carries one successful payment-link collection
type ReportCollectionParams struct {
	BusinessID    uuid.UUID
	PaymentLinkID string
	Amount        int64
	Currency      string
	CorrelationID string
}

// CollectionService defines the interface for reporting collections into
// the settlement pipeline
type CollectionService interface {
	// ReportCollection computes fees, records the ledger transaction, and
	// publishes the collection event consumed by the settlement worker.
	ReportCollection(ctx context.Context, params ReportCollectionParams) (*transaction.Transaction, error)
}

// SettlementService defines the interface for settlement run and batch
// read operations
type SettlementService interface {
	// RequestRun validates and enqueues a settlement run trigger
	RequestRun(ctx context.Context, request *shared.RunRequest) error

	// GetBatch retrieves a settlement batch by its code
	// Returns ErrBatchNotFound if the batch doesn't exist
	GetBatch(ctx context.Context, code string) (*batch.Batch, error)

	// GetBatchTransactions retrieves a page of a batch's transactions
	GetBatchTransactions(ctx context.Context, code string, page, perPage int) ([]*transaction.Transaction, error)
}

// WithdrawParams carries one withdrawal of available wallet funds
type WithdrawParams struct {
	BusinessID    uuid.UUID
	Amount        int64
	BankCode      string
	AccountNo     string
	AccountName   string
	Narration     string
	CorrelationID string
}

// WalletService defines the interface for wallet read and withdrawal
// operations
type WalletService interface {
	// GetWallet retrieves a business's wallet
	// Returns ErrWalletNotFound if the wallet doesn't exist
	GetWallet(ctx context.Context, businessID uuid.UUID) (*wallet.Wallet, error)

	// Withdraw debits the available bucket and pays the amount out through
	// the bank-transfer provider. The debit happens before the provider
	// call; a failed call is compensated with a reversal.
	Withdraw(ctx context.Context, params WithdrawParams) (*transaction.Transaction, error)
}

// walletLedger is the slice of the wallet-ledger service the withdrawal
// path needs
type walletLedger interface {
	DebitThenCall(ctx context.Context, txn *transaction.Transaction, call func(context.Context) error) (*wallet.Wallet, error)
}
