package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
)

var (
	ErrNegativeSettleAmount = errors.New("settle amount cannot be negative")
	ErrAlreadySettled       = errors.New("transaction settlement is already completed")
)

// Transaction is an immutable record of one money movement with its
// fee/VAT/revenue/settle sub-amounts. Amounts are stored in minor units.
type Transaction struct {
	Reference        string                   `json:"reference" bson:"reference"`
	Type             shared.TransactionType   `json:"type" bson:"type"`
	Feature          shared.Feature           `json:"feature" bson:"feature"`
	Amount           int64                    `json:"amount" bson:"amount"`
	Fee              int64                    `json:"fee" bson:"fee"`
	VATFee           int64                    `json:"vat_fee" bson:"vat_fee"`
	Revenue          int64                    `json:"revenue" bson:"revenue"`
	SettleAmount     int64                    `json:"settle_amount" bson:"settle_amount"`
	Currency         string                   `json:"currency" bson:"currency"`
	Status           shared.TransactionStatus `json:"status" bson:"status"`
	SettlementStatus shared.SettlementStatus  `json:"settlement_status" bson:"settlement_status"`
	SettledAt        *time.Time               `json:"settled_at,omitempty" bson:"settled_at,omitempty"`
	BusinessID       uuid.UUID                `json:"business_id" bson:"business_id"`
	SubaccountID     string                   `json:"subaccount_id,omitempty" bson:"subaccount_id,omitempty"`
	BatchCode        string                   `json:"batch_code,omitempty" bson:"batch_code,omitempty"`
	PaymentLinkID    string                   `json:"payment_link_id,omitempty" bson:"payment_link_id,omitempty"`
	ProviderRef      string                   `json:"provider_ref,omitempty" bson:"provider_ref,omitempty"`
	FailureReason    string                   `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	BalanceAfter     *int64                   `json:"balance_after,omitempty" bson:"balance_after,omitempty"`
	CorrelationID    string                   `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt        time.Time                `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at" bson:"updated_at"`
}

// NewCollection creates a successful payment-link collection transaction.
// The settle amount is always amount - fee - vat.
func NewCollection(businessID uuid.UUID, linkID, currency string, amount, fee, vat, revenue int64) (*Transaction, error) {
	if amount <= 0 {
		return nil, shared.ErrInvalidAmount
	}
	settle := amount - fee - vat
	if settle < 0 {
		return nil, ErrNegativeSettleAmount
	}

	now := time.Now()
	return &Transaction{
		Reference:        uuid.New().String(),
		Type:             shared.TransactionTypeCredit,
		Feature:          shared.FeatureCollection,
		Amount:           amount,
		Fee:              fee,
		VATFee:           vat,
		Revenue:          revenue,
		SettleAmount:     settle,
		Currency:         currency,
		Status:           shared.TransactionStatusSuccessful,
		SettlementStatus: shared.SettlementStatusPending,
		BusinessID:       businessID,
		PaymentLinkID:    linkID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// NewPayout creates a pending settlement payout transaction for a business
// or, when subaccountID is non-empty, one of its subaccounts.
func NewPayout(businessID uuid.UUID, subaccountID, batchCode, linkID, currency string, amount int64) (*Transaction, error) {
	if amount <= 0 {
		return nil, shared.ErrInvalidAmount
	}

	now := time.Now()
	return &Transaction{
		Reference:        uuid.New().String(),
		Type:             shared.TransactionTypeDebit,
		Feature:          shared.FeatureSettlementPayout,
		Amount:           amount,
		SettleAmount:     amount,
		Currency:         currency,
		Status:           shared.TransactionStatusPending,
		SettlementStatus: shared.SettlementStatusPending,
		BusinessID:       businessID,
		SubaccountID:     subaccountID,
		BatchCode:        batchCode,
		PaymentLinkID:    linkID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// NewWithdrawal creates a pending withdrawal of available wallet funds to
// a bank account. Amount is the sum paid out; fee and VAT are charged on
// top when the wallet is debited.
func NewWithdrawal(businessID uuid.UUID, currency string, amount, fee, vat, revenue int64) (*Transaction, error) {
	if amount <= 0 {
		return nil, shared.ErrInvalidAmount
	}

	now := time.Now()
	return &Transaction{
		Reference:        uuid.New().String(),
		Type:             shared.TransactionTypeDebit,
		Feature:          shared.FeatureWithdrawal,
		Amount:           amount,
		Fee:              fee,
		VATFee:           vat,
		Revenue:          revenue,
		SettleAmount:     amount,
		Currency:         currency,
		Status:           shared.TransactionStatusPending,
		SettlementStatus: shared.SettlementStatusCompleted,
		BusinessID:       businessID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// NewReversal creates a compensating credit undoing a prior debit.
// The reversal carries the full debited amount plus any fee and VAT.
func NewReversal(original *Transaction) *Transaction {
	return NewReversalFor(original, original.Amount+original.Fee+original.VATFee)
}

// NewReversalFor creates a compensating credit for an explicit amount, used
// when the original debit applied less than the transaction's face value.
func NewReversalFor(original *Transaction, amount int64) *Transaction {
	now := time.Now()
	return &Transaction{
		Reference:        uuid.New().String(),
		Type:             shared.TransactionTypeCredit,
		Feature:          shared.FeatureReversal,
		Amount:           amount,
		Currency:         original.Currency,
		Status:           shared.TransactionStatusSuccessful,
		SettlementStatus: shared.SettlementStatusCompleted,
		BusinessID:       original.BusinessID,
		SubaccountID:     original.SubaccountID,
		BatchCode:        original.BatchCode,
		PaymentLinkID:    original.PaymentLinkID,
		FailureReason:    original.FailureReason,
		CorrelationID:    original.CorrelationID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// QualifiesForSettlement reports whether the grouping engine should attach
// this transaction to a batch.
func (t *Transaction) QualifiesForSettlement() bool {
	return t.Feature == shared.FeatureCollection &&
		t.Status == shared.TransactionStatusSuccessful &&
		t.SettlementStatus == shared.SettlementStatusPending
}

// MarkSettled flips settlement status to completed. Valid exactly once.
func (t *Transaction) MarkSettled() error {
	if t.SettlementStatus == shared.SettlementStatusCompleted {
		return ErrAlreadySettled
	}
	now := time.Now()
	t.SettlementStatus = shared.SettlementStatusCompleted
	t.SettledAt = &now
	t.UpdatedAt = now
	return nil
}

// MarkFailed records a payout failure on the transaction
func (t *Transaction) MarkFailed(reason shared.FailureReason) {
	t.Status = shared.TransactionStatusFailed
	t.FailureReason = string(reason)
	t.UpdatedAt = time.Now()
}

// MarkSuccessful records a successful payout with the provider's reference
func (t *Transaction) MarkSuccessful(providerRef string) {
	t.Status = shared.TransactionStatusSuccessful
	t.ProviderRef = providerRef
	t.FailureReason = ""
	t.UpdatedAt = time.Now()
}
