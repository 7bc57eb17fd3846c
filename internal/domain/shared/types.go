package shared

import "errors"

var (
	ErrInvalidRunMode    = errors.New("invalid settlement run mode")
	ErrMissingBusinessID = errors.New("business id is required for single-business runs")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// TransactionType defines the direction of a money movement
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// Feature tags a transaction with the product surface that produced it
type Feature string

const (
	FeatureCollection        Feature = "PAYMENT_LINK_COLLECTION"
	FeatureSettlementPayout  Feature = "SETTLEMENT_PAYOUT"
	FeatureReversal          Feature = "REVERSAL"
	FeatureTransfer          Feature = "INTERNAL_TRANSFER"
	FeatureWithdrawal        Feature = "WITHDRAWAL"
	FeatureRevenueAdjustment Feature = "REVENUE_ADJUSTMENT"
)

// TransactionStatus defines transaction processing states
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusSuccessful TransactionStatus = "SUCCESSFUL"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

// SettlementStatus tracks whether a transaction has been paid out to its owner
type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "PENDING"
	SettlementStatusCompleted SettlementStatus = "COMPLETED"
)

// BatchStatus defines settlement batch lifecycle states
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "PENDING"
	BatchStatusProcessing BatchStatus = "PROCESSING"
	BatchStatusCompleted  BatchStatus = "COMPLETED"
)

// RunMode selects which business groups a settlement run considers
type RunMode string

const (
	// RunModeBulk settles every business whose payout date qualifies
	RunModeBulk RunMode = "BULK"
	// RunModeSingle settles one named business
	RunModeSingle RunMode = "SINGLE"
)

// SplitType defines how a subaccount's share of a payment link is computed
type SplitType string

const (
	SplitTypePercentage SplitType = "PERCENTAGE"
	SplitTypeFlat       SplitType = "FLAT"
)

// PayoutDestination selects where a business's settlement residual goes
type PayoutDestination string

const (
	PayoutDestinationBank   PayoutDestination = "BANK_ACCOUNT"
	PayoutDestinationWallet PayoutDestination = "WALLET"
)

// FailureReason defines payout failure categories recorded on transactions
type FailureReason string

const (
	FailureReasonProviderError       FailureReason = "PROVIDER_ERROR"
	FailureReasonProviderTimeout     FailureReason = "PROVIDER_TIMEOUT"
	FailureReasonInsufficientBalance FailureReason = "INSUFFICIENT_BALANCE"
	FailureReasonUnknownError        FailureReason = "UNKNOWN_ERROR"
)

// OutboxStatus defines revenue-adjustment message states
type OutboxStatus string

const (
	OutboxStatusPending       OutboxStatus = "PENDING"
	OutboxStatusProcessed     OutboxStatus = "PROCESSED"
	OutboxStatusFailedToApply OutboxStatus = "FAILED_TO_APPLY"
)
