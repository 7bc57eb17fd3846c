package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Funding records that a reported collection has credited the merchant's
// settlement bucket. The transaction reference carries a unique constraint,
// so a collection can fund the bucket at most once however many times the
// report is redelivered.
type Funding struct {
	ID             int64     `json:"id"`
	TransactionRef string    `json:"transaction_ref"`
	BusinessID     uuid.UUID `json:"business_id"`
	Amount         int64     `json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

// FundingRepository manages settlement funding markers
type FundingRepository interface {
	Create(ctx context.Context, f *Funding) error
	GetByTransactionRef(ctx context.Context, ref string) (*Funding, error)
	WithTx(tx pgx.Tx) FundingRepository
}

// ErrDuplicateFunding indicates the collection already funded the bucket
type ErrDuplicateFunding struct {
	TransactionRef string
}

func (e ErrDuplicateFunding) Error() string {
	return "settlement funding already recorded for transaction: " + e.TransactionRef
}

// ErrFundingNotFound indicates no funding marker exists for a reference
type ErrFundingNotFound struct {
	TransactionRef string
}

func (e ErrFundingNotFound) Error() string {
	return "settlement funding not found for transaction: " + e.TransactionRef
}
