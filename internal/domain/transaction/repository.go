package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
)

// Repository manages ledger transaction persistence
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByReference(ctx context.Context, reference string) (*Transaction, error)
	Update(ctx context.Context, txn *Transaction) error
	AttachToBatch(ctx context.Context, reference, batchCode string) error

	// MarkSettled bulk-flips settlement status to COMPLETED for all pending
	// collection transactions of one business scoped to a batch and link.
	// Returns the number of transactions updated.
	MarkSettled(ctx context.Context, businessID uuid.UUID, batchCode, linkID string) (int64, error)

	// PendingSettleTotal sums settle amounts of unsettled collection
	// transactions for a business within a batch.
	PendingSettleTotal(ctx context.Context, businessID uuid.UUID, batchCode string) (int64, error)

	ListByBatch(ctx context.Context, batchCode string, limit, offset int) ([]*Transaction, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*Transaction, error)
	UpdateStatus(ctx context.Context, reference string, status shared.TransactionStatus, reason string) error
}

// ErrTransactionNotFound indicates a missing ledger transaction
type ErrTransactionNotFound struct {
	Reference string
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.Reference
}

// Is matches any ErrTransactionNotFound when the target carries no reference
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.Reference == "" {
		return true
	}
	return e.Reference == t.Reference
}

// ErrDuplicateTransaction indicates reference uniqueness violation
type ErrDuplicateTransaction struct {
	Reference string
}

func (e ErrDuplicateTransaction) Error() string {
	return "duplicate transaction: " + e.Reference
}

func (e ErrDuplicateTransaction) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	if t.Reference == "" {
		return true
	}
	return e.Reference == t.Reference
}
