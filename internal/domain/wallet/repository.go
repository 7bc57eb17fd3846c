package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines wallet persistence operations
type Repository interface {
	Create(ctx context.Context, w *Wallet) error
	GetByBusinessID(ctx context.Context, businessID uuid.UUID) (*Wallet, error)

	// Update persists the wallet using optimistic locking on the version
	// column. Returns ErrConcurrentModification when the row moved on.
	Update(ctx context.Context, w *Wallet) error

	// LockForUpdate acquires a pessimistic lock inside a transaction
	LockForUpdate(ctx context.Context, businessID uuid.UUID) (*Wallet, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	WalletID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for wallet: " + e.WalletID.String()
}

// ErrWalletNotFound indicates missing wallet
type ErrWalletNotFound struct {
	BusinessID uuid.UUID
}

func (e ErrWalletNotFound) Error() string {
	return "wallet not found for business: " + e.BusinessID.String()
}
