// Package postgres provides PostgreSQL implementations of the domain
// repositories. Wallet rows are updated under optimistic locking; the
// version column moves forward on every successful write.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
	"github.com/lystun/payflo-sub003/internal/platform/persistence"
)

// WalletRepository implements the wallet.Repository interface for PostgreSQL
type WalletRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

func NewWalletRepository(logger *slog.Logger, db *persistence.PostgresDB) wallet.Repository {
	return &WalletRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so wallet writes can be
// made atomic with outbox writes.
func (r *WalletRepository) WithTx(tx pgx.Tx) wallet.Repository {
	return &WalletRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const walletColumns = `
	id, business_id, currency,
	available, locked, settlement, ledger,
	inflow_count, inflow_value, outflow_count, outflow_value,
	transfer_count, transfer_value, withdrawal_count, withdrawal_value,
	reversal_count, reversal_value,
	version, created_at, updated_at`

func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	query := `
		INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.querier.Exec(ctx, query,
		w.ID, w.BusinessID, w.Currency,
		w.Available, w.Locked, w.Settlement, w.Ledger,
		w.InflowCount, w.InflowValue, w.OutflowCount, w.OutflowValue,
		w.TransferCount, w.TransferValue, w.WithdrawalCount, w.WithdrawalValue,
		w.ReversalCount, w.ReversalValue,
		w.Version, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create wallet", "business_id", w.BusinessID.String(), "error", err)
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

func (r *WalletRepository) GetByBusinessID(ctx context.Context, businessID uuid.UUID) (*wallet.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE business_id = $1
	`

	w, err := r.scanWallet(r.querier.QueryRow(ctx, query, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{BusinessID: businessID}
		}
		r.logger.Error("Failed to get wallet", "business_id", businessID.String(), "error", err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return w, nil
}

// Update persists the wallet against the version it was loaded at. The row
// version advances by one; a concurrent writer wins the race and the caller
// reloads and retries.
func (r *WalletRepository) Update(ctx context.Context, w *wallet.Wallet) error {
	query := `
		UPDATE wallets
		SET available = $1, locked = $2, settlement = $3, ledger = $4,
			inflow_count = $5, inflow_value = $6, outflow_count = $7, outflow_value = $8,
			transfer_count = $9, transfer_value = $10, withdrawal_count = $11, withdrawal_value = $12,
			reversal_count = $13, reversal_value = $14,
			version = version + 1, updated_at = $15
		WHERE id = $16 AND version = $17
	`

	result, err := r.querier.Exec(ctx, query,
		w.Available, w.Locked, w.Settlement, w.Ledger,
		w.InflowCount, w.InflowValue, w.OutflowCount, w.OutflowValue,
		w.TransferCount, w.TransferValue, w.WithdrawalCount, w.WithdrawalValue,
		w.ReversalCount, w.ReversalValue,
		w.UpdatedAt,
		w.ID, w.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update wallet", "id", w.ID.String(), "error", err)
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	if result.RowsAffected() == 0 {
		return wallet.ErrConcurrentModification{WalletID: w.ID}
	}

	w.Version++
	return nil
}

// LockForUpdate obtains a pessimistic lock on the wallet row and returns
// its current state. Must be called within a transaction.
func (r *WalletRepository) LockForUpdate(ctx context.Context, businessID uuid.UUID) (*wallet.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE business_id = $1
		FOR UPDATE
	`

	w, err := r.scanWallet(r.querier.QueryRow(ctx, query, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{BusinessID: businessID}
		}
		r.logger.Error("Failed to lock wallet for update", "business_id", businessID.String(), "error", err)
		return nil, fmt.Errorf("failed to lock wallet for update: %w", err)
	}

	return w, nil
}

func (r *WalletRepository) scanWallet(row pgx.Row) (*wallet.Wallet, error) {
	var w wallet.Wallet
	err := row.Scan(
		&w.ID, &w.BusinessID, &w.Currency,
		&w.Available, &w.Locked, &w.Settlement, &w.Ledger,
		&w.InflowCount, &w.InflowValue, &w.OutflowCount, &w.OutflowValue,
		&w.TransferCount, &w.TransferValue, &w.WithdrawalCount, &w.WithdrawalValue,
		&w.ReversalCount, &w.ReversalValue,
		&w.Version, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
