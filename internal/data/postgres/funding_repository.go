package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
	"github.com/lystun/payflo-sub003/internal/platform/persistence"
)

// FundingRepository implements the wallet.FundingRepository interface for
// PostgreSQL
type FundingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewFundingRepository(logger *slog.Logger, db *persistence.PostgresDB) wallet.FundingRepository {
	return &FundingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the funding marker is
// written atomically with the wallet credit it records.
func (r *FundingRepository) WithTx(tx pgx.Tx) wallet.FundingRepository {
	return &FundingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a funding marker. The transaction reference carries a unique
// constraint so the same collection can only ever fund the bucket once.
func (r *FundingRepository) Create(ctx context.Context, f *wallet.Funding) error {
	query := `
		INSERT INTO settlement_fundings (transaction_ref, business_id, amount, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		f.TransactionRef,
		f.BusinessID,
		f.Amount,
		f.CreatedAt,
	).Scan(&f.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return wallet.ErrDuplicateFunding{TransactionRef: f.TransactionRef}
		}
		r.logger.Error("Failed to create settlement funding",
			"transaction_ref", f.TransactionRef,
			"error", err,
		)
		return fmt.Errorf("failed to create settlement funding: %w", err)
	}

	return nil
}

// GetByTransactionRef retrieves a funding marker by its idempotency key
func (r *FundingRepository) GetByTransactionRef(ctx context.Context, ref string) (*wallet.Funding, error) {
	query := `
		SELECT id, transaction_ref, business_id, amount, created_at
		FROM settlement_fundings
		WHERE transaction_ref = $1
	`

	var f wallet.Funding
	err := r.querier.QueryRow(ctx, query, ref).Scan(
		&f.ID,
		&f.TransactionRef,
		&f.BusinessID,
		&f.Amount,
		&f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrFundingNotFound{TransactionRef: ref}
		}
		r.logger.Error("Failed to get settlement funding", "transaction_ref", ref, "error", err)
		return nil, fmt.Errorf("failed to get settlement funding: %w", err)
	}

	return &f, nil
}
