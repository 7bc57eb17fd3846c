package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lystun/payflo-sub003/internal/domain/chargeback"
	"github.com/lystun/payflo-sub003/internal/platform/persistence"
)

// ChargebackRepository implements the chargeback.Repository interface for PostgreSQL
type ChargebackRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewChargebackRepository(logger *slog.Logger, db *persistence.PostgresDB) chargeback.Repository {
	return &ChargebackRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *ChargebackRepository) Create(ctx context.Context, c *chargeback.Chargeback) error {
	query := `
		INSERT INTO chargebacks (id, business_id, transaction_ref, amount, currency, reason, status, resolved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		c.ID, c.BusinessID, c.TransactionRef, c.Amount, c.Currency, c.Reason, c.Status, c.ResolvedAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create chargeback", "id", c.ID.String(), "error", err)
		return fmt.Errorf("failed to create chargeback: %w", err)
	}

	return nil
}

func (r *ChargebackRepository) GetByID(ctx context.Context, id uuid.UUID) (*chargeback.Chargeback, error) {
	query := `
		SELECT id, business_id, transaction_ref, amount, currency, reason, status, resolved_at, created_at, updated_at
		FROM chargebacks
		WHERE id = $1
	`

	var c chargeback.Chargeback
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.BusinessID, &c.TransactionRef, &c.Amount, &c.Currency, &c.Reason, &c.Status, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, chargeback.ErrChargebackNotFound{ID: id}
		}
		r.logger.Error("Failed to get chargeback", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get chargeback: %w", err)
	}

	return &c, nil
}

func (r *ChargebackRepository) Update(ctx context.Context, c *chargeback.Chargeback) error {
	query := `
		UPDATE chargebacks
		SET amount = $1, reason = $2, status = $3, resolved_at = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.querier.Exec(ctx, query,
		c.Amount, c.Reason, c.Status, c.ResolvedAt, c.UpdatedAt, c.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update chargeback", "id", c.ID.String(), "error", err)
		return fmt.Errorf("failed to update chargeback: %w", err)
	}

	if result.RowsAffected() == 0 {
		return chargeback.ErrChargebackNotFound{ID: c.ID}
	}

	return nil
}

// PendingTotalForBusiness sums unresolved chargeback amounts. COALESCE keeps
// the zero-row case a plain zero.
func (r *ChargebackRepository) PendingTotalForBusiness(ctx context.Context, businessID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM chargebacks
		WHERE business_id = $1 AND status = $2
	`

	var total int64
	err := r.querier.QueryRow(ctx, query, businessID, chargeback.StatusPending).Scan(&total)
	if err != nil {
		r.logger.Error("Failed to sum pending chargebacks", "business_id", businessID.String(), "error", err)
		return 0, fmt.Errorf("failed to sum pending chargebacks: %w", err)
	}

	return total, nil
}

func (r *ChargebackRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*chargeback.Chargeback, error) {
	query := `
		SELECT id, business_id, transaction_ref, amount, currency, reason, status, resolved_at, created_at, updated_at
		FROM chargebacks
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, businessID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list chargebacks", "business_id", businessID.String(), "error", err)
		return nil, fmt.Errorf("failed to list chargebacks: %w", err)
	}
	defer rows.Close()

	var out []*chargeback.Chargeback
	for rows.Next() {
		var c chargeback.Chargeback
		if err := rows.Scan(
			&c.ID, &c.BusinessID, &c.TransactionRef, &c.Amount, &c.Currency, &c.Reason, &c.Status, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chargeback: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chargebacks: %w", err)
	}

	return out, nil
}
