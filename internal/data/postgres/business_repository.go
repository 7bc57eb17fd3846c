package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/platform/persistence"
)

// BusinessRepository implements the business.Repository interface for PostgreSQL
type BusinessRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewBusinessRepository(logger *slog.Logger, db *persistence.PostgresDB) business.Repository {
	return &BusinessRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *BusinessRepository) WithTx(tx pgx.Tx) business.Repository {
	return &BusinessRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *BusinessRepository) Create(ctx context.Context, b *business.Business) error {
	query := `
		INSERT INTO businesses (id, name, email, settlement_delay_days, payout_destination,
			bank_code, account_no, account_name,
			fee_percent, fee_fixed, fee_cap, vat_percent,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, query,
		b.ID, b.Name, b.Email, b.SettlementDelayDays, b.PayoutDestination,
		b.BankCode, b.AccountNo, b.AccountName,
		b.FeePercent, b.FeeFixed, b.FeeCap, b.VATPercent,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create business", "id", b.ID.String(), "error", err)
		return fmt.Errorf("failed to create business: %w", err)
	}

	return nil
}

func (r *BusinessRepository) GetByID(ctx context.Context, id uuid.UUID) (*business.Business, error) {
	query := `
		SELECT id, name, email, settlement_delay_days, payout_destination,
			bank_code, account_no, account_name,
			fee_percent, fee_fixed, fee_cap, vat_percent,
			created_at, updated_at
		FROM businesses
		WHERE id = $1
	`

	var b business.Business
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.Email, &b.SettlementDelayDays, &b.PayoutDestination,
		&b.BankCode, &b.AccountNo, &b.AccountName,
		&b.FeePercent, &b.FeeFixed, &b.FeeCap, &b.VATPercent,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, business.ErrBusinessNotFound{BusinessID: id}
		}
		r.logger.Error("Failed to get business", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	return &b, nil
}

func (r *BusinessRepository) Update(ctx context.Context, b *business.Business) error {
	query := `
		UPDATE businesses
		SET name = $1, email = $2, settlement_delay_days = $3, payout_destination = $4,
			bank_code = $5, account_no = $6, account_name = $7,
			fee_percent = $8, fee_fixed = $9, fee_cap = $10, vat_percent = $11,
			updated_at = $12
		WHERE id = $13
	`

	result, err := r.querier.Exec(ctx, query,
		b.Name, b.Email, b.SettlementDelayDays, b.PayoutDestination,
		b.BankCode, b.AccountNo, b.AccountName,
		b.FeePercent, b.FeeFixed, b.FeeCap, b.VATPercent,
		b.UpdatedAt, b.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update business", "id", b.ID.String(), "error", err)
		return fmt.Errorf("failed to update business: %w", err)
	}

	if result.RowsAffected() == 0 {
		return business.ErrBusinessNotFound{BusinessID: b.ID}
	}

	return nil
}

func (r *BusinessRepository) CreatePaymentLink(ctx context.Context, link *business.PaymentLink) error {
	query := `
		INSERT INTO payment_links (id, business_id, name, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		link.ID, link.BusinessID, link.Name, link.Currency, link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payment link", "id", link.ID, "error", err)
		return fmt.Errorf("failed to create payment link: %w", err)
	}

	for _, sub := range link.Subaccounts {
		if err := r.createSubaccount(ctx, link.ID, &sub); err != nil {
			return err
		}
	}

	return nil
}

func (r *BusinessRepository) createSubaccount(ctx context.Context, linkID string, sub *business.Subaccount) error {
	query := `
		INSERT INTO subaccounts (id, code, payment_link_id, bank_code, account_no, account_name,
			split_type, split_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		sub.ID, sub.Code, linkID, sub.BankCode, sub.AccountNo, sub.AccountName,
		sub.SplitType, sub.SplitValue, sub.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create subaccount", "id", sub.ID, "payment_link_id", linkID, "error", err)
		return fmt.Errorf("failed to create subaccount: %w", err)
	}

	return nil
}

// GetPaymentLink loads the link together with its subaccount split
// configuration.
func (r *BusinessRepository) GetPaymentLink(ctx context.Context, id string) (*business.PaymentLink, error) {
	query := `
		SELECT id, business_id, name, currency, created_at, updated_at
		FROM payment_links
		WHERE id = $1
	`

	var link business.PaymentLink
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&link.ID, &link.BusinessID, &link.Name, &link.Currency, &link.CreatedAt, &link.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, business.ErrPaymentLinkNotFound{LinkID: id}
		}
		r.logger.Error("Failed to get payment link", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get payment link: %w", err)
	}

	subQuery := `
		SELECT id, code, payment_link_id, bank_code, account_no, account_name,
			split_type, split_value, created_at
		FROM subaccounts
		WHERE payment_link_id = $1
		ORDER BY created_at
	`

	rows, err := r.querier.Query(ctx, subQuery, id)
	if err != nil {
		r.logger.Error("Failed to list subaccounts", "payment_link_id", id, "error", err)
		return nil, fmt.Errorf("failed to list subaccounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sub business.Subaccount
		if err := rows.Scan(
			&sub.ID, &sub.Code, &sub.PaymentLinkID, &sub.BankCode, &sub.AccountNo, &sub.AccountName,
			&sub.SplitType, &sub.SplitValue, &sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subaccount: %w", err)
		}
		link.Subaccounts = append(link.Subaccounts, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subaccounts: %w", err)
	}

	return &link, nil
}
