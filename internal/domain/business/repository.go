package business

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines business and payment-link persistence operations
type Repository interface {
	Create(ctx context.Context, b *Business) error
	GetByID(ctx context.Context, id uuid.UUID) (*Business, error)
	Update(ctx context.Context, b *Business) error

	CreatePaymentLink(ctx context.Context, link *PaymentLink) error

	// GetPaymentLink returns the link with its current subaccount
	// configuration; grouping snapshots it fresh on every report.
	GetPaymentLink(ctx context.Context, id string) (*PaymentLink, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrBusinessNotFound indicates missing business
type ErrBusinessNotFound struct {
	BusinessID uuid.UUID
}

func (e ErrBusinessNotFound) Error() string {
	return "business not found: " + e.BusinessID.String()
}

// ErrPaymentLinkNotFound indicates missing payment link
type ErrPaymentLinkNotFound struct {
	LinkID string
}

func (e ErrPaymentLinkNotFound) Error() string {
	return "payment link not found: " + e.LinkID
}
