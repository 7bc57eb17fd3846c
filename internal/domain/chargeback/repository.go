package chargeback

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages chargeback persistence
type Repository interface {
	Create(ctx context.Context, c *Chargeback) error
	GetByID(ctx context.Context, id uuid.UUID) (*Chargeback, error)
	Update(ctx context.Context, c *Chargeback) error

	// PendingTotalForBusiness sums the amounts of unresolved chargebacks
	// held against a business.
	PendingTotalForBusiness(ctx context.Context, businessID uuid.UUID) (int64, error)

	ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*Chargeback, error)
}

// ErrChargebackNotFound indicates a missing chargeback
type ErrChargebackNotFound struct {
	ID uuid.UUID
}

func (e ErrChargebackNotFound) Error() string {
	return "chargeback not found: " + e.ID.String()
}
