package components

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/chargeback"
)

// ChargebackAggregatorImpl sums a business's unresolved chargeback exposure
type ChargebackAggregatorImpl struct {
	chargebacks chargeback.Repository
	logger      *slog.Logger
}

func NewChargebackAggregator(chargebacks chargeback.Repository, logger *slog.Logger) *ChargebackAggregatorImpl {
	return &ChargebackAggregatorImpl{
		chargebacks: chargebacks,
		logger:      logger,
	}
}

func (a *ChargebackAggregatorImpl) PendingTotal(ctx context.Context, businessID uuid.UUID) (int64, error) {
	return a.chargebacks.PendingTotalForBusiness(ctx, businessID)
}
