package chargeback

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks a chargeback's lifecycle
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusResolved Status = "RESOLVED"
)

// Chargeback is a disputed collection held against a business. Pending
// chargebacks gate settlement payouts when their total exceeds the amount
// payable.
type Chargeback struct {
	ID             uuid.UUID `json:"id"`
	BusinessID     uuid.UUID `json:"business_id"`
	TransactionRef string    `json:"transaction_ref"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Reason         string    `json:"reason"`
	Status         Status    `json:"status"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// New opens a pending chargeback against a business
func New(businessID uuid.UUID, transactionRef, currency, reason string, amount int64) *Chargeback {
	now := time.Now()
	return &Chargeback{
		ID:             uuid.New(),
		BusinessID:     businessID,
		TransactionRef: transactionRef,
		Amount:         amount,
		Currency:       currency,
		Reason:         reason,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Resolve closes the chargeback so it no longer gates payouts
func (c *Chargeback) Resolve() {
	if c.Status == StatusResolved {
		return
	}
	now := time.Now()
	c.Status = StatusResolved
	c.ResolvedAt = &now
	c.UpdatedAt = now
}
