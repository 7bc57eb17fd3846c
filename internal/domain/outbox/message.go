package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
)

// RevenueAdjustment gives accrued platform revenue back after a reversal:
// the platform wallet's locked bucket is debited by fee + VAT of the
// reversed transaction.
type RevenueAdjustment struct {
	TransactionRef string    `json:"transaction_ref"`
	BusinessID     uuid.UUID `json:"business_id"`
	Fee            int64     `json:"fee"`
	VATFee         int64     `json:"vat_fee"`
}

// Message stores a pending revenue adjustment for reliable asynchronous
// application. The transaction reference doubles as the idempotency key.
type Message struct {
	ID             int64               `json:"id"`
	TransactionRef string              `json:"transaction_ref"`
	BusinessID     uuid.UUID           `json:"business_id"`
	Payload        json.RawMessage     `json:"payload"`
	Status         shared.OutboxStatus `json:"status"`
	Attempts       int                 `json:"attempts"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAttemptAt  *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(adj *RevenueAdjustment) (*Message, error) {
	payload, err := json.Marshal(adj)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionRef: adj.TransactionRef,
		BusinessID:     adj.BusinessID,
		Payload:        payload,
		Status:         shared.OutboxStatusPending,
		Attempts:       0,
		CreatedAt:      time.Now(),
	}, nil
}

// GetAdjustment extracts the revenue adjustment from the payload
func (m *Message) GetAdjustment() (*RevenueAdjustment, error) {
	var adj RevenueAdjustment
	if err := json.Unmarshal(m.Payload, &adj); err != nil {
		return nil, err
	}
	return &adj, nil
}
