package shared

import (
	"time"

	"github.com/google/uuid"
)

// CollectionEvent defines a Kafka message reporting a successful
// payment-link collection into the current settlement batch.
// The worker re-loads the transaction by reference, so the event stays small.
type CollectionEvent struct {
	Reference     string    `json:"reference"`
	BusinessID    uuid.UUID `json:"business_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// RunRequest defines a Kafka message triggering a settlement run.
// BatchCode may be empty, in which case the worker runs the current open batch.
type RunRequest struct {
	BatchCode     string    `json:"batch_code,omitempty"`
	Mode          RunMode   `json:"mode"`
	BusinessID    uuid.UUID `json:"business_id,omitempty"`
	Force         bool      `json:"force"`
	IncludePast   bool      `json:"include_past"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Validate rejects malformed run requests before they reach the queue
func (r *RunRequest) Validate() error {
	switch r.Mode {
	case RunModeBulk:
		return nil
	case RunModeSingle:
		if r.BusinessID == uuid.Nil {
			return ErrMissingBusinessID
		}
		return nil
	default:
		return ErrInvalidRunMode
	}
}

// PayoutNotification is published after a payout attempt for downstream
// email/SMS delivery. Fire and forget; delivery is not our concern.
type PayoutNotification struct {
	Reference     string    `json:"reference"`
	BusinessID    uuid.UUID `json:"business_id"`
	SubaccountID  string    `json:"subaccount_id,omitempty"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Succeeded     bool      `json:"succeeded"`
	FailureReason string    `json:"failure_reason,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
