package outbox

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
)

// Repository manages revenue-adjustment outbox persistence
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	GetByTransactionRef(ctx context.Context, ref string) (*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	WithTx(tx pgx.Tx) Repository
}

// ErrMessageNotFound indicates missing outbox message
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return "outbox message not found: " + strconv.FormatInt(e.ID, 10)
}

// ErrDuplicateMessage indicates transaction-reference uniqueness violation
type ErrDuplicateMessage struct {
	TransactionRef string
}

func (e ErrDuplicateMessage) Error() string {
	return "duplicate outbox message: " + e.TransactionRef
}
