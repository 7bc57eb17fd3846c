package batch

import (
	"context"
	"time"
)

// Repository manages settlement batch persistence. Batch mutations are
// read-modify-write; callers must be serialized per batch (the run queue
// keys messages by batch code so one consumer owns a batch at a time).
type Repository interface {
	Create(ctx context.Context, b *Batch) error
	GetByCode(ctx context.Context, code string) (*Batch, error)

	// FindOrCreateForDate returns the batch for a cycle date, creating it
	// lazily on first use.
	FindOrCreateForDate(ctx context.Context, date time.Time) (*Batch, error)

	// Save replaces the persisted batch document with the given state
	Save(ctx context.Context, b *Batch) error

	List(ctx context.Context, limit, offset int) ([]*Batch, error)
}

// ErrBatchNotFound indicates a missing settlement batch
type ErrBatchNotFound struct {
	Code string
}

func (e ErrBatchNotFound) Error() string {
	return "settlement batch not found: " + e.Code
}

// Is matches any ErrBatchNotFound when the target carries no code
func (e ErrBatchNotFound) Is(target error) bool {
	t, ok := target.(ErrBatchNotFound)
	if !ok {
		return false
	}
	if t.Code == "" {
		return true
	}
	return e.Code == t.Code
}
