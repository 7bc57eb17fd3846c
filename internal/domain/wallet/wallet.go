package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance for debit")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidCurrency     = errors.New("currency must be a 3-letter code")
)

// Wallet holds a business's platform funds split across four buckets.
// Amounts are stored in minor units. Counters are monotonic.
//
//   - Available:  spendable / withdrawable funds
//   - Locked:     accrued but not yet realized platform revenue
//   - Settlement: merchant funds collected but not yet paid out
//   - Ledger:     legacy running total, kept for reconciliation
type Wallet struct {
	ID         uuid.UUID `json:"id"`
	BusinessID uuid.UUID `json:"business_id"`
	Currency   string    `json:"currency"`

	Available  int64 `json:"available"`
	Locked     int64 `json:"locked"`
	Settlement int64 `json:"settlement"`
	Ledger     int64 `json:"ledger"`

	InflowCount     int64 `json:"inflow_count"`
	InflowValue     int64 `json:"inflow_value"`
	OutflowCount    int64 `json:"outflow_count"`
	OutflowValue    int64 `json:"outflow_value"`
	TransferCount   int64 `json:"transfer_count"`
	TransferValue   int64 `json:"transfer_value"`
	WithdrawalCount int64 `json:"withdrawal_count"`
	WithdrawalValue int64 `json:"withdrawal_value"`
	ReversalCount   int64 `json:"reversal_count"`
	ReversalValue   int64 `json:"reversal_value"`

	// Version is the optimistic locking column. It reflects the persisted
	// row and is bumped by the repository on each successful update, not by
	// in-memory mutations.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWallet creates an empty wallet for a business
func NewWallet(businessID uuid.UUID, currency string) (*Wallet, error) {
	if businessID == uuid.Nil {
		return nil, errors.New("business id cannot be nil")
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}

	now := time.Now()
	return &Wallet{
		ID:         uuid.New(),
		BusinessID: businessID,
		Currency:   currency,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (w *Wallet) touch() {
	w.UpdatedAt = time.Now()
}

// CreditAvailable adds to the spendable bucket
func (w *Wallet) CreditAvailable(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w.Available += amount
	w.Ledger += amount
	w.touch()
	return nil
}

// DebitAvailable removes from the spendable bucket.
// Underflow is an error, never a silent clamp.
func (w *Wallet) DebitAvailable(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if w.Available < amount {
		return ErrInsufficientBalance
	}
	w.Available -= amount
	w.touch()
	return nil
}

// CreditLocked accrues platform revenue not yet realized
func (w *Wallet) CreditLocked(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w.Locked += amount
	w.touch()
	return nil
}

// DebitLocked gives accrued revenue back, e.g. on a reversal
func (w *Wallet) DebitLocked(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if w.Locked < amount {
		return ErrInsufficientBalance
	}
	w.Locked -= amount
	w.touch()
	return nil
}

// CreditSettlement adds collected merchant funds awaiting payout
func (w *Wallet) CreditSettlement(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w.Settlement += amount
	w.touch()
	return nil
}

// DebitSettlement removes funds from the settlement bucket.
// Underflow is an error.
func (w *Wallet) DebitSettlement(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if w.Settlement < amount {
		return ErrInsufficientBalance
	}
	w.Settlement -= amount
	w.touch()
	return nil
}

// DebitSettlementClamped removes up to amount from the settlement bucket,
// clamping at zero, and returns the amount actually applied. Retries after
// a partial dispatch failure may debit against an already-deducted bucket;
// the caller logs when applied != amount.
func (w *Wallet) DebitSettlementClamped(amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	applied := amount
	if w.Settlement < amount {
		applied = w.Settlement
	}
	w.Settlement -= applied
	w.touch()
	return applied, nil
}

// RecordInflow bumps inflow counters
func (w *Wallet) RecordInflow(value int64) {
	w.InflowCount++
	w.InflowValue += value
}

// RecordOutflow bumps outflow counters
func (w *Wallet) RecordOutflow(value int64) {
	w.OutflowCount++
	w.OutflowValue += value
}

// RecordTransfer bumps transfer counters
func (w *Wallet) RecordTransfer(value int64) {
	w.TransferCount++
	w.TransferValue += value
}

// RecordWithdrawal bumps withdrawal counters
func (w *Wallet) RecordWithdrawal(value int64) {
	w.WithdrawalCount++
	w.WithdrawalValue += value
}

// RecordReversal bumps reversal counters
func (w *Wallet) RecordReversal(value int64) {
	w.ReversalCount++
	w.ReversalValue += value
}

// TotalHeld is the sum of all platform-held funds for this business
func (w *Wallet) TotalHeld() int64 {
	return w.Available + w.Locked + w.Settlement
}
