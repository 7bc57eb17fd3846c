package business

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName           = errors.New("business name cannot be empty")
	ErrInvalidSplitValue   = errors.New("split value must be positive")
	ErrInvalidPercentSplit = errors.New("percentage split cannot exceed 100")
)

// Business is a merchant collecting payments on the platform
type Business struct {
	ID                  uuid.UUID                `json:"id"`
	Name                string                   `json:"name"`
	Email               string                   `json:"email"`
	SettlementDelayDays int                      `json:"settlement_delay_days"`
	PayoutDestination   shared.PayoutDestination `json:"payout_destination"`
	BankCode            string                   `json:"bank_code"`
	AccountNo           string                   `json:"account_no"`
	AccountName         string                   `json:"account_name"`
	FeePercent          decimal.Decimal          `json:"fee_percent"`
	FeeFixed            int64                    `json:"fee_fixed"`
	FeeCap              int64                    `json:"fee_cap"`
	VATPercent          decimal.Decimal          `json:"vat_percent"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}

// NewBusiness creates a business with the platform's default payout policy
func NewBusiness(name, email string, delayDays int) (*Business, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if delayDays < 0 {
		delayDays = 0
	}

	now := time.Now()
	return &Business{
		ID:                  uuid.New(),
		Name:                name,
		Email:               email,
		SettlementDelayDays: delayDays,
		PayoutDestination:   shared.PayoutDestinationBank,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// NextPayoutDate is today plus the business's configured settlement delay
func (b *Business) NextPayoutDate(today time.Time) time.Time {
	return today.UTC().Truncate(24 * time.Hour).AddDate(0, 0, b.SettlementDelayDays)
}

// PaymentLink is a collection surface a business shares with customers
type PaymentLink struct {
	ID          string       `json:"id"`
	BusinessID  uuid.UUID    `json:"business_id"`
	Name        string       `json:"name"`
	Currency    string       `json:"currency"`
	Subaccounts []Subaccount `json:"subaccounts"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Subaccount is a sub-merchant entitled to a split of funds collected
// through a specific payment link.
type Subaccount struct {
	ID            string           `json:"id"`
	Code          string           `json:"code"`
	PaymentLinkID string           `json:"payment_link_id"`
	BankCode      string           `json:"bank_code"`
	AccountNo     string           `json:"account_no"`
	AccountName   string           `json:"account_name"`
	SplitType     shared.SplitType `json:"split_type"`
	SplitValue    decimal.Decimal  `json:"split_value"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Validate rejects malformed split configuration
func (s *Subaccount) Validate() error {
	if s.SplitValue.IsNegative() || s.SplitValue.IsZero() {
		return ErrInvalidSplitValue
	}
	if s.SplitType == shared.SplitTypePercentage && s.SplitValue.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidPercentSplit
	}
	return nil
}
