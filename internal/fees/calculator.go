// Package fees derives the fee, VAT, platform revenue, and merchant
// settle-amount for a transaction. Amounts are int64 minor units; the
// percentage math runs on decimals and rounds half-up to a minor unit.
package fees

import (
	"errors"
	"fmt"

	"github.com/lystun/payflo-sub003/internal/config"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var ErrSettleBelowZero = errors.New("fees exceed transaction amount")

// Settings holds the effective fee schedule for one calculation. A
// business's own schedule overrides the platform defaults field by field.
type Settings struct {
	FeePercent decimal.Decimal
	FeeFixed   int64
	FeeCap     int64 // 0 means uncapped
	VATPercent decimal.Decimal
}

// Breakdown is the result of one fee calculation
type Breakdown struct {
	Fee          int64
	VAT          int64
	Revenue      int64
	SettleAmount int64
}

// Calculator computes fee breakdowns from platform defaults merged with
// per-business settings.
type Calculator struct {
	defaults Settings
}

func NewCalculator(defaults Settings) *Calculator {
	return &Calculator{defaults: defaults}
}

// SettingsFromConfig parses the configured platform fee schedule
func SettingsFromConfig(cfg *config.FeesConfig) (Settings, error) {
	feePercent, err := decimal.NewFromString(cfg.FeePercent)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid fee percent %q: %w", cfg.FeePercent, err)
	}
	vatPercent, err := decimal.NewFromString(cfg.VATPercent)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid vat percent %q: %w", cfg.VATPercent, err)
	}
	return Settings{
		FeePercent: feePercent,
		FeeFixed:   cfg.FeeFixed,
		FeeCap:     cfg.FeeCap,
		VATPercent: vatPercent,
	}, nil
}

// SettingsFor merges a business's fee schedule over the platform defaults
func (c *Calculator) SettingsFor(b *business.Business) Settings {
	s := c.defaults
	if b == nil {
		return s
	}
	if !b.FeePercent.IsZero() {
		s.FeePercent = b.FeePercent
	}
	if b.FeeFixed > 0 {
		s.FeeFixed = b.FeeFixed
	}
	if b.FeeCap > 0 {
		s.FeeCap = b.FeeCap
	}
	if !b.VATPercent.IsZero() {
		s.VATPercent = b.VATPercent
	}
	return s
}

// Calculate produces the fee breakdown for an amount. Only fee-bearing
// features (collections, withdrawals, transfers) are charged; everything
// else settles at face value.
func (c *Calculator) Calculate(amount int64, feature shared.Feature, s Settings) (Breakdown, error) {
	if amount <= 0 {
		return Breakdown{}, shared.ErrInvalidAmount
	}

	switch feature {
	case shared.FeatureCollection, shared.FeatureWithdrawal, shared.FeatureTransfer:
	default:
		return Breakdown{SettleAmount: amount}, nil
	}

	amt := decimal.NewFromInt(amount)
	fee := amt.Mul(s.FeePercent).Div(decimal.NewFromInt(100)).Round(0).IntPart() + s.FeeFixed
	if s.FeeCap > 0 && fee > s.FeeCap {
		fee = s.FeeCap
	}

	vat := decimal.NewFromInt(fee).Mul(s.VATPercent).Div(decimal.NewFromInt(100)).Round(0).IntPart()

	settle := amount - fee - vat
	if settle < 0 {
		return Breakdown{}, ErrSettleBelowZero
	}

	return Breakdown{
		Fee:          fee,
		VAT:          vat,
		Revenue:      fee,
		SettleAmount: settle,
	}, nil
}
