// Package provider abstracts the bank-transfer providers behind a single
// interface. The concrete variant is selected once at configuration time;
// the settlement core never branches on a provider name.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lystun/payflo-sub003/internal/config"
)

var (
	ErrPayoutDeclined    = errors.New("provider declined the payout")
	ErrUnknownProvider   = errors.New("unknown payout provider")
	ErrAccountUnresolved = errors.New("provider could not resolve the account")
)

// PayoutRequest describes one outbound bank transfer. The reference is
// freshly generated per attempt, so providers may treat it as an
// idempotency key.
type PayoutRequest struct {
	Amount      int64
	Currency    string
	BankCode    string
	AccountNo   string
	AccountName string
	Reference   string
	Narration   string
}

// PayoutResult carries the provider's own reference for a dispatched payout
type PayoutResult struct {
	ProviderRef string
}

// ResolvedAccount is the provider's view of a bank account
type ResolvedAccount struct {
	AccountName string
	AccountNo   string
}

// PayoutProvider is the bank-transfer abstraction consumed by the
// settlement dispatcher. Both calls block and honor context deadlines.
type PayoutProvider interface {
	Name() string
	Payout(ctx context.Context, req PayoutRequest) (*PayoutResult, error)
	Resolve(ctx context.Context, accountNo, bankCode string) (*ResolvedAccount, error)
}

// New selects the configured provider variant. The returned provider wraps
// an HTTP client whose timeout is the configured per-call timeout, so a
// hung provider call fails instead of blocking a run forever.
func New(cfg *config.ProviderConfig) (PayoutProvider, error) {
	client := &http.Client{Timeout: cfg.CallTimeout}
	switch cfg.Active {
	case "bani":
		return NewBani(cfg, client), nil
	case "ninepsb":
		return NewNinePSB(cfg, client), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Active)
	}
}
