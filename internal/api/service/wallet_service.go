package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
	"github.com/lystun/payflo-sub003/internal/fees"
	"github.com/lystun/payflo-sub003/internal/provider"
)

// WalletServiceImpl implements the WalletService interface
type WalletServiceImpl struct {
	walletRepo   wallet.Repository
	businessRepo business.Repository
	txnRepo      transaction.Repository
	ledger       walletLedger
	payouts      provider.PayoutProvider
	calculator   *fees.Calculator
	currency     string
	logger       *slog.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(
	logger *slog.Logger,
	walletRepo wallet.Repository,
	businessRepo business.Repository,
	txnRepo transaction.Repository,
	ledger walletLedger,
	payouts provider.PayoutProvider,
	calculator *fees.Calculator,
	currency string,
) WalletService {
	return &WalletServiceImpl{
		walletRepo:   walletRepo,
		businessRepo: businessRepo,
		txnRepo:      txnRepo,
		ledger:       ledger,
		payouts:      payouts,
		calculator:   calculator,
		currency:     currency,
		logger:       logger,
	}
}

// GetWallet retrieves a business's wallet
func (s *WalletServiceImpl) GetWallet(ctx context.Context, businessID uuid.UUID) (*wallet.Wallet, error) {
	return s.walletRepo.GetByBusinessID(ctx, businessID)
}

// Withdraw debits the available bucket with the gross amount and pays the
// net amount out through the provider. The wallet debit lands before the
// provider call; a failed call is compensated with a reversal that also
// gives the accrued fee revenue back through the outbox.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, params WithdrawParams) (*transaction.Transaction, error) {
	biz, err := s.businessRepo.GetByID(ctx, params.BusinessID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.calculator.Calculate(params.Amount, shared.FeatureWithdrawal, s.calculator.SettingsFor(biz))
	if err != nil {
		return nil, err
	}

	txn, err := transaction.NewWithdrawal(biz.ID, s.currency, params.Amount, breakdown.Fee, breakdown.VAT, breakdown.Revenue)
	if err != nil {
		return nil, err
	}
	txn.CorrelationID = params.CorrelationID

	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, err
	}

	var providerRef string
	_, err = s.ledger.DebitThenCall(ctx, txn, func(callCtx context.Context) error {
		result, payErr := s.payouts.Payout(callCtx, provider.PayoutRequest{
			Amount:      params.Amount,
			Currency:    s.currency,
			BankCode:    params.BankCode,
			AccountNo:   params.AccountNo,
			AccountName: params.AccountName,
			Reference:   txn.Reference,
			Narration:   params.Narration,
		})
		if payErr != nil {
			return payErr
		}
		providerRef = result.ProviderRef
		return nil
	})
	if err != nil {
		return nil, err
	}

	txn.MarkSuccessful(providerRef)
	if err := s.txnRepo.Update(ctx, txn); err != nil {
		return nil, fmt.Errorf("withdrawal %s paid out but status update failed: %w", txn.Reference, err)
	}

	s.logger.Info("Withdrawal completed",
		"reference", txn.Reference,
		"business_id", biz.ID.String(),
		"amount", params.Amount,
		"fee", breakdown.Fee,
		"provider_ref", providerRef,
	)

	return txn, nil
}
