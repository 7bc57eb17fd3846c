// Package walletledger exposes the balance-mutation primitives of the
// multi-bucket wallet. Every operation loads the persisted wallet, applies a
// delta, and persists under optimistic locking with a bounded retry.
package walletledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lystun/payflo-sub003/internal/domain/outbox"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
	"github.com/lystun/payflo-sub003/internal/platform/persistence"
)

// casRetries bounds the optimistic-lock retry loop. Contention on one
// wallet is rare because jobs are serialized per batch; three attempts
// absorb the occasional API-side collision.
const casRetries = 3

var ErrWalletContention = errors.New("wallet update contention, retries exhausted")

type Service struct {
	pgDB         *persistence.PostgresDB
	wallets      wallet.Repository
	outboxRepo   outbox.Repository
	fundings     wallet.FundingRepository
	transactions transaction.Repository
	logger       *slog.Logger
}

func NewService(
	pgDB *persistence.PostgresDB,
	wallets wallet.Repository,
	outboxRepo outbox.Repository,
	fundings wallet.FundingRepository,
	transactions transaction.Repository,
	logger *slog.Logger,
) *Service {
	return &Service{
		pgDB:         pgDB,
		wallets:      wallets,
		outboxRepo:   outboxRepo,
		fundings:     fundings,
		transactions: transactions,
		logger:       logger,
	}
}

// mutate applies fn to the business's wallet and persists it, retrying on
// optimistic-lock conflicts.
func (s *Service) mutate(ctx context.Context, businessID uuid.UUID, fn func(*wallet.Wallet) error) (*wallet.Wallet, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		w, err := s.wallets.GetByBusinessID(ctx, businessID)
		if err != nil {
			return nil, err
		}

		if err := fn(w); err != nil {
			return nil, err
		}

		err = s.wallets.Update(ctx, w)
		if err == nil {
			return w, nil
		}

		var conflict wallet.ErrConcurrentModification
		if !errors.As(err, &conflict) {
			return nil, err
		}
		s.logger.Warn("wallet update conflict, retrying", "business_id", businessID.String(), "attempt", attempt+1)
	}
	return nil, ErrWalletContention
}

// CreditInflow credits the available bucket with the transaction's net
// amount (amount minus fee and VAT; face value for non-fee-bearing inflows)
// and bumps the inflow counters.
func (s *Service) CreditInflow(ctx context.Context, txn *transaction.Transaction) (*wallet.Wallet, error) {
	delta := txn.Amount - txn.Fee - txn.VATFee
	return s.mutate(ctx, txn.BusinessID, func(w *wallet.Wallet) error {
		if err := w.CreditAvailable(delta); err != nil {
			return err
		}
		w.RecordInflow(delta)
		return nil
	})
}

// DebitOutflow debits the available bucket with the gross amount (amount
// plus fee and VAT) and bumps the counters matching the feature.
func (s *Service) DebitOutflow(ctx context.Context, txn *transaction.Transaction) (*wallet.Wallet, error) {
	gross := txn.Amount + txn.Fee + txn.VATFee
	return s.mutate(ctx, txn.BusinessID, func(w *wallet.Wallet) error {
		if err := w.DebitAvailable(gross); err != nil {
			return err
		}
		w.RecordOutflow(gross)
		switch txn.Feature {
		case shared.FeatureWithdrawal:
			w.RecordWithdrawal(gross)
		case shared.FeatureTransfer:
			w.RecordTransfer(gross)
		}
		return nil
	})
}

// FundSettlement credits the merchant's settlement bucket with a reported
// collection's settle amount, at most once per transaction reference. The
// funding marker and the wallet credit commit in one database transaction,
// so a crash between attaching the collection and crediting the bucket
// cannot drop the credit and a redelivery cannot double it. Returns false
// when the reference already funded the bucket.
func (s *Service) FundSettlement(ctx context.Context, txn *transaction.Transaction) (bool, error) {
	funded := false
	err := s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		marker := &wallet.Funding{
			TransactionRef: txn.Reference,
			BusinessID:     txn.BusinessID,
			Amount:         txn.SettleAmount,
			CreatedAt:      time.Now(),
		}
		if err := s.fundings.WithTx(tx).Create(ctx, marker); err != nil {
			var dup wallet.ErrDuplicateFunding
			if errors.As(err, &dup) {
				return nil
			}
			return err
		}

		walletsTx := s.wallets.WithTx(tx)
		w, err := walletsTx.LockForUpdate(ctx, txn.BusinessID)
		if err != nil {
			return err
		}
		if err := w.CreditSettlement(txn.SettleAmount); err != nil {
			return err
		}
		if err := walletsTx.Update(ctx, w); err != nil {
			return err
		}
		funded = true
		return nil
	})
	return funded, err
}

// DebitSettlement moves funds out of the settlement bucket, clamping at
// zero. Returns the amount actually applied; a shortfall is logged so the
// permissive clamp stays auditable.
func (s *Service) DebitSettlement(ctx context.Context, businessID uuid.UUID, amount int64) (int64, error) {
	var applied int64
	_, err := s.mutate(ctx, businessID, func(w *wallet.Wallet) error {
		var err error
		applied, err = w.DebitSettlementClamped(amount)
		return err
	})
	if err != nil {
		return 0, err
	}
	if applied != amount {
		s.logger.Warn("settlement debit clamped at zero",
			"business_id", businessID.String(),
			"requested", amount,
			"applied", applied,
		)
	}
	return applied, nil
}

// SettleToWallet moves a payable amount from the settlement bucket straight
// into the available bucket for wallet-destination payouts. No provider is
// involved; the move is atomic within one wallet update.
func (s *Service) SettleToWallet(ctx context.Context, businessID uuid.UUID, amount int64) (*wallet.Wallet, error) {
	return s.mutate(ctx, businessID, func(w *wallet.Wallet) error {
		if err := w.DebitSettlement(amount); err != nil {
			return err
		}
		if err := w.CreditAvailable(amount); err != nil {
			return err
		}
		w.RecordInflow(amount)
		return nil
	})
}

// CreditLocked accrues platform revenue into the platform wallet
func (s *Service) CreditLocked(ctx context.Context, businessID uuid.UUID, amount int64) (*wallet.Wallet, error) {
	return s.mutate(ctx, businessID, func(w *wallet.Wallet) error {
		return w.CreditLocked(amount)
	})
}

// DebitLocked realizes or returns accrued platform revenue
func (s *Service) DebitLocked(ctx context.Context, businessID uuid.UUID, amount int64) (*wallet.Wallet, error) {
	return s.mutate(ctx, businessID, func(w *wallet.Wallet) error {
		return w.DebitLocked(amount)
	})
}

// ReverseToWallet undoes a prior available-bucket debit: it records a
// reversal transaction, re-credits the original gross amount, and schedules
// a revenue-reversal adjustment through the outbox in the same database
// transaction as the wallet update.
func (s *Service) ReverseToWallet(ctx context.Context, original *transaction.Transaction) (*transaction.Transaction, error) {
	reversal := transaction.NewReversal(original)
	if err := s.transactions.Create(ctx, reversal); err != nil {
		return nil, fmt.Errorf("failed to record reversal transaction: %w", err)
	}

	err := s.reCredit(ctx, original, func(w *wallet.Wallet) error {
		if err := w.CreditAvailable(reversal.Amount); err != nil {
			return err
		}
		w.RecordReversal(reversal.Amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

// ReverseToSettlement undoes a prior settlement-bucket debit after a failed
// payout dispatch. The caller passes the amount the debit actually applied;
// a clamped debit reverses only what left the bucket, so the bucket
// round-trips to its pre-debit value instead of above it.
func (s *Service) ReverseToSettlement(ctx context.Context, original *transaction.Transaction, amount int64) (*transaction.Transaction, error) {
	reversal := transaction.NewReversalFor(original, amount)
	if err := s.transactions.Create(ctx, reversal); err != nil {
		return nil, fmt.Errorf("failed to record reversal transaction: %w", err)
	}

	err := s.reCredit(ctx, original, func(w *wallet.Wallet) error {
		if err := w.CreditSettlement(reversal.Amount); err != nil {
			return err
		}
		w.RecordReversal(reversal.Amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

// reCredit applies the wallet re-credit and, when the original transaction
// carried platform revenue, enqueues the revenue adjustment atomically with
// the wallet row update.
func (s *Service) reCredit(ctx context.Context, original *transaction.Transaction, apply func(*wallet.Wallet) error) error {
	return s.pgDB.ExecuteTx(ctx, func(tx pgx.Tx) error {
		walletsTx := s.wallets.WithTx(tx)

		w, err := walletsTx.LockForUpdate(ctx, original.BusinessID)
		if err != nil {
			return err
		}
		if err := apply(w); err != nil {
			return err
		}
		if err := walletsTx.Update(ctx, w); err != nil {
			return err
		}

		if original.Fee == 0 && original.VATFee == 0 {
			return nil
		}

		msg, err := outbox.NewMessage(&outbox.RevenueAdjustment{
			TransactionRef: original.Reference,
			BusinessID:     original.BusinessID,
			Fee:            original.Fee,
			VATFee:         original.VATFee,
		})
		if err != nil {
			return fmt.Errorf("failed to build revenue adjustment: %w", err)
		}
		if err := s.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
			var dup outbox.ErrDuplicateMessage
			if errors.As(err, &dup) {
				// Adjustment already queued for this transaction; the
				// poller is idempotent on the reference.
				return nil
			}
			return err
		}
		return nil
	})
}

// DebitThenCall implements the immediate-debit-then-reverse pattern for
// outbound payments from the available bucket: the wallet is debited
// in-process before the provider call, closing the double-spend window. On
// call failure a compensating reversal re-credits the wallet.
func (s *Service) DebitThenCall(ctx context.Context, txn *transaction.Transaction, call func(context.Context) error) (*wallet.Wallet, error) {
	w, err := s.DebitOutflow(ctx, txn)
	if err != nil {
		return nil, err
	}

	if err := call(ctx); err != nil {
		s.logger.Error("provider call failed after wallet debit, reversing",
			"reference", txn.Reference,
			"business_id", txn.BusinessID.String(),
			"error", err,
		)
		txn.MarkFailed(shared.FailureReasonProviderError)
		if updateErr := s.transactions.Update(ctx, txn); updateErr != nil {
			s.logger.Error("failed to persist failed payout transaction", "reference", txn.Reference, "error", updateErr)
		}
		if _, revErr := s.ReverseToWallet(ctx, txn); revErr != nil {
			// Stuck state: debited but not reversed. Surfaced for alerting.
			return nil, fmt.Errorf("payout failed and reversal also failed for %s: %v (payout error: %w)", txn.Reference, revErr, err)
		}
		return nil, err
	}

	return w, nil
}
