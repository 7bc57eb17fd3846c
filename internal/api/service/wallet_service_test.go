package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
	"github.com/lystun/payflo-sub003/internal/provider"
)

type walletServiceFixture struct {
	walletRepo   *MockWalletRepository
	businessRepo *MockBusinessRepository
	txnRepo      *MockTransactionRepository
	ledger       *MockWalletLedger
	payouts      *MockPayoutProvider
	svc          WalletService
}

func newWalletServiceFixture() *walletServiceFixture {
	f := &walletServiceFixture{
		walletRepo:   new(MockWalletRepository),
		businessRepo: new(MockBusinessRepository),
		txnRepo:      new(MockTransactionRepository),
		ledger:       new(MockWalletLedger),
		payouts:      new(MockPayoutProvider),
	}
	f.svc = NewWalletService(newTestLogger(), f.walletRepo, f.businessRepo, f.txnRepo, f.ledger, f.payouts, testCalculator(), "NGN")
	return f
}

func TestWalletServiceImpl_GetWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newWalletServiceFixture()

		businessID := uuid.New()
		w, err := wallet.NewWallet(businessID, "NGN")
		require.NoError(t, err)
		f.walletRepo.On("GetByBusinessID", ctx, businessID).Return(w, nil).Once()

		result, err := f.svc.GetWallet(ctx, businessID)

		require.NoError(t, err)
		assert.Equal(t, w, result)
		f.walletRepo.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newWalletServiceFixture()

		businessID := uuid.New()
		f.walletRepo.On("GetByBusinessID", ctx, businessID).Return(nil, wallet.ErrWalletNotFound{BusinessID: businessID}).Once()

		result, err := f.svc.GetWallet(ctx, businessID)

		assert.Nil(t, result)
		var notFound wallet.ErrWalletNotFound
		assert.ErrorAs(t, err, &notFound)
		f.walletRepo.AssertExpectations(t)
	})
}

func TestWalletServiceImpl_Withdraw(t *testing.T) {
	ctx := context.Background()

	biz := &business.Business{
		ID:        uuid.New(),
		Name:      "Acme Stores",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	params := WithdrawParams{
		BusinessID:    biz.ID,
		Amount:        15000,
		BankCode:      "058",
		AccountNo:     "0123456789",
		AccountName:   "Acme Stores Ltd",
		Narration:     "weekly sweep",
		CorrelationID: "corr_1",
	}

	t.Run("Success", func(t *testing.T) {
		f := newWalletServiceFixture()

		f.businessRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()
		f.txnRepo.On("Create", ctx, mock.AnythingOfType("*transaction.Transaction")).Return(nil).Once()
		f.payouts.On("Payout", mock.Anything, mock.MatchedBy(func(req provider.PayoutRequest) bool {
			return req.Amount == int64(15000) && req.BankCode == "058" && req.AccountNo == "0123456789"
		})).Return(&provider.PayoutResult{ProviderRef: "prov_1"}, nil).Once()
		f.ledger.On("DebitThenCall", ctx, mock.AnythingOfType("*transaction.Transaction"), mock.Anything).
			Run(func(args mock.Arguments) {
				call := args.Get(2).(func(context.Context) error)
				require.NoError(t, call(ctx))
			}).
			Return(&wallet.Wallet{}, nil).Once()
		f.txnRepo.On("Update", ctx, mock.MatchedBy(func(txn *transaction.Transaction) bool {
			return txn.Status == shared.TransactionStatusSuccessful && txn.ProviderRef == "prov_1"
		})).Return(nil).Once()

		txn, err := f.svc.Withdraw(ctx, params)

		require.NoError(t, err)
		require.NotNil(t, txn)
		assert.Equal(t, shared.FeatureWithdrawal, txn.Feature)
		assert.Equal(t, int64(15000), txn.Amount)
		assert.Equal(t, int64(150), txn.Fee)
		assert.Equal(t, int64(11), txn.VATFee)
		assert.Equal(t, "prov_1", txn.ProviderRef)
		assert.Equal(t, "corr_1", txn.CorrelationID)

		f.businessRepo.AssertExpectations(t)
		f.txnRepo.AssertExpectations(t)
		f.ledger.AssertExpectations(t)
		f.payouts.AssertExpectations(t)
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		f := newWalletServiceFixture()

		f.businessRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()
		f.txnRepo.On("Create", ctx, mock.AnythingOfType("*transaction.Transaction")).Return(nil).Once()
		f.ledger.On("DebitThenCall", ctx, mock.AnythingOfType("*transaction.Transaction"), mock.Anything).
			Return(nil, wallet.ErrInsufficientBalance).Once()

		txn, err := f.svc.Withdraw(ctx, params)

		assert.Nil(t, txn)
		assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)
		f.payouts.AssertNotCalled(t, "Payout")
		f.txnRepo.AssertNotCalled(t, "Update")
		f.ledger.AssertExpectations(t)
	})

	t.Run("ProviderFailure", func(t *testing.T) {
		f := newWalletServiceFixture()

		providerErr := errors.New("provider unavailable")
		f.businessRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()
		f.txnRepo.On("Create", ctx, mock.AnythingOfType("*transaction.Transaction")).Return(nil).Once()
		f.payouts.On("Payout", mock.Anything, mock.Anything).Return(nil, providerErr).Once()
		f.ledger.On("DebitThenCall", ctx, mock.AnythingOfType("*transaction.Transaction"), mock.Anything).
			Run(func(args mock.Arguments) {
				call := args.Get(2).(func(context.Context) error)
				assert.ErrorIs(t, call(ctx), providerErr)
			}).
			Return(nil, providerErr).Once()

		txn, err := f.svc.Withdraw(ctx, params)

		assert.Nil(t, txn)
		assert.ErrorIs(t, err, providerErr)
		f.txnRepo.AssertNotCalled(t, "Update")
		f.ledger.AssertExpectations(t)
		f.payouts.AssertExpectations(t)
	})

	t.Run("BusinessNotFound", func(t *testing.T) {
		f := newWalletServiceFixture()

		f.businessRepo.On("GetByID", ctx, biz.ID).Return(nil, business.ErrBusinessNotFound{BusinessID: biz.ID}).Once()

		txn, err := f.svc.Withdraw(ctx, params)

		assert.Nil(t, txn)
		var notFound business.ErrBusinessNotFound
		assert.ErrorAs(t, err, &notFound)
		f.txnRepo.AssertNotCalled(t, "Create")
	})
}
