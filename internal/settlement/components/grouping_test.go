package components

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
)

func TestGroupingEngine_ReportTransaction(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	newFixture := func(t *testing.T) (*business.Business, *transaction.Transaction, *business.PaymentLink) {
		t.Helper()
		biz, err := business.NewBusiness("Acme Stores", "ops@acme.test", 1)
		require.NoError(t, err)

		link := &business.PaymentLink{
			ID:         "lnk_1",
			BusinessID: biz.ID,
			Subaccounts: []business.Subaccount{
				{
					ID:         "sub_1",
					Code:       "SUB-1",
					BankCode:   "058",
					AccountNo:  "0123456789",
					SplitType:  shared.SplitTypePercentage,
					SplitValue: decimal.NewFromInt(30),
				},
			},
		}

		txn, err := transaction.NewCollection(biz.ID, link.ID, "NGN", 15000, 150, 0, 150)
		require.NoError(t, err)
		return biz, txn, link
	}

	t.Run("FirstReportAttachesAndSignalsFunding", func(t *testing.T) {
		biz, txn, link := newFixture(t)
		txnRepo := new(MockTransactionRepository)
		bizRepo := new(MockBusinessRepository)
		engine := NewGroupingEngine(txnRepo, bizRepo, newTestLogger())

		b := batch.New(today)
		txnRepo.On("GetByReference", ctx, txn.Reference).Return(txn, nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()
		txnRepo.On("AttachToBatch", ctx, txn.Reference, b.Code).Return(nil).Once()
		bizRepo.On("GetPaymentLink", ctx, link.ID).Return(link, nil).Once()
		txnRepo.On("PendingSettleTotal", ctx, biz.ID, b.Code).Return(int64(14850), nil).Once()

		funded, err := engine.ReportTransaction(ctx, b, txn.Reference, today)

		require.NoError(t, err)
		assert.True(t, funded, "First attach funds the settlement bucket")
		assert.True(t, b.HasTransaction(txn.Reference))
		assert.Equal(t, int64(14850), b.TotalAmount)

		payoutDate, ok := b.PayoutDate(biz.ID)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), payoutDate)

		group := b.Groups[biz.ID.String()]
		require.NotNil(t, group)
		lg := group.Links[link.ID]
		require.NotNil(t, lg)
		assert.Contains(t, lg.Items, txn.Reference)
		assert.Equal(t, "30", lg.Subaccounts["sub_1"].SplitValue)

		assert.Equal(t, int64(14850), b.Overview.Amount)
		assert.Equal(t, 1, b.Overview.Businesses)
		txnRepo.AssertExpectations(t)
		bizRepo.AssertExpectations(t)
	})

	t.Run("RedeliveryKeepsTreeIdempotent", func(t *testing.T) {
		biz, txn, link := newFixture(t)
		txnRepo := new(MockTransactionRepository)
		bizRepo := new(MockBusinessRepository)
		engine := NewGroupingEngine(txnRepo, bizRepo, newTestLogger())

		b := batch.New(today)
		txnRepo.On("GetByReference", ctx, txn.Reference).Return(txn, nil)
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil)
		txnRepo.On("AttachToBatch", ctx, txn.Reference, b.Code).Return(nil)
		bizRepo.On("GetPaymentLink", ctx, link.ID).Return(link, nil)
		txnRepo.On("PendingSettleTotal", ctx, biz.ID, b.Code).Return(int64(14850), nil)

		funded, err := engine.ReportTransaction(ctx, b, txn.Reference, today)
		require.NoError(t, err)
		require.True(t, funded)

		funded, err = engine.ReportTransaction(ctx, b, txn.Reference, today)

		require.NoError(t, err)
		assert.True(t, funded, "Redelivery still signals funding; the ledger dedupes the credit")
		assert.Equal(t, int64(14850), b.TotalAmount, "Re-reporting must not double count the tree")
	})

	t.Run("LostBatchSaveRebuildsTreeAndStillFunds", func(t *testing.T) {
		biz, txn, link := newFixture(t)
		txnRepo := new(MockTransactionRepository)
		bizRepo := new(MockBusinessRepository)
		engine := NewGroupingEngine(txnRepo, bizRepo, newTestLogger())

		// The transaction already carries the batch code but the batch
		// document lost the attach. The funding signal must survive so a
		// crash before the bucket credit cannot strand the merchant.
		b := batch.New(today)
		txn.BatchCode = b.Code

		txnRepo.On("GetByReference", ctx, txn.Reference).Return(txn, nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()
		txnRepo.On("AttachToBatch", ctx, txn.Reference, b.Code).Return(nil).Once()
		bizRepo.On("GetPaymentLink", ctx, link.ID).Return(link, nil).Once()
		txnRepo.On("PendingSettleTotal", ctx, biz.ID, b.Code).Return(int64(14850), nil).Once()

		funded, err := engine.ReportTransaction(ctx, b, txn.Reference, today)

		require.NoError(t, err)
		assert.True(t, funded, "Replayed attach rebuilds the tree and re-signals funding")
		assert.True(t, b.HasTransaction(txn.Reference))
	})

	t.Run("NonQualifyingTransactionSkipped", func(t *testing.T) {
		biz, txn, _ := newFixture(t)
		require.NoError(t, txn.MarkSettled())
		txnRepo := new(MockTransactionRepository)
		bizRepo := new(MockBusinessRepository)
		engine := NewGroupingEngine(txnRepo, bizRepo, newTestLogger())

		b := batch.New(today)
		txnRepo.On("GetByReference", ctx, txn.Reference).Return(txn, nil).Once()

		funded, err := engine.ReportTransaction(ctx, b, txn.Reference, today)

		require.NoError(t, err)
		assert.False(t, funded)
		assert.False(t, b.HasTransaction(txn.Reference))
		bizRepo.AssertNotCalled(t, "GetByID", mock.Anything, biz.ID)
	})

	t.Run("UnknownBusinessSkippedWithoutError", func(t *testing.T) {
		biz, txn, _ := newFixture(t)
		txnRepo := new(MockTransactionRepository)
		bizRepo := new(MockBusinessRepository)
		engine := NewGroupingEngine(txnRepo, bizRepo, newTestLogger())

		b := batch.New(today)
		txnRepo.On("GetByReference", ctx, txn.Reference).Return(txn, nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(nil, business.ErrBusinessNotFound{BusinessID: biz.ID}).Once()

		funded, err := engine.ReportTransaction(ctx, b, txn.Reference, today)

		require.NoError(t, err)
		assert.False(t, funded)
	})

	t.Run("LateCollectionReopensCompletedBatch", func(t *testing.T) {
		biz, txn, link := newFixture(t)
		txnRepo := new(MockTransactionRepository)
		bizRepo := new(MockBusinessRepository)
		engine := NewGroupingEngine(txnRepo, bizRepo, newTestLogger())

		b := batch.New(today)
		b.MarkBusinessSettled(uuid.New(), 100)
		b.FinishRun()
		require.Equal(t, shared.BatchStatusCompleted, b.Status)

		txnRepo.On("GetByReference", ctx, txn.Reference).Return(txn, nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()
		txnRepo.On("AttachToBatch", ctx, txn.Reference, b.Code).Return(nil).Once()
		bizRepo.On("GetPaymentLink", ctx, link.ID).Return(link, nil).Once()
		txnRepo.On("PendingSettleTotal", ctx, mock.Anything, b.Code).Return(int64(14850), nil)

		funded, err := engine.ReportTransaction(ctx, b, txn.Reference, today)

		require.NoError(t, err)
		assert.True(t, funded)
		assert.Equal(t, shared.BatchStatusProcessing, b.Status)
		assert.False(t, b.IsSettled)
	})

	t.Run("MissingLinkConfigKeepsPriorSnapshot", func(t *testing.T) {
		biz, txn, _ := newFixture(t)
		txnRepo := new(MockTransactionRepository)
		bizRepo := new(MockBusinessRepository)
		engine := NewGroupingEngine(txnRepo, bizRepo, newTestLogger())

		b := batch.New(today)
		prior := b.EnsureGroup(biz.ID).EnsureLink(txn.PaymentLinkID)
		prior.ReplaceSubaccounts([]batch.SubaccountSnapshot{
			{SubaccountID: "sub_old", SplitType: shared.SplitTypeFlat, SplitValue: "100"},
		})

		txnRepo.On("GetByReference", ctx, txn.Reference).Return(txn, nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()
		txnRepo.On("AttachToBatch", ctx, txn.Reference, b.Code).Return(nil).Once()
		bizRepo.On("GetPaymentLink", ctx, txn.PaymentLinkID).
			Return(nil, business.ErrPaymentLinkNotFound{LinkID: txn.PaymentLinkID}).Once()
		txnRepo.On("PendingSettleTotal", ctx, biz.ID, b.Code).Return(int64(14850), nil).Once()

		_, err := engine.ReportTransaction(ctx, b, txn.Reference, today)

		require.NoError(t, err)
		assert.Contains(t, prior.Subaccounts, "sub_old")
	})
}
