package components

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
)

// seedGroup plants one business with one link and a single pending item in
// the batch tree, scheduled for the given payout date.
func seedGroup(b *batch.Batch, biz *business.Business, linkID string, settle int64, payoutDate time.Time, snapshots ...batch.SubaccountSnapshot) {
	link := b.EnsureGroup(biz.ID).EnsureLink(linkID)
	link.ReplaceSubaccounts(snapshots)
	ref := uuid.New().String()
	link.Items[ref] = batch.LineItem{
		Reference:        ref,
		SettleAmount:     settle,
		SettlementStatus: shared.SettlementStatusPending,
	}
	b.SchedulePayout(biz.ID, payoutDate)
}

func TestLumpCalculator_ComputeGroups(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC)

	newBiz := func(t *testing.T, name string) *business.Business {
		t.Helper()
		biz, err := business.NewBusiness(name, "", 0)
		require.NoError(t, err)
		return biz
	}

	t.Run("DueTodayPays", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		biz := newBiz(t, "Acme")
		b := batch.New(today)
		seedGroup(b, biz, "lnk_1", 14850, today)

		chargebacks.On("PendingTotal", ctx, biz.ID).Return(int64(0), nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk}, today)

		require.NoError(t, err)
		require.Len(t, lumps, 1)
		assert.Equal(t, int64(14850), lumps[0].Total)
		assert.Equal(t, int64(14850), lumps[0].Residual)
		assert.Same(t, biz, lumps[0].Business)
	})

	t.Run("FuturePayoutWaits", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		biz := newBiz(t, "Acme")
		b := batch.New(today)
		seedGroup(b, biz, "lnk_1", 14850, today.AddDate(0, 0, 2))

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk}, today)
		require.NoError(t, err)
		assert.Empty(t, lumps)

		chargebacks.On("PendingTotal", ctx, biz.ID).Return(int64(0), nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()

		lumps, err = calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk, Force: true}, today)
		require.NoError(t, err)
		assert.Len(t, lumps, 1, "Force bypasses the schedule entirely")
	})

	t.Run("PastDueNeedsIncludePast", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		biz := newBiz(t, "Acme")
		b := batch.New(today)
		seedGroup(b, biz, "lnk_1", 14850, today.AddDate(0, 0, -1))

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk}, today)
		require.NoError(t, err)
		assert.Empty(t, lumps)

		chargebacks.On("PendingTotal", ctx, biz.ID).Return(int64(0), nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()

		lumps, err = calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk, IncludePast: true}, today)
		require.NoError(t, err)
		assert.Len(t, lumps, 1)
	})

	t.Run("SingleModeFiltersOtherBusinesses", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		target := newBiz(t, "Target")
		other := newBiz(t, "Other")
		b := batch.New(today)
		seedGroup(b, target, "lnk_1", 1000, today)
		seedGroup(b, other, "lnk_2", 2000, today)

		chargebacks.On("PendingTotal", ctx, target.ID).Return(int64(0), nil).Once()
		bizRepo.On("GetByID", ctx, target.ID).Return(target, nil).Once()

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeSingle, BusinessID: target.ID}, today)

		require.NoError(t, err)
		require.Len(t, lumps, 1)
		assert.Equal(t, target.ID, lumps[0].Business.ID)
	})

	t.Run("SingleModePastDueNeedsForce", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		biz := newBiz(t, "Acme")
		b := batch.New(today)
		seedGroup(b, biz, "lnk_1", 14850, today.AddDate(0, 0, -1))

		lumps, err := calc.ComputeGroups(ctx, b,
			&shared.RunRequest{Mode: shared.RunModeSingle, BusinessID: biz.ID, IncludePast: true}, today)
		require.NoError(t, err)
		assert.Empty(t, lumps, "Include-past only applies to bulk runs")

		chargebacks.On("PendingTotal", ctx, biz.ID).Return(int64(0), nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()

		lumps, err = calc.ComputeGroups(ctx, b,
			&shared.RunRequest{Mode: shared.RunModeSingle, BusinessID: biz.ID, Force: true}, today)
		require.NoError(t, err)
		assert.Len(t, lumps, 1)
	})

	t.Run("ChargebackDeductedFromResidual", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		biz := newBiz(t, "Acme")
		b := batch.New(today)
		seedGroup(b, biz, "lnk_1", 14850, today)

		chargebacks.On("PendingTotal", ctx, biz.ID).Return(int64(5000), nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk}, today)

		require.NoError(t, err)
		require.Len(t, lumps, 1)
		assert.Equal(t, int64(14850), lumps[0].Total)
		assert.Equal(t, int64(9850), lumps[0].Residual, "Pending exposure comes out of the business's cut")
		assert.Equal(t, int64(5000), lumps[0].ChargebackApplied)
	})

	t.Run("ChargebackExposureExcludesBusiness", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		biz := newBiz(t, "Acme")
		b := batch.New(today)
		seedGroup(b, biz, "lnk_1", 14850, today)

		chargebacks.On("PendingTotal", ctx, biz.ID).Return(int64(20000), nil).Once()

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk}, today)

		require.NoError(t, err)
		assert.Empty(t, lumps)
		bizRepo.AssertNotCalled(t, "GetByID")
	})

	t.Run("ExposureEqualToPayableExcludes", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		biz := newBiz(t, "Acme")
		b := batch.New(today)
		seedGroup(b, biz, "lnk_1", 14850, today)

		chargebacks.On("PendingTotal", ctx, biz.ID).Return(int64(14850), nil).Once()

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk}, today)

		require.NoError(t, err)
		assert.Empty(t, lumps, "Exposure covering the full residual leaves nothing payable")
	})

	t.Run("ChargebackComparesAgainstResidualNotTotal", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		// Shares take 800 of the 1000 lump; exposure of 300 exceeds the
		// 200 residual even though it is well under the total.
		biz := newBiz(t, "Acme")
		b := batch.New(today)
		seedGroup(b, biz, "lnk_1", 1000, today, batch.SubaccountSnapshot{
			SubaccountID: "sub_1",
			SplitType:    shared.SplitTypeFlat,
			SplitValue:   "800",
		})

		chargebacks.On("PendingTotal", ctx, biz.ID).Return(int64(300), nil).Once()

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk}, today)

		require.NoError(t, err)
		assert.Empty(t, lumps)
	})

	t.Run("SettledBusinessSkipped", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		biz := newBiz(t, "Acme")
		b := batch.New(today)
		seedGroup(b, biz, "lnk_1", 14850, today)
		b.MarkBusinessSettled(biz.ID, 14850)

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk}, today)

		require.NoError(t, err)
		assert.Empty(t, lumps)
	})

	t.Run("PercentageShareCarvedFromResidual", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		biz := newBiz(t, "Acme")
		b := batch.New(today)
		seedGroup(b, biz, "lnk_1", 1000, today, batch.SubaccountSnapshot{
			SubaccountID: "sub_1",
			SplitType:    shared.SplitTypePercentage,
			SplitValue:   "30",
		})

		chargebacks.On("PendingTotal", ctx, biz.ID).Return(int64(0), nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk}, today)

		require.NoError(t, err)
		require.Len(t, lumps, 1)
		require.Len(t, lumps[0].Links, 1)
		link := lumps[0].Links[0]
		require.Len(t, link.Shares, 1)
		assert.Equal(t, int64(300), link.Shares[0].Amount)
		assert.Equal(t, int64(300), link.Shared)
		assert.Equal(t, int64(700), lumps[0].Residual)
	})

	t.Run("FlatShareCapsAtRemaining", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		biz := newBiz(t, "Acme")
		b := batch.New(today)
		seedGroup(b, biz, "lnk_1", 1000, today,
			batch.SubaccountSnapshot{SubaccountID: "sub_a", SplitType: shared.SplitTypeFlat, SplitValue: "800"},
			batch.SubaccountSnapshot{SubaccountID: "sub_b", SplitType: shared.SplitTypeFlat, SplitValue: "500"},
		)

		chargebacks.On("PendingTotal", ctx, biz.ID).Return(int64(0), nil).Once()
		bizRepo.On("GetByID", ctx, biz.ID).Return(biz, nil).Once()

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk}, today)

		require.NoError(t, err)
		require.Len(t, lumps, 1)
		link := lumps[0].Links[0]
		require.Len(t, link.Shares, 2)
		assert.Equal(t, int64(800), link.Shares[0].Amount)
		assert.Equal(t, int64(200), link.Shares[1].Amount, "Second flat share caps at what remains")
		assert.Zero(t, lumps[0].Residual)
	})

	t.Run("DeterministicOrderByBusinessID", func(t *testing.T) {
		bizRepo := new(MockBusinessRepository)
		chargebacks := new(MockChargebackAggregator)
		calc := NewLumpCalculator(bizRepo, chargebacks, newTestLogger())

		bizA := newBiz(t, "A")
		bizB := newBiz(t, "B")
		b := batch.New(today)
		seedGroup(b, bizA, "lnk_a", 100, today)
		seedGroup(b, bizB, "lnk_b", 200, today)

		chargebacks.On("PendingTotal", ctx, bizA.ID).Return(int64(0), nil)
		chargebacks.On("PendingTotal", ctx, bizB.ID).Return(int64(0), nil)
		bizRepo.On("GetByID", ctx, bizA.ID).Return(bizA, nil)
		bizRepo.On("GetByID", ctx, bizB.ID).Return(bizB, nil)

		lumps, err := calc.ComputeGroups(ctx, b, &shared.RunRequest{Mode: shared.RunModeBulk}, today)

		require.NoError(t, err)
		require.Len(t, lumps, 2)
		assert.True(t, lumps[0].Business.ID.String() < lumps[1].Business.ID.String())
	})
}
