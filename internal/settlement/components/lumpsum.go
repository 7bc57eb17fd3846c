package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/settlement/service"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// LumpCalculatorImpl walks the batch tree and produces one payable lump per
// eligible business: the pending settle total per link, the subaccount
// shares carved out of it, and the residual owed to the business.
type LumpCalculatorImpl struct {
	businesses  business.Repository
	chargebacks service.ChargebackAggregator
	logger      *slog.Logger
}

func NewLumpCalculator(
	businesses business.Repository,
	chargebacks service.ChargebackAggregator,
	logger *slog.Logger,
) *LumpCalculatorImpl {
	return &LumpCalculatorImpl{
		businesses:  businesses,
		chargebacks: chargebacks,
		logger:      logger,
	}
}

func (c *LumpCalculatorImpl) ComputeGroups(ctx context.Context, b *batch.Batch, request *shared.RunRequest, today time.Time) ([]*service.LumpSum, error) {
	day := today.UTC().Truncate(24 * time.Hour)

	var lumps []*service.LumpSum
	for businessKey, group := range b.Groups {
		businessID, err := uuid.Parse(businessKey)
		if err != nil {
			c.logger.Error("malformed business key in batch groups", "key", businessKey)
			continue
		}

		if request.Mode == shared.RunModeSingle && businessID != request.BusinessID {
			continue
		}
		if b.IsBusinessSettled(businessID) {
			continue
		}

		payoutDate, scheduled := b.PayoutDate(businessID)
		if !scheduled {
			c.logger.Warn("business has no payout schedule in batch, skipping",
				"batch_code", b.Code,
				"business_id", businessKey,
			)
			continue
		}
		if !eligible(request, payoutDate, day) {
			continue
		}

		lump := c.buildLump(group)
		if lump.Total <= 0 {
			continue
		}

		exposure, err := c.chargebacks.PendingTotal(ctx, businessID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum chargeback exposure for business %s: %w", businessKey, err)
		}
		if exposure > 0 {
			// Pending chargebacks come out of the business's own cut, never
			// the subaccount shares. Exposure at or above the residual leaves
			// nothing payable, so the business sits out this run.
			if exposure >= lump.Residual {
				c.logger.Warn("chargeback exposure covers payable residual, excluding business from run",
					"batch_code", b.Code,
					"business_id", businessKey,
					"exposure", exposure,
					"payable", lump.Residual,
				)
				continue
			}
			lump.Residual -= exposure
			lump.ChargebackApplied = exposure
		}

		biz, err := c.businesses.GetByID(ctx, businessID)
		if err != nil {
			var notFound business.ErrBusinessNotFound
			if errors.As(err, &notFound) {
				c.logger.Error("batch group references unknown business, skipping",
					"batch_code", b.Code,
					"business_id", businessKey,
				)
				continue
			}
			return nil, err
		}
		lump.Business = biz

		lumps = append(lumps, lump)
	}

	// Deterministic dispatch order across runs
	sort.Slice(lumps, func(i, j int) bool {
		return lumps[i].Business.ID.String() < lumps[j].Business.ID.String()
	})
	return lumps, nil
}

// eligible applies the run gating matrix: force bypasses the schedule,
// bulk runs pay what is due today plus, with include-past, what is overdue.
// Single-business runs only ever pay what is due today unless forced, and
// future schedules never pay.
func eligible(request *shared.RunRequest, payoutDate, day time.Time) bool {
	if request.Force {
		return true
	}
	if payoutDate.After(day) {
		return false
	}
	if payoutDate.Before(day) {
		return request.Mode == shared.RunModeBulk && request.IncludePast
	}
	return true
}

// buildLump sums each link's pending items and carves the subaccount shares
// out of the link's amount.
func (c *LumpCalculatorImpl) buildLump(group *batch.BusinessGroup) *service.LumpSum {
	lump := &service.LumpSum{}

	linkIDs := make([]string, 0, len(group.Links))
	for id := range group.Links {
		linkIDs = append(linkIDs, id)
	}
	sort.Strings(linkIDs)

	for _, linkID := range linkIDs {
		link := group.Links[linkID]

		var amount int64
		for _, item := range link.Items {
			if item.SettlementStatus != shared.SettlementStatusPending {
				continue
			}
			amount += item.SettleAmount
		}
		if amount <= 0 {
			continue
		}

		linkLump := service.LinkLump{
			PaymentLinkID: linkID,
			Amount:        amount,
		}
		linkLump.Shares, linkLump.Shared = c.computeShares(link, amount)

		lump.Links = append(lump.Links, linkLump)
		lump.Total += amount
		lump.Residual += amount - linkLump.Shared
	}
	return lump
}

// computeShares resolves the link's split configuration against its pending
// amount. Percentage shares floor to whole minor units; flat shares cap at
// whatever remains so the shares can never exceed the link's amount.
func (c *LumpCalculatorImpl) computeShares(link *batch.LinkGroup, amount int64) ([]service.SubaccountShare, int64) {
	subIDs := make([]string, 0, len(link.Subaccounts))
	for id := range link.Subaccounts {
		subIDs = append(subIDs, id)
	}
	sort.Strings(subIDs)

	var shares []service.SubaccountShare
	var sharedTotal int64
	remaining := amount
	for _, id := range subIDs {
		snapshot := link.Subaccounts[id]

		splitValue, err := decimal.NewFromString(snapshot.SplitValue)
		if err != nil {
			c.logger.Error("malformed split value in subaccount snapshot, skipping share",
				"subaccount_id", snapshot.SubaccountID,
				"split_value", snapshot.SplitValue,
			)
			continue
		}

		var cut int64
		switch snapshot.SplitType {
		case shared.SplitTypePercentage:
			cut = decimal.NewFromInt(amount).Mul(splitValue).Div(oneHundred).Floor().IntPart()
		case shared.SplitTypeFlat:
			cut = splitValue.IntPart()
		}
		if cut > remaining {
			cut = remaining
		}
		if cut <= 0 {
			continue
		}

		shares = append(shares, service.SubaccountShare{Snapshot: snapshot, Amount: cut})
		sharedTotal += cut
		remaining -= cut
	}
	return shares, sharedTotal
}
