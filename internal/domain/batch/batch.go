package batch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
)

// CodeFor derives the batch code for a settlement cycle date
func CodeFor(date time.Time) string {
	return fmt.Sprintf("STL-%s", date.UTC().Format("20060102"))
}

// LineItem is one collection transaction inside the group tree
type LineItem struct {
	Reference        string                  `json:"reference" bson:"reference"`
	Amount           int64                   `json:"amount" bson:"amount"`
	Fee              int64                   `json:"fee" bson:"fee"`
	VATFee           int64                   `json:"vat_fee" bson:"vat_fee"`
	Revenue          int64                   `json:"revenue" bson:"revenue"`
	SettleAmount     int64                   `json:"settle_amount" bson:"settle_amount"`
	SettlementStatus shared.SettlementStatus `json:"settlement_status" bson:"settlement_status"`
}

// SubaccountSnapshot is a copy of a subaccount's split configuration taken
// at report time. Snapshots are replaced wholesale on each report so late
// configuration changes take effect on the next reported transaction.
// SplitValue is kept as a decimal string for document round-tripping.
type SubaccountSnapshot struct {
	SubaccountID string           `json:"subaccount_id" bson:"subaccount_id"`
	Code         string           `json:"code" bson:"code"`
	BankCode     string           `json:"bank_code" bson:"bank_code"`
	AccountNo    string           `json:"account_no" bson:"account_no"`
	AccountName  string           `json:"account_name" bson:"account_name"`
	SplitType    shared.SplitType `json:"split_type" bson:"split_type"`
	SplitValue   string           `json:"split_value" bson:"split_value"`
}

// LinkGroup holds one payment link's subaccount snapshots and line items.
// Both are keyed maps rather than positional slices.
type LinkGroup struct {
	PaymentLinkID string                        `json:"payment_link_id" bson:"payment_link_id"`
	Subaccounts   map[string]SubaccountSnapshot `json:"subaccounts" bson:"subaccounts"`
	Items         map[string]LineItem           `json:"items" bson:"items"`
}

// BusinessGroup holds all payment-link groups for one business
type BusinessGroup struct {
	BusinessID uuid.UUID             `json:"business_id" bson:"business_id"`
	Links      map[string]*LinkGroup `json:"links" bson:"links"`
}

// Overview aggregates the batch's pending position
type Overview struct {
	Amount     int64 `json:"amount" bson:"amount"`
	Businesses int   `json:"businesses" bson:"businesses"`
	DueToday   int64 `json:"due_today" bson:"due_today"`
	PastDue    int64 `json:"past_due" bson:"past_due"`
	Fees       int64 `json:"fees" bson:"fees"`
	VAT        int64 `json:"vat" bson:"vat"`
	Revenue    int64 `json:"revenue" bson:"revenue"`
}

// Analytics tracks what a batch's runs have settled so far. The settled
// sets are keyed by ID with the settle timestamp as value; membership is
// the idempotency guard against double payment.
type Analytics struct {
	SettledAmount      int64                `json:"settled_amount" bson:"settled_amount"`
	SharedAmount       int64                `json:"shared_amount" bson:"shared_amount"`
	SettledBusinesses  map[string]time.Time `json:"settled_businesses" bson:"settled_businesses"`
	SettledSubaccounts map[string]time.Time `json:"settled_subaccounts" bson:"settled_subaccounts"`
}

// RunSnapshot is an audit copy of analytics taken after each run
type RunSnapshot struct {
	At                time.Time          `json:"at" bson:"at"`
	Analytics         Analytics          `json:"analytics" bson:"analytics"`
	Status            shared.BatchStatus `json:"status" bson:"status"`
	BusinessesPending int                `json:"businesses_pending" bson:"businesses_pending"`
}

// Batch is the aggregate root for one settlement cycle
type Batch struct {
	Code            string                    `json:"code" bson:"code"`
	Status          shared.BatchStatus        `json:"status" bson:"status"`
	IsRunning       bool                      `json:"is_running" bson:"is_running"`
	IsSettled       bool                      `json:"is_settled" bson:"is_settled"`
	TotalAmount     int64                     `json:"total_amount" bson:"total_amount"`
	Businesses      map[string]time.Time      `json:"businesses" bson:"businesses"`
	TransactionRefs map[string]bool           `json:"transaction_refs" bson:"transaction_refs"`
	Overview        Overview                  `json:"overview" bson:"overview"`
	Groups          map[string]*BusinessGroup `json:"groups" bson:"groups"`
	Analytics       Analytics                 `json:"analytics" bson:"analytics"`
	PayoutSchedule  map[string]time.Time      `json:"payout_schedule" bson:"payout_schedule"`
	RunHistory      []RunSnapshot             `json:"run_history" bson:"run_history"`
	SettledAt       *time.Time                `json:"settled_at,omitempty" bson:"settled_at,omitempty"`
	CreatedAt       time.Time                 `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at" bson:"updated_at"`
}

// New creates an empty batch for the given cycle date
func New(date time.Time) *Batch {
	now := time.Now()
	return &Batch{
		Code:            CodeFor(date),
		Status:          shared.BatchStatusPending,
		Businesses:      make(map[string]time.Time),
		TransactionRefs: make(map[string]bool),
		Groups:          make(map[string]*BusinessGroup),
		Analytics: Analytics{
			SettledBusinesses:  make(map[string]time.Time),
			SettledSubaccounts: make(map[string]time.Time),
		},
		PayoutSchedule: make(map[string]time.Time),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// HasTransaction reports whether a transaction is already attached
func (b *Batch) HasTransaction(reference string) bool {
	return b.TransactionRefs[reference]
}

// AttachTransaction registers a transaction's membership and adds its net
// settle amount to the running total. No-op if already attached.
func (b *Batch) AttachTransaction(txn *transaction.Transaction) bool {
	if b.HasTransaction(txn.Reference) {
		return false
	}
	b.TransactionRefs[txn.Reference] = true
	b.TotalAmount += txn.SettleAmount
	businessKey := txn.BusinessID.String()
	if _, ok := b.Businesses[businessKey]; !ok {
		b.Businesses[businessKey] = time.Now()
	}
	b.UpdatedAt = time.Now()
	return true
}

// EnsureGroup finds or creates the group node for a business
func (b *Batch) EnsureGroup(businessID uuid.UUID) *BusinessGroup {
	key := businessID.String()
	group, ok := b.Groups[key]
	if !ok {
		group = &BusinessGroup{
			BusinessID: businessID,
			Links:      make(map[string]*LinkGroup),
		}
		b.Groups[key] = group
	}
	return group
}

// EnsureLink finds or creates the payment-link node inside a business group
func (g *BusinessGroup) EnsureLink(linkID string) *LinkGroup {
	link, ok := g.Links[linkID]
	if !ok {
		link = &LinkGroup{
			PaymentLinkID: linkID,
			Subaccounts:   make(map[string]SubaccountSnapshot),
			Items:         make(map[string]LineItem),
		}
		g.Links[linkID] = link
	}
	return link
}

// ReplaceSubaccounts swaps in fresh subaccount snapshots, dropping any
// entry not present in the new set.
func (l *LinkGroup) ReplaceSubaccounts(snapshots []SubaccountSnapshot) {
	l.Subaccounts = make(map[string]SubaccountSnapshot, len(snapshots))
	for _, s := range snapshots {
		l.Subaccounts[s.SubaccountID] = s
	}
}

// PruneSettledItems drops line items whose settlement already completed,
// self-healing against stale entries left by earlier partial runs.
func (l *LinkGroup) PruneSettledItems() {
	for ref, item := range l.Items {
		if item.SettlementStatus != shared.SettlementStatusPending {
			delete(l.Items, ref)
		}
	}
}

// SchedulePayout records a business's payout date once. An existing
// schedule for the same calendar day is left untouched.
func (b *Batch) SchedulePayout(businessID uuid.UUID, date time.Time) {
	key := businessID.String()
	day := date.UTC().Truncate(24 * time.Hour)
	if existing, ok := b.PayoutSchedule[key]; ok && existing.Equal(day) {
		return
	}
	b.PayoutSchedule[key] = day
}

// PayoutDate returns the scheduled payout date for a business, if any
func (b *Batch) PayoutDate(businessID uuid.UUID) (time.Time, bool) {
	d, ok := b.PayoutSchedule[businessID.String()]
	return d, ok
}

// RecomputeOverview rebuilds the due/past-due buckets by scanning the
// payout schedule and the pending settle totals per business, excluding
// businesses already settled. The distinct-business count is independent of
// how many times grouping ran.
func (b *Batch) RecomputeOverview(today time.Time, pendingTotals map[string]int64) {
	day := today.UTC().Truncate(24 * time.Hour)

	var dueToday, pastDue int64
	for businessKey, payoutDate := range b.PayoutSchedule {
		if _, settled := b.Analytics.SettledBusinesses[businessKey]; settled {
			continue
		}
		total := pendingTotals[businessKey]
		switch {
		case payoutDate.Equal(day):
			dueToday += total
		case payoutDate.Before(day):
			pastDue += total
		}
	}

	var amount, fees, vat, revenue int64
	businesses := make(map[string]bool)
	for businessKey, group := range b.Groups {
		pending := false
		for _, link := range group.Links {
			for _, item := range link.Items {
				if item.SettlementStatus != shared.SettlementStatusPending {
					continue
				}
				pending = true
				amount += item.SettleAmount
				fees += item.Fee
				vat += item.VATFee
				revenue += item.Revenue
			}
		}
		if pending {
			businesses[businessKey] = true
		}
	}

	b.Overview = Overview{
		Amount:     amount,
		Businesses: len(businesses),
		DueToday:   dueToday,
		PastDue:    pastDue,
		Fees:       fees,
		VAT:        vat,
		Revenue:    revenue,
	}
	b.UpdatedAt = time.Now()
}

// IsBusinessSettled reports whether a business was paid in a prior run
func (b *Batch) IsBusinessSettled(businessID uuid.UUID) bool {
	_, ok := b.Analytics.SettledBusinesses[businessID.String()]
	return ok
}

// IsSubaccountSettled reports whether a subaccount share was already paid
func (b *Batch) IsSubaccountSettled(subaccountID string) bool {
	_, ok := b.Analytics.SettledSubaccounts[subaccountID]
	return ok
}

// MarkBusinessSettled records a successful business payout
func (b *Batch) MarkBusinessSettled(businessID uuid.UUID, amount int64) {
	key := businessID.String()
	if _, ok := b.Analytics.SettledBusinesses[key]; ok {
		return
	}
	b.Analytics.SettledBusinesses[key] = time.Now()
	b.Analytics.SettledAmount += amount
	b.UpdatedAt = time.Now()
}

// MarkSubaccountSettled records a successful subaccount share payout
func (b *Batch) MarkSubaccountSettled(subaccountID string, share int64) {
	if _, ok := b.Analytics.SettledSubaccounts[subaccountID]; ok {
		return
	}
	b.Analytics.SettledSubaccounts[subaccountID] = time.Now()
	b.Analytics.SharedAmount += share
	b.UpdatedAt = time.Now()
}

// PendingBusinesses counts member businesses that still carry pending line
// items and were not settled by a prior run.
func (b *Batch) PendingBusinesses() int {
	count := 0
	for businessKey, group := range b.Groups {
		if _, settled := b.Analytics.SettledBusinesses[businessKey]; settled {
			continue
		}
		if group.hasPendingItems() {
			count++
		}
	}
	return count
}

func (g *BusinessGroup) hasPendingItems() bool {
	for _, link := range g.Links {
		for _, item := range link.Items {
			if item.SettlementStatus == shared.SettlementStatusPending {
				return true
			}
		}
	}
	return false
}

// BeginRun moves the batch into processing
func (b *Batch) BeginRun() {
	b.Status = shared.BatchStatusProcessing
	b.IsRunning = true
	b.UpdatedAt = time.Now()
}

// FinishRun applies the completion rule and appends an audit snapshot.
// The batch completes iff at least one business was settled and no member
// business still carries pending line items. Completion is judged on the
// group tree, not the overview: a post-dispatch overview rebuild only counts
// businesses that are still pending, so it cannot stand in for the
// membership count. Anything short of that stays processing so the next run
// can retry the remainder.
func (b *Batch) FinishRun() {
	b.IsRunning = false
	pending := b.PendingBusinesses()
	if pending == 0 && len(b.Analytics.SettledBusinesses) > 0 {
		b.Status = shared.BatchStatusCompleted
		b.IsSettled = true
		now := time.Now()
		b.SettledAt = &now
	} else if b.Status != shared.BatchStatusCompleted {
		b.Status = shared.BatchStatusProcessing
	}

	snapshot := RunSnapshot{
		At:                time.Now(),
		Analytics:         b.copyAnalytics(),
		Status:            b.Status,
		BusinessesPending: pending,
	}
	b.RunHistory = append(b.RunHistory, snapshot)
	b.UpdatedAt = time.Now()
}

// Reopen reverts a completed batch to processing when a new transaction
// arrives after completion.
func (b *Batch) Reopen() {
	if b.Status != shared.BatchStatusCompleted {
		return
	}
	b.Status = shared.BatchStatusProcessing
	b.IsSettled = false
	b.SettledAt = nil
	b.UpdatedAt = time.Now()
}

func (b *Batch) copyAnalytics() Analytics {
	out := Analytics{
		SettledAmount:      b.Analytics.SettledAmount,
		SharedAmount:       b.Analytics.SharedAmount,
		SettledBusinesses:  make(map[string]time.Time, len(b.Analytics.SettledBusinesses)),
		SettledSubaccounts: make(map[string]time.Time, len(b.Analytics.SettledSubaccounts)),
	}
	for k, v := range b.Analytics.SettledBusinesses {
		out.SettledBusinesses[k] = v
	}
	for k, v := range b.Analytics.SettledSubaccounts {
		out.SettledSubaccounts[k] = v
	}
	return out
}
