package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) Create(ctx context.Context, b *batch.Batch) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBatchRepository) GetByCode(ctx context.Context, code string) (*batch.Batch, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindOrCreateForDate(ctx context.Context, date time.Time) (*batch.Batch, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Batch), args.Error(1)
}

func (m *MockBatchRepository) Save(ctx context.Context, b *batch.Batch) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBatchRepository) List(ctx context.Context, limit, offset int) ([]*batch.Batch, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*batch.Batch), args.Error(1)
}

type MockGroupingEngine struct {
	mock.Mock
}

func (m *MockGroupingEngine) ReportTransaction(ctx context.Context, b *batch.Batch, reference string, today time.Time) (bool, error) {
	args := m.Called(ctx, b, reference, today)
	return args.Bool(0), args.Error(1)
}

func (m *MockGroupingEngine) RefreshOverview(ctx context.Context, b *batch.Batch, today time.Time) error {
	args := m.Called(ctx, b, today)
	return args.Error(0)
}

type MockLumpCalculator struct {
	mock.Mock
}

func (m *MockLumpCalculator) ComputeGroups(ctx context.Context, b *batch.Batch, request *shared.RunRequest, today time.Time) ([]*LumpSum, error) {
	args := m.Called(ctx, b, request, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*LumpSum), args.Error(1)
}

type MockPayoutDispatcher struct {
	mock.Mock
}

func (m *MockPayoutDispatcher) Dispatch(ctx context.Context, b *batch.Batch, lump *LumpSum) error {
	args := m.Called(ctx, b, lump)
	return args.Error(0)
}

type MockWalletLedger struct {
	mock.Mock
}

func (m *MockWalletLedger) DebitSettlement(ctx context.Context, businessID uuid.UUID, amount int64) (int64, error) {
	args := m.Called(ctx, businessID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletLedger) SettleToWallet(ctx context.Context, businessID uuid.UUID, amount int64) (*wallet.Wallet, error) {
	args := m.Called(ctx, businessID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletLedger) ReverseToSettlement(ctx context.Context, original *transaction.Transaction, amount int64) (*transaction.Transaction, error) {
	args := m.Called(ctx, original, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockWalletLedger) FundSettlement(ctx context.Context, txn *transaction.Transaction) (bool, error) {
	args := m.Called(ctx, txn)
	return args.Bool(0), args.Error(1)
}

func (m *MockWalletLedger) CreditLocked(ctx context.Context, businessID uuid.UUID, amount int64) (*wallet.Wallet, error) {
	args := m.Called(ctx, businessID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByReference(ctx context.Context, reference string) (*transaction.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Update(ctx context.Context, txn *transaction.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) AttachToBatch(ctx context.Context, reference, batchCode string) error {
	args := m.Called(ctx, reference, batchCode)
	return args.Error(0)
}

func (m *MockTransactionRepository) MarkSettled(ctx context.Context, businessID uuid.UUID, batchCode, linkID string) (int64, error) {
	args := m.Called(ctx, businessID, batchCode, linkID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) PendingSettleTotal(ctx context.Context, businessID uuid.UUID, batchCode string) (int64, error) {
	args := m.Called(ctx, businessID, batchCode)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) ListByBatch(ctx context.Context, batchCode string, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, batchCode, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, businessID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, reference string, status shared.TransactionStatus, reason string) error {
	args := m.Called(ctx, reference, status, reason)
	return args.Error(0)
}
