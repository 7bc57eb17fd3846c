package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
	"github.com/lystun/payflo-sub003/internal/provider"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) Create(ctx context.Context, b *business.Business) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBusinessRepository) GetByID(ctx context.Context, id uuid.UUID) (*business.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*business.Business), args.Error(1)
}

func (m *MockBusinessRepository) Update(ctx context.Context, b *business.Business) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBusinessRepository) CreatePaymentLink(ctx context.Context, link *business.PaymentLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockBusinessRepository) GetPaymentLink(ctx context.Context, id string) (*business.PaymentLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*business.PaymentLink), args.Error(1)
}

func (m *MockBusinessRepository) WithTx(tx pgx.Tx) business.Repository {
	args := m.Called(tx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(business.Repository)
}

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockWalletRepository) GetByBusinessID(ctx context.Context, businessID uuid.UUID) (*wallet.Wallet, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Update(ctx context.Context, w *wallet.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockWalletRepository) LockForUpdate(ctx context.Context, businessID uuid.UUID) (*wallet.Wallet, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) WithTx(tx pgx.Tx) wallet.Repository {
	args := m.Called(tx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(wallet.Repository)
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

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockPayoutProvider struct {
	mock.Mock
}

func (m *MockPayoutProvider) Name() string {
	return "mock"
}

func (m *MockPayoutProvider) Payout(ctx context.Context, req provider.PayoutRequest) (*provider.PayoutResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.PayoutResult), args.Error(1)
}

func (m *MockPayoutProvider) Resolve(ctx context.Context, accountNo, bankCode string) (*provider.ResolvedAccount, error) {
	args := m.Called(ctx, accountNo, bankCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ResolvedAccount), args.Error(1)
}

type MockWalletLedger struct {
	mock.Mock
}

func (m *MockWalletLedger) DebitThenCall(ctx context.Context, txn *transaction.Transaction, call func(context.Context) error) (*wallet.Wallet, error) {
	args := m.Called(ctx, txn, call)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}
