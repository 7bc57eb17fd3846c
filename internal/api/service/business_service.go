package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
)

// BusinessServiceImpl implements the BusinessService interface
type BusinessServiceImpl struct {
	businessRepo business.Repository
	walletRepo   wallet.Repository
	txnRepo      transaction.Repository
	currency     string
}

// NewBusinessService creates a new business service
func NewBusinessService(businessRepo business.Repository, walletRepo wallet.Repository, txnRepo transaction.Repository, currency string) BusinessService {
	return &BusinessServiceImpl{
		businessRepo: businessRepo,
		walletRepo:   walletRepo,
		txnRepo:      txnRepo,
		currency:     currency,
	}
}

// CreateBusiness creates a business together with its empty wallet. The
// wallet is created second; a crash between the two writes leaves a
// business without a wallet, which the first wallet read surfaces loudly.
func (s *BusinessServiceImpl) CreateBusiness(ctx context.Context, params CreateBusinessParams) (*business.Business, error) {
	b, err := business.NewBusiness(params.Name, params.Email, params.SettlementDelayDays)
	if err != nil {
		return nil, err
	}

	if params.PayoutDestination != "" {
		b.PayoutDestination = params.PayoutDestination
	}
	b.BankCode = params.BankCode
	b.AccountNo = params.AccountNo
	b.AccountName = params.AccountName
	b.FeePercent = params.FeePercent
	b.FeeFixed = params.FeeFixed
	b.FeeCap = params.FeeCap
	b.VATPercent = params.VATPercent

	if err := s.businessRepo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create business: %w", err)
	}

	w, err := wallet.NewWallet(b.ID, s.currency)
	if err != nil {
		return nil, err
	}
	if err := s.walletRepo.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create wallet for business %s: %w", b.ID, err)
	}

	return b, nil
}

// GetBusiness retrieves a business by its ID
func (s *BusinessServiceImpl) GetBusiness(ctx context.Context, id uuid.UUID) (*business.Business, error) {
	return s.businessRepo.GetByID(ctx, id)
}

// CreatePaymentLink validates the subaccount splits and persists the link
func (s *BusinessServiceImpl) CreatePaymentLink(ctx context.Context, link *business.PaymentLink) error {
	if _, err := s.businessRepo.GetByID(ctx, link.BusinessID); err != nil {
		return err
	}
	for i := range link.Subaccounts {
		if err := link.Subaccounts[i].Validate(); err != nil {
			return err
		}
	}
	return s.businessRepo.CreatePaymentLink(ctx, link)
}

// GetBusinessTransactions retrieves a page of a business's ledger history
func (s *BusinessServiceImpl) GetBusinessTransactions(ctx context.Context, businessID uuid.UUID, page, perPage int) ([]*transaction.Transaction, error) {
	offset := (page - 1) * perPage
	return s.txnRepo.ListByBusiness(ctx, businessID, perPage, offset)
}
