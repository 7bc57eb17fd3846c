package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/api/middleware"
	"github.com/lystun/payflo-sub003/internal/api/service"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/wallet"
	"github.com/lystun/payflo-sub003/internal/fees"
)

// WalletHandler handles HTTP requests for wallet reads and withdrawals
type WalletHandler struct {
	walletService service.WalletService
	logger        *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, walletService service.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		logger:        logger,
	}
}

// GetByBusinessID retrieves a business's wallet with all bucket balances
func (h *WalletHandler) GetByBusinessID(c *gin.Context) {
	businessID, ok := h.parseBusinessID(c)
	if !ok {
		return
	}

	w, err := h.walletService.GetWallet(c.Request.Context(), businessID)
	if err != nil {
		var notFound wallet.ErrWalletNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Wallet not found")
			return
		}
		h.logger.Error("Failed to get wallet", "business_id", businessID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapWalletToResponse(w))
}

// Withdraw pays available wallet funds out to a bank account
func (h *WalletHandler) Withdraw(c *gin.Context) {
	businessID, ok := h.parseBusinessID(c)
	if !ok {
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	txn, err := h.walletService.Withdraw(c.Request.Context(), service.WithdrawParams{
		BusinessID:    businessID,
		Amount:        req.Amount,
		BankCode:      req.BankCode,
		AccountNo:     req.AccountNo,
		AccountName:   req.AccountName,
		Narration:     req.Narration,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		var bizNotFound business.ErrBusinessNotFound
		var walletNotFound wallet.ErrWalletNotFound
		switch {
		case errors.As(err, &bizNotFound), errors.As(err, &walletNotFound):
			RespondNotFound(c, "Business not found")
		case errors.Is(err, wallet.ErrInsufficientBalance):
			RespondUnprocessable(c, "Insufficient available balance")
		case errors.Is(err, fees.ErrSettleBelowZero):
			RespondUnprocessable(c, "Fees exceed the withdrawal amount")
		default:
			h.logger.Error("Withdrawal failed", "business_id", businessID.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapTransactionToResponse(txn))
}

// parseBusinessID reads and validates the :business_id path parameter
func (h *WalletHandler) parseBusinessID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("business_id")
	businessID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid business ID", "business_id", idParam, "error", err)
		RespondBadRequest(c, "Invalid business ID")
		return uuid.Nil, false
	}
	return businessID, true
}

// mapWalletToResponse maps a wallet entity to a wallet response DTO
func mapWalletToResponse(w *wallet.Wallet) WalletResponse {
	return WalletResponse{
		ID:         w.ID.String(),
		BusinessID: w.BusinessID.String(),
		Currency:   w.Currency,

		Available:  w.Available,
		Locked:     w.Locked,
		Settlement: w.Settlement,
		Ledger:     w.Ledger,
		TotalHeld:  w.TotalHeld(),

		InflowCount:     w.InflowCount,
		InflowValue:     w.InflowValue,
		OutflowCount:    w.OutflowCount,
		OutflowValue:    w.OutflowValue,
		WithdrawalCount: w.WithdrawalCount,
		WithdrawalValue: w.WithdrawalValue,
		ReversalCount:   w.ReversalCount,
		ReversalValue:   w.ReversalValue,

		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}
