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
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
	"github.com/lystun/payflo-sub003/internal/fees"
)

// CollectionHandler handles HTTP requests reporting payment-link collections
type CollectionHandler struct {
	collectionService service.CollectionService
	logger            *slog.Logger
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(logger *slog.Logger, collectionService service.CollectionService) *CollectionHandler {
	return &CollectionHandler{
		collectionService: collectionService,
		logger:            logger,
	}
}

// Create reports a successful collection into the settlement pipeline
func (h *CollectionHandler) Create(c *gin.Context) {
	var req ReportCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		RespondBadRequest(c, "Invalid business ID")
		return
	}

	txn, err := h.collectionService.ReportCollection(c.Request.Context(), service.ReportCollectionParams{
		BusinessID:    businessID,
		PaymentLinkID: req.PaymentLinkID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		var bizNotFound business.ErrBusinessNotFound
		var linkNotFound business.ErrPaymentLinkNotFound
		switch {
		case errors.As(err, &bizNotFound):
			RespondNotFound(c, "Business not found")
		case errors.As(err, &linkNotFound):
			RespondNotFound(c, "Payment link not found")
		case errors.Is(err, service.ErrLinkOwnership):
			RespondUnprocessable(c, err.Error())
		case errors.Is(err, fees.ErrSettleBelowZero):
			RespondUnprocessable(c, "Fees exceed the collection amount")
		default:
			h.logger.Error("Failed to report collection", "business_id", req.BusinessID, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapTransactionToResponse(txn))
}

// mapTransactionToResponse maps a ledger transaction to its response DTO
func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	resp := TransactionResponse{
		Reference:        txn.Reference,
		Type:             string(txn.Type),
		Feature:          string(txn.Feature),
		Amount:           txn.Amount,
		Fee:              txn.Fee,
		VATFee:           txn.VATFee,
		Revenue:          txn.Revenue,
		SettleAmount:     txn.SettleAmount,
		Currency:         txn.Currency,
		Status:           string(txn.Status),
		SettlementStatus: string(txn.SettlementStatus),
		BusinessID:       txn.BusinessID.String(),
		SubaccountID:     txn.SubaccountID,
		BatchCode:        txn.BatchCode,
		PaymentLinkID:    txn.PaymentLinkID,
		ProviderRef:      txn.ProviderRef,
		FailureReason:    txn.FailureReason,
		CreatedAt:        txn.CreatedAt.Format(time.RFC3339),
	}
	if txn.SettledAt != nil {
		resp.SettledAt = txn.SettledAt.Format(time.RFC3339)
	}
	return resp
}
