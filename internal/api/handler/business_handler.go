package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/api/service"
	"github.com/lystun/payflo-sub003/internal/domain/business"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BusinessHandler handles HTTP requests for merchant onboarding operations
type BusinessHandler struct {
	businessService service.BusinessService
	logger          *slog.Logger
}

// NewBusinessHandler creates a new business handler
func NewBusinessHandler(logger *slog.Logger, businessService service.BusinessService) *BusinessHandler {
	return &BusinessHandler{
		businessService: businessService,
		logger:          logger,
	}
}

// Create handles onboarding of a new business with its wallet
func (h *BusinessHandler) Create(c *gin.Context) {
	var req CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	params := service.CreateBusinessParams{
		Name:              req.Name,
		Email:             req.Email,
		PayoutDestination: shared.PayoutDestination(req.PayoutDestination),
		BankCode:          req.BankCode,
		AccountNo:         req.AccountNo,
		AccountName:       req.AccountName,
		FeeFixed:          req.FeeFixed,
		FeeCap:            req.FeeCap,
	}
	if req.SettlementDelayDays != nil {
		params.SettlementDelayDays = *req.SettlementDelayDays
	}

	var err error
	if params.FeePercent, err = parsePercent(req.FeePercent); err != nil {
		RespondBadRequest(c, "Invalid fee_percent")
		return
	}
	if params.VATPercent, err = parsePercent(req.VATPercent); err != nil {
		RespondBadRequest(c, "Invalid vat_percent")
		return
	}

	biz, err := h.businessService.CreateBusiness(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, business.ErrEmptyName) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create business", "name", req.Name, "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapBusinessToResponse(biz))
}

// GetByID retrieves a business by its ID, returning 404 if not found
func (h *BusinessHandler) GetByID(c *gin.Context) {
	id, ok := parseBusinessID(c, h.logger)
	if !ok {
		return
	}

	biz, err := h.businessService.GetBusiness(c.Request.Context(), id)
	if err != nil {
		var notFound business.ErrBusinessNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Business not found")
			return
		}
		h.logger.Error("Failed to get business", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapBusinessToResponse(biz))
}

// CreatePaymentLink creates a payment link with its subaccount splits
func (h *BusinessHandler) CreatePaymentLink(c *gin.Context) {
	id, ok := parseBusinessID(c, h.logger)
	if !ok {
		return
	}

	var req CreatePaymentLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	now := time.Now()
	link := &business.PaymentLink{
		ID:         uuid.New().String(),
		BusinessID: id,
		Name:       req.Name,
		Currency:   req.Currency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, sub := range req.Subaccounts {
		splitValue, err := decimal.NewFromString(sub.SplitValue)
		if err != nil {
			RespondBadRequest(c, "Invalid split_value for subaccount "+sub.Code)
			return
		}
		link.Subaccounts = append(link.Subaccounts, business.Subaccount{
			ID:            uuid.New().String(),
			Code:          sub.Code,
			PaymentLinkID: link.ID,
			BankCode:      sub.BankCode,
			AccountNo:     sub.AccountNo,
			AccountName:   sub.AccountName,
			SplitType:     shared.SplitType(sub.SplitType),
			SplitValue:    splitValue,
			CreatedAt:     now,
		})
	}

	if err := h.businessService.CreatePaymentLink(c.Request.Context(), link); err != nil {
		var notFound business.ErrBusinessNotFound
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, "Business not found")
		case errors.Is(err, business.ErrInvalidSplitValue), errors.Is(err, business.ErrInvalidPercentSplit):
			RespondUnprocessable(c, err.Error())
		default:
			h.logger.Error("Failed to create payment link", "business_id", id.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapPaymentLinkToResponse(link))
}

// GetTransactions retrieves a page of a business's ledger history
func (h *BusinessHandler) GetTransactions(c *gin.Context) {
	id, ok := parseBusinessID(c, h.logger)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	txns, err := h.businessService.GetBusinessTransactions(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list business transactions", "business_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, mapTransactionToResponse(txn))
	}
	RespondWithPage(c, 200, responses, pagination.Page, pagination.PerPage, len(responses))
}

// parseBusinessID reads and validates the :id path parameter
func parseBusinessID(c *gin.Context, logger *slog.Logger) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		logger.Error("Invalid business ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid business ID")
		return uuid.Nil, false
	}
	return id, true
}

// parsePercent parses an optional decimal-string percentage
func parsePercent(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// mapBusinessToResponse maps a business entity to a business response DTO
func mapBusinessToResponse(b *business.Business) BusinessResponse {
	return BusinessResponse{
		ID:                  b.ID.String(),
		Name:                b.Name,
		Email:               b.Email,
		SettlementDelayDays: b.SettlementDelayDays,
		PayoutDestination:   string(b.PayoutDestination),
		BankCode:            b.BankCode,
		AccountNo:           b.AccountNo,
		AccountName:         b.AccountName,
		CreatedAt:           b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           b.UpdatedAt.Format(time.RFC3339),
	}
}

// mapPaymentLinkToResponse maps a payment link to its response DTO
func mapPaymentLinkToResponse(link *business.PaymentLink) PaymentLinkResponse {
	resp := PaymentLinkResponse{
		ID:         link.ID,
		BusinessID: link.BusinessID.String(),
		Name:       link.Name,
		Currency:   link.Currency,
		CreatedAt:  link.CreatedAt.Format(time.RFC3339),
	}
	for _, sub := range link.Subaccounts {
		resp.Subaccounts = append(resp.Subaccounts, SubaccountResponse{
			ID:          sub.ID,
			Code:        sub.Code,
			BankCode:    sub.BankCode,
			AccountNo:   sub.AccountNo,
			AccountName: sub.AccountName,
			SplitType:   string(sub.SplitType),
			SplitValue:  sub.SplitValue.String(),
		})
	}
	return resp
}
