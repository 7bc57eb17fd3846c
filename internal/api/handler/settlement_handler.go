package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/api/middleware"
	"github.com/lystun/payflo-sub003/internal/api/service"
	"github.com/lystun/payflo-sub003/internal/domain/batch"
	"github.com/lystun/payflo-sub003/internal/domain/shared"
)

// SettlementHandler handles HTTP requests for settlement runs and batch reads
type SettlementHandler struct {
	settlementService service.SettlementService
	logger            *slog.Logger
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(logger *slog.Logger, settlementService service.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		logger:            logger,
	}
}

// Run enqueues a settlement run trigger
func (h *SettlementHandler) Run(c *gin.Context) {
	var req RunSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	request := &shared.RunRequest{
		BatchCode:     req.BatchCode,
		Mode:          shared.RunMode(req.Mode),
		Force:         req.Force,
		IncludePast:   req.IncludePast,
		CorrelationID: middleware.GetCorrelationID(c),
		Timestamp:     time.Now(),
	}
	if req.BusinessID != "" {
		businessID, err := uuid.Parse(req.BusinessID)
		if err != nil {
			RespondBadRequest(c, "Invalid business ID")
			return
		}
		request.BusinessID = businessID
	}

	if err := h.settlementService.RequestRun(c.Request.Context(), request); err != nil {
		switch {
		case errors.Is(err, shared.ErrInvalidRunMode), errors.Is(err, shared.ErrMissingBusinessID):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to request settlement run", "mode", req.Mode, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondAccepted(c, gin.H{
		"batch_code": req.BatchCode,
		"mode":       req.Mode,
		"status":     "QUEUED",
	})
}

// GetByCode retrieves a settlement batch by its code
func (h *SettlementHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")

	b, err := h.settlementService.GetBatch(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, batch.ErrBatchNotFound{}) {
			RespondNotFound(c, "Settlement batch not found")
			return
		}
		h.logger.Error("Failed to get settlement batch", "code", code, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapBatchToResponse(b))
}

// GetAnalytics retrieves a batch's settled position and run audit trail
func (h *SettlementHandler) GetAnalytics(c *gin.Context) {
	code := c.Param("code")

	b, err := h.settlementService.GetBatch(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, batch.ErrBatchNotFound{}) {
			RespondNotFound(c, "Settlement batch not found")
			return
		}
		h.logger.Error("Failed to get settlement batch", "code", code, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapBatchToAnalyticsResponse(b))
}

// GetTransactions retrieves a page of a batch's transactions
func (h *SettlementHandler) GetTransactions(c *gin.Context) {
	code := c.Param("code")

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	txns, err := h.settlementService.GetBatchTransactions(c.Request.Context(), code, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list batch transactions", "code", code, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, mapTransactionToResponse(txn))
	}
	RespondWithPage(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, len(responses))
}

// mapBatchToResponse maps a batch to its summary response DTO
func mapBatchToResponse(b *batch.Batch) BatchResponse {
	resp := BatchResponse{
		Code:         b.Code,
		Status:       string(b.Status),
		IsRunning:    b.IsRunning,
		IsSettled:    b.IsSettled,
		TotalAmount:  b.TotalAmount,
		Transactions: len(b.TransactionRefs),
		Overview:     mapOverview(b.Overview),
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    b.UpdatedAt.Format(time.RFC3339),
	}
	if b.SettledAt != nil {
		resp.SettledAt = b.SettledAt.Format(time.RFC3339)
	}
	return resp
}

// mapBatchToAnalyticsResponse maps a batch's analytics and run history
func mapBatchToAnalyticsResponse(b *batch.Batch) BatchAnalyticsResponse {
	resp := BatchAnalyticsResponse{
		Code:               b.Code,
		SettledAmount:      b.Analytics.SettledAmount,
		SharedAmount:       b.Analytics.SharedAmount,
		SettledBusinesses:  sortedKeys(b.Analytics.SettledBusinesses),
		SettledSubaccounts: sortedKeys(b.Analytics.SettledSubaccounts),
		Overview:           mapOverview(b.Overview),
	}

	for _, snapshot := range b.RunHistory {
		resp.Runs = append(resp.Runs, RunSnapshotResponse{
			At:                snapshot.At.Format(time.RFC3339),
			Status:            string(snapshot.Status),
			SettledAmount:     snapshot.Analytics.SettledAmount,
			BusinessesPending: snapshot.BusinessesPending,
		})
	}

	if len(b.PayoutSchedule) > 0 {
		resp.PayoutSchedule = make(map[string]string, len(b.PayoutSchedule))
		for businessID, date := range b.PayoutSchedule {
			resp.PayoutSchedule[businessID] = date.Format(time.RFC3339)
		}
	}

	return resp
}

func mapOverview(o batch.Overview) BatchOverviewResponse {
	return BatchOverviewResponse{
		Amount:     o.Amount,
		Businesses: o.Businesses,
		DueToday:   o.DueToday,
		PastDue:    o.PastDue,
		Fees:       o.Fees,
		VAT:        o.VAT,
		Revenue:    o.Revenue,
	}
}

func sortedKeys(m map[string]time.Time) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
