package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lystun/payflo-sub003/internal/api/handler"
	"github.com/lystun/payflo-sub003/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	businessHandler *handler.BusinessHandler,
	collectionHandler *handler.CollectionHandler,
	settlementHandler *handler.SettlementHandler,
	walletHandler *handler.WalletHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Merchant onboarding
		businesses := v1.Group("/businesses")
		{
			businesses.POST("", businessHandler.Create)
			businesses.GET("/:id", businessHandler.GetByID)
			businesses.POST("/:id/payment-links", businessHandler.CreatePaymentLink)
			businesses.GET("/:id/transactions", businessHandler.GetTransactions)
		}

		// Collection reporting
		v1.POST("/collections", collectionHandler.Create)

		// Settlement runs and batch reads
		settlements := v1.Group("/settlements")
		{
			settlements.POST("/run", settlementHandler.Run)
			settlements.GET("/:code", settlementHandler.GetByCode)
			settlements.GET("/:code/analytics", settlementHandler.GetAnalytics)
			settlements.GET("/:code/transactions", settlementHandler.GetTransactions)
		}

		// Wallet reads and withdrawals
		wallets := v1.Group("/wallets")
		{
			wallets.GET("/:business_id", walletHandler.GetByBusinessID)
			wallets.POST("/:business_id/withdrawals", walletHandler.Withdraw)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
