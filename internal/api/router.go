package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/growthvault-ledger/internal/api/handler"
	"github.com/growthvault-ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
	growthHandler *handler.GrowthHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.GET("/:id/transactions", accountHandler.GetTransactions)
			accounts.GET("/:id/eligibility", accountHandler.GetEligibility)
			accounts.GET("/:id/growth", growthHandler.GetStatus)
			accounts.POST("/:id/growth", growthHandler.Apply)
		}

		// Deposit lifecycle
		deposits := v1.Group("/deposits")
		{
			deposits.POST("", transactionHandler.CreateDeposit)
			deposits.POST("/:id/confirm", transactionHandler.ConfirmDeposit)
		}

		// Withdrawals complete immediately
		v1.POST("/withdrawals", transactionHandler.CreateWithdrawal)

		// Transaction reads and cancellation
		transactions := v1.Group("/transactions")
		{
			transactions.GET("/:id", transactionHandler.GetByID)
			transactions.POST("/:id/cancel", transactionHandler.Cancel)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
