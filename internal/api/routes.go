package api

import (
	"pharmacy-coverage/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		// Catalog routes (no account required)
		api.GET("/medications", h.GetMedications)
		api.GET("/medications/:id/availability", h.GetMedicationAvailability)
		api.GET("/plans", h.GetPlans)

		api.POST("/verification", h.VerifyCoverage)

		// Account routes
		account := api.Group("")
		account.Use(middleware.AccountMiddleware(h.AccountFeed))
		{
			account.GET("/insurance/status", h.GetInsuranceStatus)
			account.GET("/transactions", h.GetTransactionHistory)
			account.GET("/transactions/local", h.GetLocalTransactions)
			account.POST("/purchases/insurance", h.PurchaseInsurance)
			account.POST("/purchases/medication", h.PurchaseMedication)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "pharmacy-coverage",
		})
	})
}
