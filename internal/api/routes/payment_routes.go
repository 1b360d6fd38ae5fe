package routes

import (
	"payment-router/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterPaymentRoutes wires the payment lifecycle endpoints
func RegisterPaymentRoutes(api *gin.RouterGroup, handler *handlers.PaymentHandler) {
	payments := api.Group("/payments")
	{
		payments.POST("", handler.Create)
		payments.GET("/:payment_id", handler.Get)
		payments.POST("/:payment_id/capture", handler.Capture)
		payments.POST("/:payment_id/void", handler.Void)
		payments.POST("/:payment_id/refund", handler.Refund)
		payments.POST("/:payment_id/sync", handler.Sync)
	}

	mandates := api.Group("/mandates")
	{
		mandates.POST("/setup", handler.SetupMandate)
	}
}
