package handlers

import (
	"context"
	"net/http"

	"payment-router/internal/services"
	"payment-router/pkg/errors"
	"payment-router/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// PaymentHandler exposes the payment lifecycle operations over HTTP
type PaymentHandler struct {
	paymentService services.PaymentService
	validate       *validator.Validate
	logger         *logger.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService services.PaymentService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validate:       validator.New(),
		logger:         logger,
	}
}

// Create handles POST /payments
func (h *PaymentHandler) Create(c *gin.Context) {
	var req services.AuthorizeRequest
	if !h.bind(c, &req) {
		return
	}

	response, err := h.paymentService.Authorize(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Capture handles POST /payments/:payment_id/capture
func (h *PaymentHandler) Capture(c *gin.Context) {
	h.operation(c, h.paymentService.Capture)
}

// Void handles POST /payments/:payment_id/void
func (h *PaymentHandler) Void(c *gin.Context) {
	h.operation(c, h.paymentService.Void)
}

// Sync handles POST /payments/:payment_id/sync
func (h *PaymentHandler) Sync(c *gin.Context) {
	h.operation(c, h.paymentService.Sync)
}

// Refund handles POST /payments/:payment_id/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	var body struct {
		MerchantID string `json:"merchant_id" validate:"required"`
		Amount     *int64 `json:"amount,omitempty"`
		Reason     string `json:"reason,omitempty"`
	}
	if !h.bind(c, &body) {
		return
	}

	response, err := h.paymentService.Refund(c.Request.Context(), services.RefundRequest{
		MerchantID: body.MerchantID,
		PaymentID:  c.Param("payment_id"),
		Amount:     body.Amount,
		Reason:     body.Reason,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// SetupMandate handles POST /mandates/setup
func (h *PaymentHandler) SetupMandate(c *gin.Context) {
	var req services.AuthorizeRequest
	if !h.bind(c, &req) {
		return
	}

	response, err := h.paymentService.SetupMandate(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /payments/:payment_id
func (h *PaymentHandler) Get(c *gin.Context) {
	merchantID := c.Query("merchant_id")
	if merchantID == "" {
		c.Error(errors.NewValidationError("merchant_id is required"))
		return
	}

	response, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("payment_id"), merchantID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *PaymentHandler) operation(c *gin.Context, call func(ctx context.Context, req services.OperationRequest) (*services.PaymentResponse, error)) {
	var body struct {
		MerchantID string `json:"merchant_id" validate:"required"`
	}
	if !h.bind(c, &body) {
		return
	}

	response, err := call(c.Request.Context(), services.OperationRequest{
		MerchantID: body.MerchantID,
		PaymentID:  c.Param("payment_id"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *PaymentHandler) bind(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.Error(errors.NewValidationError("invalid request body").WithCause(err))
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		c.Error(errors.NewValidationError("request validation failed").WithDetails(err.Error()))
		return false
	}
	return true
}
