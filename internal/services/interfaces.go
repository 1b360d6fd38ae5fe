package services

import (
	"context"

	"payment-router/internal/connector"
	"payment-router/internal/models"
	"payment-router/pkg/money"
)

// PaymentData is the in-memory snapshot of one payment the current task owns
// exclusively. The state machine mutates it in place as attempts advance; no
// other task reads it. Repository rows are the only cross-task shared state.
type PaymentData struct {
	Intent   *models.PaymentIntent
	Attempt  *models.PaymentAttempt
	Merchant *models.MerchantAccount
	Profile  *models.BusinessProfile
}

// FlowOperation is the capability describing what a payment request is
// doing. It knows how to construct connector input from the payment snapshot
// and how to turn a connector outcome into the attempt update to persist.
// The retry orchestrator is parameterised by this capability, not by the
// concrete message types.
type FlowOperation interface {
	Flow() models.Flow

	// BuildRequest prepares the connector invocation input from the snapshot
	BuildRequest(data *PaymentData) (*connector.RouterData, error)

	// SuccessUpdate builds the terminal response update for the attempt the
	// given router data belongs to
	SuccessUpdate(rd *connector.RouterData, data *PaymentData) models.AttemptResponseUpdate

	// ErrorUpdate builds the terminal error update, folding in the unified
	// code and message of the matched gateway status mapping when present
	ErrorUpdate(rd *connector.RouterData, gsm *models.GsmRecord, data *PaymentData) models.AttemptErrorUpdate

	// IntentStatus maps a terminal attempt status onto the intent lifecycle
	IntentStatus(status models.AttemptStatus) models.IntentStatus
}

// PaymentService exposes the merchant-facing payment lifecycle operations
type PaymentService interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*PaymentResponse, error)
	Capture(ctx context.Context, req OperationRequest) (*PaymentResponse, error)
	Void(ctx context.Context, req OperationRequest) (*PaymentResponse, error)
	Refund(ctx context.Context, req RefundRequest) (*PaymentResponse, error)
	Sync(ctx context.Context, req OperationRequest) (*PaymentResponse, error)
	SetupMandate(ctx context.Context, req AuthorizeRequest) (*PaymentResponse, error)
	GetPayment(ctx context.Context, paymentID, merchantID string) (*PaymentResponse, error)
}

// AuthorizeRequest starts a new payment (or mandate setup) for a merchant
type AuthorizeRequest struct {
	MerchantID         string                    `json:"merchant_id" validate:"required"`
	PaymentID          string                    `json:"payment_id,omitempty"`
	ProfileID          string                    `json:"profile_id,omitempty"`
	Amount             int64                     `json:"amount" validate:"gte=0"`
	Currency           money.Currency            `json:"currency" validate:"required,len=3"`
	AuthenticationType models.AuthenticationType `json:"authentication_type,omitempty"`
	PaymentMethod      string                    `json:"payment_method,omitempty"`
	PaymentMethodType  string                    `json:"payment_method_type,omitempty"`
	CaptureMethod      string                    `json:"capture_method,omitempty"`
	Description        string                    `json:"description,omitempty"`
	ReturnURL          string                    `json:"return_url,omitempty"`
	// Connectors is the ordered shortlist: the first entry handles the
	// initial attempt, the rest are retry fallbacks in caller order
	Connectors []string `json:"connectors" validate:"required,min=1"`
}

// OperationRequest drives a follow-up flow on an existing payment
type OperationRequest struct {
	MerchantID string `json:"merchant_id" validate:"required"`
	PaymentID  string `json:"payment_id" validate:"required"`
}

// RefundRequest refunds all or part of a captured payment
type RefundRequest struct {
	MerchantID string `json:"merchant_id" validate:"required"`
	PaymentID  string `json:"payment_id" validate:"required"`
	Amount     *int64 `json:"amount,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// PaymentResponse is the merchant-facing view of a payment after an
// operation completes
type PaymentResponse struct {
	PaymentID       string               `json:"payment_id"`
	MerchantID      string               `json:"merchant_id"`
	Status          models.IntentStatus  `json:"status"`
	Amount          money.MinorUnit      `json:"amount"`
	Currency        money.Currency       `json:"currency"`
	AttemptCount    int16                `json:"attempt_count"`
	ActiveAttemptID string               `json:"active_attempt_id"`
	Connector       string               `json:"connector,omitempty"`
	AttemptStatus   models.AttemptStatus `json:"attempt_status"`
	ErrorCode       *string              `json:"error_code,omitempty"`
	ErrorMessage    *string              `json:"error_message,omitempty"`
	UnifiedCode     *string              `json:"unified_code,omitempty"`
	UnifiedMessage  *string              `json:"unified_message,omitempty"`
}
