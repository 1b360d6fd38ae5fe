package models

import (
	"time"

	"payment-router/pkg/money"
)

// PaymentAttempt is a single invocation of one connector for one payment.
// attempt_id is unique and derived from (payment_id, attempt ordinal).
type PaymentAttempt struct {
	ID                   uint               `gorm:"primary_key;autoIncrement" json:"-"`
	AttemptID            string             `gorm:"type:varchar(80);not null;uniqueIndex" json:"attempt_id"`
	PaymentID            string             `gorm:"type:varchar(64);not null;index" json:"payment_id"`
	MerchantID           string             `gorm:"type:varchar(64);not null;index" json:"merchant_id"`
	Status               AttemptStatus      `gorm:"type:varchar(40);not null" json:"status"`
	Connector            string             `gorm:"type:varchar(64)" json:"connector"`
	MerchantConnectorID  string             `gorm:"type:varchar(64)" json:"merchant_connector_id,omitempty"`
	AuthenticationType   AuthenticationType `gorm:"type:varchar(16)" json:"authentication_type"`
	Amount               money.MinorUnit    `gorm:"type:bigint;not null" json:"amount"`
	Currency             money.Currency     `gorm:"type:varchar(3);not null" json:"currency"`
	AmountCapturable     money.MinorUnit    `gorm:"type:bigint;not null;default:0" json:"amount_capturable"`
	AmountToCapture      *money.MinorUnit   `gorm:"type:bigint" json:"amount_to_capture,omitempty"`
	SurchargeAmount      *money.MinorUnit   `gorm:"type:bigint" json:"surcharge_amount,omitempty"`
	TaxAmount            *money.MinorUnit   `gorm:"type:bigint" json:"tax_amount,omitempty"`
	ErrorCode            *string            `gorm:"type:varchar(128)" json:"error_code,omitempty"`
	ErrorMessage         *string            `gorm:"type:text" json:"error_message,omitempty"`
	ErrorReason          *string            `gorm:"type:text" json:"error_reason,omitempty"`
	UnifiedCode          *string            `gorm:"type:varchar(128)" json:"unified_code,omitempty"`
	UnifiedMessage       *string            `gorm:"type:text" json:"unified_message,omitempty"`
	PaymentMethod        string             `gorm:"type:varchar(32)" json:"payment_method,omitempty"`
	PaymentMethodType    string             `gorm:"type:varchar(32)" json:"payment_method_type,omitempty"`
	PaymentMethodData    *string            `gorm:"type:jsonb" json:"payment_method_data,omitempty"`
	CaptureMethod        string             `gorm:"type:varchar(16)" json:"capture_method,omitempty"`
	ConnectorTransactionID *string          `gorm:"type:varchar(128);index" json:"connector_transaction_id,omitempty"`
	ConnectorMetadata    *string            `gorm:"type:jsonb" json:"connector_metadata,omitempty"`
	AuthenticationData   *string            `gorm:"type:jsonb" json:"authentication_data,omitempty"`
	EncodedData          *string            `gorm:"type:text" json:"encoded_data,omitempty"`
	MultipleCaptureCount *int16             `json:"multiple_capture_count,omitempty"`
	MandateID            *string            `gorm:"type:varchar(64)" json:"mandate_id,omitempty"`
	BrowserInfo          *string            `gorm:"type:jsonb" json:"browser_info,omitempty"`
	PaymentToken         *string            `gorm:"type:varchar(128)" json:"payment_token,omitempty"`
	CancellationReason   *string            `gorm:"type:text" json:"cancellation_reason,omitempty"`
	ProfileID            string             `gorm:"type:varchar(64)" json:"profile_id"`
	UpdatedBy            string             `gorm:"type:varchar(32)" json:"updated_by"`
	CreatedAt            time.Time          `json:"created_at"`
	ModifiedAt           time.Time          `gorm:"autoUpdateTime" json:"modified_at"`
	LastSyncedAt         *time.Time         `json:"last_synced_at,omitempty"`
}

// TableName returns the table name for PaymentAttempt
func (PaymentAttempt) TableName() string {
	return "payment_attempts"
}

// IsTerminal returns true if the attempt reached a terminal status
func (a *PaymentAttempt) IsTerminal() bool {
	return a.Status.IsTerminal()
}

// NewAttemptForRetry builds the next attempt for a retry iteration: static
// fields carry over from the prior attempt, transient connector state resets
// to defaults, and the authentication type upgrades to 3DS on a step-up.
func NewAttemptForRetry(prior *PaymentAttempt, connector string, newAttemptCount int16, isStepUp bool) *PaymentAttempt {
	now := time.Now().UTC()
	authType := prior.AuthenticationType
	if isStepUp {
		authType = AuthenticationTypeThreeDs
	}
	return &PaymentAttempt{
		AttemptID:          DeriveAttemptID(prior.PaymentID, newAttemptCount),
		PaymentID:          prior.PaymentID,
		MerchantID:         prior.MerchantID,
		Status:             prior.Status,
		Connector:          connector,
		AuthenticationType: authType,
		Amount:             prior.Amount,
		Currency:           prior.Currency,
		AmountToCapture:    prior.AmountToCapture,
		SurchargeAmount:    prior.SurchargeAmount,
		TaxAmount:          prior.TaxAmount,
		PaymentMethod:      prior.PaymentMethod,
		PaymentMethodType:  prior.PaymentMethodType,
		CaptureMethod:      prior.CaptureMethod,
		MandateID:          prior.MandateID,
		BrowserInfo:        prior.BrowserInfo,
		PaymentToken:       prior.PaymentToken,
		ProfileID:          prior.ProfileID,
		CreatedAt:          now,
		ModifiedAt:         now,
		LastSyncedAt:       &now,
	}
}
