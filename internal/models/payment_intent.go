package models

import (
	"fmt"
	"time"

	"payment-router/pkg/money"
)

// PaymentIntent is the merchant-facing payment, persistent across attempts.
// The pair (payment_id, merchant_id) is the unique identity.
type PaymentIntent struct {
	ID              uint           `gorm:"primary_key;autoIncrement" json:"-"`
	PaymentID       string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_payment_merchant,priority:1" json:"payment_id"`
	MerchantID      string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_payment_merchant,priority:2" json:"merchant_id"`
	Status          IntentStatus   `gorm:"type:varchar(32);not null;index" json:"status"`
	Amount          money.MinorUnit `gorm:"type:bigint;not null" json:"amount"`
	Currency        money.Currency `gorm:"type:varchar(3);not null" json:"currency"`
	AttemptCount    int16          `gorm:"not null;default:1" json:"attempt_count"`
	ActiveAttemptID string         `gorm:"type:varchar(80);not null" json:"active_attempt_id"`
	ProfileID       string         `gorm:"type:varchar(64)" json:"profile_id"`
	Description     string         `gorm:"type:text" json:"description,omitempty"`
	ReturnURL       string         `gorm:"type:varchar(255)" json:"return_url,omitempty"`
	SetupFutureUsage string        `gorm:"type:varchar(32)" json:"setup_future_usage,omitempty"`
	UpdatedBy       string         `gorm:"type:varchar(32)" json:"updated_by"`
	CreatedAt       time.Time      `json:"created_at"`
	ModifiedAt      time.Time      `gorm:"autoUpdateTime" json:"modified_at"`
	LastSyncedAt    *time.Time     `json:"last_synced_at,omitempty"`
}

// TableName returns the table name for PaymentIntent
func (PaymentIntent) TableName() string {
	return "payment_intents"
}

// AttemptID derives the deterministic attempt identifier for a given count
func (p *PaymentIntent) AttemptID(attemptCount int16) string {
	return DeriveAttemptID(p.PaymentID, attemptCount)
}

// DeriveAttemptID builds the attempt identifier from its payment id and
// ordinal. The mapping is deterministic so concurrent writers collide on
// insert instead of racing.
func DeriveAttemptID(paymentID string, attemptCount int16) string {
	return fmt.Sprintf("%s_%d", paymentID, attemptCount)
}
