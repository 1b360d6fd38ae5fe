package models

import (
	"fmt"
	"time"
)

// MerchantConfig is one keyed runtime setting. Merchant-scoped retry knobs
// live here rather than in the process environment.
type MerchantConfig struct {
	ID         uint      `gorm:"primary_key;autoIncrement" json:"-"`
	Key        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"key"`
	Value      string    `gorm:"type:text;not null" json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `gorm:"autoUpdateTime" json:"modified_at"`
}

// TableName returns the table name for MerchantConfig
func (MerchantConfig) TableName() string {
	return "configs"
}

// MaxAutoRetriesKey is the config key holding a merchant's retry budget
func MaxAutoRetriesKey(merchantID string) string {
	return fmt.Sprintf("max_auto_retries_enabled_%s", merchantID)
}

// StepUpEnabledKey is the config key holding a merchant's step-up connector
// allow-list (a JSON array of connector names)
func StepUpEnabledKey(merchantID string) string {
	return fmt.Sprintf("step_up_enabled_%s", merchantID)
}

// ShouldCallGsmKey is the config key for the merchant's gsm toggle
func ShouldCallGsmKey(merchantID string) string {
	return fmt.Sprintf("should_call_gsm_%s", merchantID)
}

// MerchantAccount is the merchant on whose behalf a payment executes. Only
// the fields the routing core reads are modeled here.
type MerchantAccount struct {
	MerchantID    string `json:"merchant_id"`
	MerchantName  string `json:"merchant_name,omitempty"`
	StorageScheme string `json:"storage_scheme"`
}

// BusinessProfile carries per-profile routing configuration
type BusinessProfile struct {
	ProfileID      string `json:"profile_id"`
	MerchantID     string `json:"merchant_id"`
	ProfileName    string `json:"profile_name,omitempty"`
	ReturnURL      string `json:"return_url,omitempty"`
}
