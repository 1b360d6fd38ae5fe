package models

import "time"

// GsmRecord is one row of the gateway status mapping: it translates a
// connector-reported error on a flow into a routing decision and a stable
// merchant-facing code.
type GsmRecord struct {
	ID             uint      `gorm:"primary_key;autoIncrement" json:"-"`
	Connector      string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_gsm_key,priority:1" json:"connector"`
	Flow           string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_gsm_key,priority:2" json:"flow"`
	Code           string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_gsm_key,priority:3" json:"code"`
	Message        string    `gorm:"type:text;not null;uniqueIndex:idx_gsm_key,priority:4" json:"message"`
	Status         string    `gorm:"type:varchar(40)" json:"status"`
	Decision       string    `gorm:"type:varchar(16);not null" json:"decision"`
	StepUpPossible bool      `gorm:"not null;default:false" json:"step_up_possible"`
	UnifiedCode    *string   `gorm:"type:varchar(128)" json:"unified_code,omitempty"`
	UnifiedMessage *string   `gorm:"type:text" json:"unified_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	ModifiedAt     time.Time `gorm:"autoUpdateTime" json:"modified_at"`
}

// TableName returns the table name for GsmRecord
func (GsmRecord) TableName() string {
	return "gateway_status_map"
}

// ParsedDecision returns the typed decision; rows carrying an unparsable
// decision fall back to do_default
func (g *GsmRecord) ParsedDecision() (GsmDecision, bool) {
	return ParseGsmDecision(g.Decision)
}
