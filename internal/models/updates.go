package models

import (
	"payment-router/pkg/money"
)

// AttemptUpdate is the closed set of mutations the core applies to a
// payment attempt. Each variant names exactly the fields it touches, so an
// invalid combination is unrepresentable.
type AttemptUpdate interface {
	isAttemptUpdate()
}

// AttemptResponseUpdate is the success-path terminal update for an attempt
type AttemptResponseUpdate struct {
	Status                 AttemptStatus
	ConnectorTransactionID *string
	ConnectorMetadata      *string
	AuthenticationData     *string
	EncodedData            *string
	PaymentMethodData      *string
	AmountCapturable       *money.MinorUnit
	UpdatedBy              string
}

func (AttemptResponseUpdate) isAttemptUpdate() {}

// AttemptErrorUpdate is the failure-path terminal update for an attempt.
// amount_capturable is forced to zero; the unified code and message come
// from the matched gateway status mapping, when there is one.
type AttemptErrorUpdate struct {
	Status                 AttemptStatus
	ErrorCode              *string
	ErrorMessage           *string
	ErrorReason            *string
	UnifiedCode            *string
	UnifiedMessage         *string
	ConnectorTransactionID *string
	PaymentMethodData      *string
	AuthenticationType     *AuthenticationType
	UpdatedBy              string
}

func (AttemptErrorUpdate) isAttemptUpdate() {}

// AttemptStatusUpdate is the narrow single-field status move used by flows
// outside the retry core
type AttemptStatusUpdate struct {
	Status    AttemptStatus
	UpdatedBy string
}

func (AttemptStatusUpdate) isAttemptUpdate() {}

// IntentUpdate is the closed set of mutations the core applies to a
// payment intent
type IntentUpdate interface {
	isIntentUpdate()
}

// IntentAttemptAndCountUpdate advances the intent's active attempt pointer
// and attempt count after a retry inserts a fresh attempt
type IntentAttemptAndCountUpdate struct {
	ActiveAttemptID string
	AttemptCount    int16
	UpdatedBy       string
}

func (IntentAttemptAndCountUpdate) isIntentUpdate() {}

// IntentStatusUpdate moves the intent to a new lifecycle status
type IntentStatusUpdate struct {
	Status    IntentStatus
	UpdatedBy string
}

func (IntentStatusUpdate) isIntentUpdate() {}
