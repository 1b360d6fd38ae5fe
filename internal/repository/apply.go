package repository

import (
	"reflect"

	"payment-router/internal/models"
	"payment-router/pkg/money"
)

// applyAttemptUpdate mutates an attempt row with a change-set variant and
// reports whether any field actually changed. Replaying a terminal update
// over identical values is a no-op, which keeps terminal updates idempotent.
func applyAttemptUpdate(attempt *models.PaymentAttempt, update models.AttemptUpdate) bool {
	before := *attempt

	switch u := update.(type) {
	case models.AttemptResponseUpdate:
		attempt.Status = u.Status
		if u.ConnectorTransactionID != nil {
			attempt.ConnectorTransactionID = u.ConnectorTransactionID
		}
		if u.ConnectorMetadata != nil {
			attempt.ConnectorMetadata = u.ConnectorMetadata
		}
		if u.AuthenticationData != nil {
			attempt.AuthenticationData = u.AuthenticationData
		}
		if u.EncodedData != nil {
			attempt.EncodedData = u.EncodedData
		}
		if u.PaymentMethodData != nil {
			attempt.PaymentMethodData = u.PaymentMethodData
		}
		if u.AmountCapturable != nil {
			attempt.AmountCapturable = *u.AmountCapturable
		}
		attempt.ErrorCode = nil
		attempt.ErrorMessage = nil
		attempt.ErrorReason = nil
		attempt.UpdatedBy = u.UpdatedBy

	case models.AttemptErrorUpdate:
		attempt.Status = u.Status
		attempt.ErrorCode = u.ErrorCode
		attempt.ErrorMessage = u.ErrorMessage
		attempt.ErrorReason = u.ErrorReason
		attempt.UnifiedCode = u.UnifiedCode
		attempt.UnifiedMessage = u.UnifiedMessage
		attempt.AmountCapturable = money.ZeroMinorUnit()
		if u.ConnectorTransactionID != nil {
			attempt.ConnectorTransactionID = u.ConnectorTransactionID
		}
		if u.PaymentMethodData != nil {
			attempt.PaymentMethodData = u.PaymentMethodData
		}
		if u.AuthenticationType != nil {
			attempt.AuthenticationType = *u.AuthenticationType
		}
		attempt.UpdatedBy = u.UpdatedBy

	case models.AttemptStatusUpdate:
		attempt.Status = u.Status
		attempt.UpdatedBy = u.UpdatedBy
	}

	return !reflect.DeepEqual(before, *attempt)
}

// applyIntentUpdate mutates an intent row with a change-set variant and
// reports whether any field changed
func applyIntentUpdate(intent *models.PaymentIntent, update models.IntentUpdate) bool {
	before := *intent

	switch u := update.(type) {
	case models.IntentAttemptAndCountUpdate:
		intent.ActiveAttemptID = u.ActiveAttemptID
		intent.AttemptCount = u.AttemptCount
		intent.UpdatedBy = u.UpdatedBy

	case models.IntentStatusUpdate:
		intent.Status = u.Status
		intent.UpdatedBy = u.UpdatedBy
	}

	return !reflect.DeepEqual(before, *intent)
}
