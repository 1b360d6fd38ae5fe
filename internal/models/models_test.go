package models

import (
	"testing"

	"payment-router/pkg/money"

	"github.com/stretchr/testify/assert"
)

func TestDeriveAttemptID(t *testing.T) {
	assert.Equal(t, "pay_123_1", DeriveAttemptID("pay_123", 1))
	assert.Equal(t, "pay_123_17", DeriveAttemptID("pay_123", 17))
}

func TestAttemptStatusGsmGate(t *testing.T) {
	shouldCall := []AttemptStatus{
		AttemptStatusAuthenticationFailed,
		AttemptStatusAuthorizationFailed,
		AttemptStatusFailure,
	}
	for _, status := range shouldCall {
		assert.True(t, status.ShouldCallGsm(), "expected %s to qualify", status)
	}

	shouldNot := []AttemptStatus{
		AttemptStatusStarted,
		AttemptStatusAuthorizing,
		AttemptStatusAuthorized,
		AttemptStatusCharged,
		AttemptStatusVoided,
		AttemptStatusCaptureFailed,
		AttemptStatusVoidFailed,
		AttemptStatusPending,
		AttemptStatusUnresolved,
	}
	for _, status := range shouldNot {
		assert.False(t, status.ShouldCallGsm(), "expected %s not to qualify", status)
	}
}

func TestIntentTerminalStatuses(t *testing.T) {
	assert.True(t, IntentStatusSucceeded.IsTerminal())
	assert.True(t, IntentStatusFailed.IsTerminal())
	assert.True(t, IntentStatusCancelled.IsTerminal())
	assert.False(t, IntentStatusProcessing.IsTerminal())
	assert.False(t, IntentStatusRequiresCapture.IsTerminal())
}

func TestParseGsmDecision(t *testing.T) {
	decision, ok := ParseGsmDecision("retry")
	assert.True(t, ok)
	assert.Equal(t, GsmDecisionRetry, decision)

	decision, ok = ParseGsmDecision("bogus")
	assert.False(t, ok)
	assert.Equal(t, GsmDecisionDoDefault, decision)
}

func TestNewAttemptForRetryResetsTransientFields(t *testing.T) {
	code := "DECLINED"
	message := "card was declined"
	encoded := "ZW5jb2RlZA=="
	txn := "txn_1"
	prior := &PaymentAttempt{
		AttemptID:              "pay_1_1",
		PaymentID:              "pay_1",
		MerchantID:             "merchant_1",
		Status:                 AttemptStatusFailure,
		Connector:              "stripe",
		AuthenticationType:     AuthenticationTypeNoThreeDs,
		Amount:                 money.NewMinorUnit(1000),
		Currency:               money.CurrencyUSD,
		ErrorCode:              &code,
		ErrorMessage:           &message,
		EncodedData:            &encoded,
		ConnectorTransactionID: &txn,
		PaymentMethod:          "card",
		ProfileID:              "profile_1",
	}

	next := NewAttemptForRetry(prior, "adyen", 2, false)

	assert.Equal(t, "pay_1_2", next.AttemptID)
	assert.Equal(t, "adyen", next.Connector)
	assert.Equal(t, AuthenticationTypeNoThreeDs, next.AuthenticationType)
	assert.Equal(t, prior.Amount, next.Amount)
	assert.Equal(t, "card", next.PaymentMethod)
	assert.Equal(t, "profile_1", next.ProfileID)

	// Connector state from the failed attempt must not leak forward
	assert.Nil(t, next.ErrorCode)
	assert.Nil(t, next.ErrorMessage)
	assert.Nil(t, next.EncodedData)
	assert.Nil(t, next.ConnectorTransactionID)
	assert.Nil(t, next.UnifiedCode)
	assert.True(t, next.AmountCapturable.IsZero())
}

func TestNewAttemptForRetryStepUpUpgradesAuth(t *testing.T) {
	prior := &PaymentAttempt{
		AttemptID:          "pay_1_1",
		PaymentID:          "pay_1",
		AuthenticationType: AuthenticationTypeNoThreeDs,
	}

	next := NewAttemptForRetry(prior, "stripe", 2, true)
	assert.Equal(t, AuthenticationTypeThreeDs, next.AuthenticationType)
}
