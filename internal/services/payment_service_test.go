package services_test

import (
	"context"
	"testing"

	"payment-router/internal/config"
	"payment-router/internal/connector"
	"payment-router/internal/gsm"
	"payment-router/internal/models"
	"payment-router/internal/repository"
	"payment-router/internal/services"
	"payment-router/pkg/errors"
	"payment-router/pkg/logger"
	"payment-router/pkg/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceEnv struct {
	store   *repository.MemoryStore
	sim     *connector.Simulator
	service services.PaymentService
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()
	log := logger.NewNop()
	store := repository.NewMemoryStore()
	sim := connector.NewSimulator(log)
	gsmStore := gsm.NewStore(store.Gsm(), nil, &config.GsmConfig{}, log)
	orchestrator := services.NewRetryOrchestrator(
		store, store.Attempts(), store.Configs(), gsmStore, sim, &testCounters{}, log)
	service := services.NewPaymentService(
		store, store.Attempts(), gsmStore, sim, orchestrator, log)
	return &serviceEnv{store: store, sim: sim, service: service}
}

// authorize creates a charged or authorized payment to continue from
func (e *serviceEnv) authorize(t *testing.T, status models.AttemptStatus) *services.PaymentResponse {
	t.Helper()
	outcome := connector.ScriptedOutcome{Status: status}
	if status == models.AttemptStatusCharged || status == models.AttemptStatusAuthorized {
		outcome.Response = &connector.TransactionResponse{ConnectorTransactionID: "txn_1"}
	}
	e.sim.Script("stripe", outcome)

	response, err := e.service.Authorize(context.Background(), services.AuthorizeRequest{
		MerchantID: "merchant_1",
		PaymentID:  "pay_1",
		Amount:     1000,
		Currency:   money.CurrencyUSD,
		Connectors: []string{"stripe"},
	})
	require.NoError(t, err)
	return response
}

func TestAuthorizeValidation(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	_, err := env.service.Authorize(ctx, services.AuthorizeRequest{
		Amount: 1000, Currency: money.CurrencyUSD, Connectors: []string{"stripe"},
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "missing merchant")

	_, err = env.service.Authorize(ctx, services.AuthorizeRequest{
		MerchantID: "merchant_1", Amount: 1000, Currency: money.CurrencyUSD,
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "missing connectors")

	_, err = env.service.Authorize(ctx, services.AuthorizeRequest{
		MerchantID: "merchant_1", Amount: 0, Currency: money.CurrencyUSD, Connectors: []string{"stripe"},
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), "zero amount")
}

func TestCaptureAfterAuthorize(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	response := env.authorize(t, models.AttemptStatusAuthorized)
	assert.Equal(t, models.IntentStatusRequiresCapture, response.Status)

	env.sim.Script("stripe", connector.ScriptedOutcome{
		Status:   models.AttemptStatusCharged,
		Response: &connector.TransactionResponse{ConnectorTransactionID: "txn_1"},
	})

	captured, err := env.service.Capture(ctx, services.OperationRequest{
		MerchantID: "merchant_1", PaymentID: "pay_1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusSucceeded, captured.Status)
	assert.Equal(t, models.AttemptStatusCharged, captured.AttemptStatus)
}

func TestCaptureRejectsWrongStatus(t *testing.T) {
	env := newServiceEnv(t)

	response := env.authorize(t, models.AttemptStatusCharged)
	assert.Equal(t, models.IntentStatusSucceeded, response.Status)

	_, err := env.service.Capture(context.Background(), services.OperationRequest{
		MerchantID: "merchant_1", PaymentID: "pay_1",
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestVoidCancelsAuthorizedPayment(t *testing.T) {
	env := newServiceEnv(t)

	env.authorize(t, models.AttemptStatusAuthorized)
	env.sim.Script("stripe", connector.ScriptedOutcome{Status: models.AttemptStatusVoided})

	voided, err := env.service.Void(context.Background(), services.OperationRequest{
		MerchantID: "merchant_1", PaymentID: "pay_1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusCancelled, voided.Status)
}

func TestRefundValidatesAmount(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	env.authorize(t, models.AttemptStatusCharged)

	excess := int64(5000)
	_, err := env.service.Refund(ctx, services.RefundRequest{
		MerchantID: "merchant_1", PaymentID: "pay_1", Amount: &excess,
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	negative := int64(-1)
	_, err = env.service.Refund(ctx, services.RefundRequest{
		MerchantID: "merchant_1", PaymentID: "pay_1", Amount: &negative,
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestRefundSucceeds(t *testing.T) {
	env := newServiceEnv(t)

	env.authorize(t, models.AttemptStatusCharged)
	env.sim.Script("stripe", connector.ScriptedOutcome{
		Status:   models.AttemptStatusAutoRefunded,
		Response: &connector.TransactionResponse{ConnectorTransactionID: "ref_1"},
	})

	refunded, err := env.service.Refund(context.Background(), services.RefundRequest{
		MerchantID: "merchant_1", PaymentID: "pay_1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStatusAutoRefunded, refunded.AttemptStatus)
}

func TestSyncRequiresConnectorTransaction(t *testing.T) {
	env := newServiceEnv(t)

	// A failed authorize leaves no connector transaction to reconcile
	env.sim.Script("stripe", connector.ScriptedOutcome{
		Status: models.AttemptStatusFailure,
		Error:  &connector.ErrorResponse{Code: "DECLINED", Message: "no"},
	})
	_, err := env.service.Authorize(context.Background(), services.AuthorizeRequest{
		MerchantID: "merchant_1", PaymentID: "pay_1", Amount: 1000,
		Currency: money.CurrencyUSD, Connectors: []string{"stripe"},
	})
	require.NoError(t, err)

	_, err = env.service.Sync(context.Background(), services.OperationRequest{
		MerchantID: "merchant_1", PaymentID: "pay_1",
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestSyncRefreshesAttemptStatus(t *testing.T) {
	env := newServiceEnv(t)

	env.authorize(t, models.AttemptStatusCharged)
	env.sim.Script("stripe", connector.ScriptedOutcome{
		Status:   models.AttemptStatusCharged,
		Response: &connector.TransactionResponse{ConnectorTransactionID: "txn_1"},
	})

	synced, err := env.service.Sync(context.Background(), services.OperationRequest{
		MerchantID: "merchant_1", PaymentID: "pay_1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStatusCharged, synced.AttemptStatus)
	assert.Equal(t, models.IntentStatusSucceeded, synced.Status)
}

func TestSetupMandateAllowsZeroAmount(t *testing.T) {
	env := newServiceEnv(t)

	mandateRef := "mandate_1"
	env.sim.Script("stripe", connector.ScriptedOutcome{
		Status: models.AttemptStatusCharged,
		Response: &connector.TransactionResponse{
			ConnectorTransactionID: "txn_1",
			MandateReference:       &mandateRef,
		},
	})

	response, err := env.service.SetupMandate(context.Background(), services.AuthorizeRequest{
		MerchantID: "merchant_1", PaymentID: "pay_mandate", Amount: 0,
		Currency: money.CurrencyUSD, Connectors: []string{"stripe"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusSucceeded, response.Status)
}

func TestGetPaymentNotFound(t *testing.T) {
	env := newServiceEnv(t)

	_, err := env.service.GetPayment(context.Background(), "missing", "merchant_1")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}
