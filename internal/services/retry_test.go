package services_test

import (
	"context"
	"sync"
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
	"github.com/stretchr/testify/suite"
)

// testCounters records retry counter increments for assertions
type testCounters struct {
	mu        sync.Mutex
	eligible  int
	payment   int
	exhausted int
	gsmMatch  int
}

func (c *testCounters) IncAutoRetryEligible() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eligible++
}

func (c *testCounters) IncAutoRetryPayment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payment++
}

func (c *testCounters) IncAutoRetryExhausted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exhausted++
}

func (c *testCounters) IncAutoRetryGsmMatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gsmMatch++
}

// RetryOrchestratorTestSuite drives the payment service against the
// in-memory store and the scripted connector simulator
type RetryOrchestratorTestSuite struct {
	suite.Suite
	store    *repository.MemoryStore
	sim      *connector.Simulator
	counters *testCounters
	service  services.PaymentService
	ctx      context.Context
}

func (s *RetryOrchestratorTestSuite) SetupTest() {
	log := logger.NewNop()
	s.store = repository.NewMemoryStore()
	s.sim = connector.NewSimulator(log)
	s.counters = &testCounters{}
	s.ctx = context.Background()

	gsmStore := gsm.NewStore(s.store.Gsm(), nil, &config.GsmConfig{}, log)
	orchestrator := services.NewRetryOrchestrator(
		s.store,
		s.store.Attempts(),
		s.store.Configs(),
		gsmStore,
		s.sim,
		s.counters,
		log,
	)
	s.service = services.NewPaymentService(
		s.store,
		s.store.Attempts(),
		gsmStore,
		s.sim,
		orchestrator,
		log,
	)
}

func TestRetryOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(RetryOrchestratorTestSuite))
}

const (
	testMerchant = "merchant_1"
	testPayment  = "pay_retry_test"
)

func (s *RetryOrchestratorTestSuite) setConfig(key, value string) {
	require.NoError(s.T(), s.store.Configs().Upsert(s.ctx, key, value))
}

func (s *RetryOrchestratorTestSuite) enableGsm() {
	s.setConfig(models.ShouldCallGsmKey(testMerchant), "true")
}

func (s *RetryOrchestratorTestSuite) setRetries(n string) {
	s.setConfig(models.MaxAutoRetriesKey(testMerchant), n)
}

func (s *RetryOrchestratorTestSuite) addGsmRecord(connectorName, code, message, decision string, stepUp bool) {
	unifiedCode := "UE_9000"
	unifiedMessage := "Something went wrong"
	_, err := s.store.Gsm().Insert(s.ctx, &models.GsmRecord{
		Connector:      connectorName,
		Flow:           string(models.FlowAuthorize),
		Code:           code,
		Message:        message,
		Decision:       decision,
		StepUpPossible: stepUp,
		UnifiedCode:    &unifiedCode,
		UnifiedMessage: &unifiedMessage,
	})
	require.NoError(s.T(), err)
}

func (s *RetryOrchestratorTestSuite) authorizeRequest(connectors ...string) services.AuthorizeRequest {
	return services.AuthorizeRequest{
		MerchantID: testMerchant,
		PaymentID:  testPayment,
		Amount:     1000,
		Currency:   money.CurrencyUSD,
		Connectors: connectors,
	}
}

func successOutcome(txnID string) connector.ScriptedOutcome {
	return connector.ScriptedOutcome{
		Status:   models.AttemptStatusCharged,
		Response: &connector.TransactionResponse{ConnectorTransactionID: txnID},
	}
}

func declineOutcome(code, message string) connector.ScriptedOutcome {
	return connector.ScriptedOutcome{
		Status: models.AttemptStatusFailure,
		Error:  &connector.ErrorResponse{Code: code, Message: message},
	}
}

// Happy path: one connector, one attempt, no retry evaluation side effects
func (s *RetryOrchestratorTestSuite) TestAuthorizeHappyPath() {
	s.enableGsm()
	s.sim.Script("stripe", successOutcome("txn_1"))

	response, err := s.service.Authorize(s.ctx, s.authorizeRequest("stripe"))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.IntentStatusSucceeded, response.Status)
	assert.Equal(s.T(), int16(1), response.AttemptCount)

	attempts, err := s.store.Attempts().ListByPaymentID(s.ctx, testPayment, testMerchant)
	require.NoError(s.T(), err)
	require.Len(s.T(), attempts, 1)
	assert.Equal(s.T(), models.AttemptStatusCharged, attempts[0].Status)
	assert.True(s.T(), attempts[0].AmountCapturable.IsZero())
	assert.Equal(s.T(), 0, s.counters.eligible)
	assert.Equal(s.T(), 0, s.counters.payment)
}

// Single retry success: the first connector declines with a retry-mapped
// code, the fallback charges
func (s *RetryOrchestratorTestSuite) TestAuthorizeSingleRetrySuccess() {
	s.enableGsm()
	s.setRetries("5")
	s.addGsmRecord("stripe", "DECLINED_DO_RETRY", "card was declined", "retry", false)

	s.sim.Script("stripe", declineOutcome("DECLINED_DO_RETRY", "card was declined"))
	s.sim.Script("adyen", successOutcome("txn_2"))

	response, err := s.service.Authorize(s.ctx, s.authorizeRequest("stripe", "adyen"))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.IntentStatusSucceeded, response.Status)
	assert.Equal(s.T(), int16(2), response.AttemptCount)
	assert.Equal(s.T(), models.DeriveAttemptID(testPayment, 2), response.ActiveAttemptID)

	attempts, err := s.store.Attempts().ListByPaymentID(s.ctx, testPayment, testMerchant)
	require.NoError(s.T(), err)
	require.Len(s.T(), attempts, 2)

	first := attempts[0]
	assert.Equal(s.T(), models.AttemptStatusFailure, first.Status)
	require.NotNil(s.T(), first.ErrorCode)
	assert.Equal(s.T(), "DECLINED_DO_RETRY", *first.ErrorCode)
	require.NotNil(s.T(), first.UnifiedCode)
	assert.Equal(s.T(), "UE_9000", *first.UnifiedCode)
	assert.True(s.T(), first.AmountCapturable.IsZero())

	second := attempts[1]
	assert.Equal(s.T(), models.AttemptStatusCharged, second.Status)
	assert.Equal(s.T(), "adyen", second.Connector)

	assert.Equal(s.T(), []string{"stripe", "adyen"}, s.sim.Invocations())
	assert.Equal(s.T(), 1, s.counters.eligible)
	assert.Equal(s.T(), 1, s.counters.payment)
	assert.Equal(s.T(), 0, s.counters.exhausted)
}

// Step-up: the mapping allows it, the merchant enabled the connector, and
// the failed attempt was no-3DS, so exactly one retry hits the same
// connector with 3DS and the retry budget stays untouched
func (s *RetryOrchestratorTestSuite) TestAuthorizeStepUp() {
	s.enableGsm()
	s.setConfig(models.StepUpEnabledKey(testMerchant), `["stripe"]`)
	s.addGsmRecord("stripe", "3DS_REQUIRED", "authentication required", "do_default", true)

	s.sim.Script("stripe",
		declineOutcome("3DS_REQUIRED", "authentication required"),
		successOutcome("txn_stepup"),
	)

	response, err := s.service.Authorize(s.ctx, s.authorizeRequest("stripe", "adyen"))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.IntentStatusSucceeded, response.Status)
	assert.Equal(s.T(), []string{"stripe", "stripe"}, s.sim.Invocations())

	attempts, err := s.store.Attempts().ListByPaymentID(s.ctx, testPayment, testMerchant)
	require.NoError(s.T(), err)
	require.Len(s.T(), attempts, 2)
	assert.Equal(s.T(), models.AuthenticationTypeNoThreeDs, attempts[0].AuthenticationType)
	assert.Equal(s.T(), models.AuthenticationTypeThreeDs, attempts[1].AuthenticationType)
	assert.Equal(s.T(), "stripe", attempts[1].Connector)

	assert.Equal(s.T(), 1, s.counters.payment)
	assert.Equal(s.T(), 0, s.counters.exhausted)
}

// No step-up without the merchant allow-list entry
func (s *RetryOrchestratorTestSuite) TestNoStepUpWhenConnectorNotEnabled() {
	s.enableGsm()
	s.addGsmRecord("stripe", "3DS_REQUIRED", "authentication required", "do_default", true)

	s.sim.Script("stripe", declineOutcome("3DS_REQUIRED", "authentication required"))

	response, err := s.service.Authorize(s.ctx, s.authorizeRequest("stripe"))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.IntentStatusFailed, response.Status)
	assert.Equal(s.T(), []string{"stripe"}, s.sim.Invocations())
	assert.Equal(s.T(), 0, s.counters.payment)
}

// No step-up when the attempt is already 3DS
func (s *RetryOrchestratorTestSuite) TestNoStepUpWhenAlreadyThreeDs() {
	s.enableGsm()
	s.setConfig(models.StepUpEnabledKey(testMerchant), `["stripe"]`)
	s.addGsmRecord("stripe", "3DS_REQUIRED", "authentication required", "do_default", true)

	s.sim.Script("stripe", declineOutcome("3DS_REQUIRED", "authentication required"))

	req := s.authorizeRequest("stripe")
	req.AuthenticationType = models.AuthenticationTypeThreeDs
	response, err := s.service.Authorize(s.ctx, req)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.IntentStatusFailed, response.Status)
	assert.Equal(s.T(), []string{"stripe"}, s.sim.Invocations())
	assert.Equal(s.T(), 0, s.counters.payment)
}

// Budget exhausted: one retry allowed, both connectors decline, the
// exhausted counter moves exactly once
func (s *RetryOrchestratorTestSuite) TestRetryBudgetExhausted() {
	s.enableGsm()
	s.setRetries("1")
	s.addGsmRecord("stripe", "DECLINED_DO_RETRY", "card was declined", "retry", false)
	s.addGsmRecord("adyen", "DECLINED_DO_RETRY", "card was declined", "retry", false)

	s.sim.Script("stripe", declineOutcome("DECLINED_DO_RETRY", "card was declined"))
	s.sim.Script("adyen", declineOutcome("DECLINED_DO_RETRY", "card was declined"))

	response, err := s.service.Authorize(s.ctx, s.authorizeRequest("stripe", "adyen", "checkout"))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.IntentStatusFailed, response.Status)
	assert.Equal(s.T(), []string{"stripe", "adyen"}, s.sim.Invocations())

	attempts, err := s.store.Attempts().ListByPaymentID(s.ctx, testPayment, testMerchant)
	require.NoError(s.T(), err)
	require.Len(s.T(), attempts, 2)
	for _, attempt := range attempts {
		assert.Equal(s.T(), models.AttemptStatusFailure, attempt.Status)
	}
	assert.Equal(s.T(), 1, s.counters.exhausted)
}

// A retry budget larger than the shortlist stops on connector exhaustion
func (s *RetryOrchestratorTestSuite) TestConnectorListExhausted() {
	s.enableGsm()
	s.setRetries("10")
	for _, name := range []string{"stripe", "adyen", "checkout"} {
		s.addGsmRecord(name, "DECLINED_DO_RETRY", "card was declined", "retry", false)
		s.sim.Script(name, declineOutcome("DECLINED_DO_RETRY", "card was declined"))
	}

	response, err := s.service.Authorize(s.ctx, s.authorizeRequest("stripe", "adyen", "checkout"))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.IntentStatusFailed, response.Status)
	assert.Len(s.T(), s.sim.Invocations(), 3)
	assert.Equal(s.T(), 1, s.counters.exhausted)
}

// A budget of two against a five-deep shortlist caps at three invocations
func (s *RetryOrchestratorTestSuite) TestRetryBudgetCapsInvocations() {
	s.enableGsm()
	s.setRetries("2")
	connectors := []string{"stripe", "adyen", "checkout", "worldpay", "braintree"}
	for _, name := range connectors {
		s.addGsmRecord(name, "DECLINED_DO_RETRY", "card was declined", "retry", false)
		s.sim.Script(name, declineOutcome("DECLINED_DO_RETRY", "card was declined"))
	}

	_, err := s.service.Authorize(s.ctx, s.authorizeRequest(connectors...))
	require.NoError(s.T(), err)

	assert.Len(s.T(), s.sim.Invocations(), 3)
	assert.Equal(s.T(), 1, s.counters.exhausted)
}

// DoDefault terminates without retrying regardless of budget
func (s *RetryOrchestratorTestSuite) TestDoDefaultNeverRetries() {
	s.enableGsm()
	s.setRetries("10")
	s.addGsmRecord("stripe", "HARD_DECLINE", "card stolen", "do_default", false)

	s.sim.Script("stripe", declineOutcome("HARD_DECLINE", "card stolen"))

	response, err := s.service.Authorize(s.ctx, s.authorizeRequest("stripe", "adyen"))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.IntentStatusFailed, response.Status)
	assert.Equal(s.T(), []string{"stripe"}, s.sim.Invocations())
	assert.Equal(s.T(), 0, s.counters.payment)
	assert.Equal(s.T(), 1, s.counters.gsmMatch)
}

// Requeue is not implemented: the request fails but the initial attempt's
// failure is still on record and no new attempt exists
func (s *RetryOrchestratorTestSuite) TestRequeueSurfacesNotImplemented() {
	s.enableGsm()
	s.addGsmRecord("stripe", "QUEUE_ME", "processor busy", "requeue", false)

	s.sim.Script("stripe", declineOutcome("QUEUE_ME", "processor busy"))

	_, err := s.service.Authorize(s.ctx, s.authorizeRequest("stripe", "adyen"))
	require.Error(s.T(), err)
	assert.True(s.T(), errors.IsType(err, errors.ErrorTypeNotImplemented))

	attempts, listErr := s.store.Attempts().ListByPaymentID(s.ctx, testPayment, testMerchant)
	require.NoError(s.T(), listErr)
	require.Len(s.T(), attempts, 1)
	assert.Equal(s.T(), models.AttemptStatusFailure, attempts[0].Status)
	require.NotNil(s.T(), attempts[0].ErrorCode)
	assert.Equal(s.T(), "QUEUE_ME", *attempts[0].ErrorCode)
}

// Without the merchant toggle no retry evaluation happens at all
func (s *RetryOrchestratorTestSuite) TestGsmToggleOffSkipsRetries() {
	s.setRetries("5")
	s.addGsmRecord("stripe", "DECLINED_DO_RETRY", "card was declined", "retry", false)

	s.sim.Script("stripe", declineOutcome("DECLINED_DO_RETRY", "card was declined"))

	response, err := s.service.Authorize(s.ctx, s.authorizeRequest("stripe", "adyen"))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.IntentStatusFailed, response.Status)
	assert.Equal(s.T(), []string{"stripe"}, s.sim.Invocations())
	assert.Equal(s.T(), 0, s.counters.eligible)
}

// Without a configured budget the first retry decision exhausts immediately
func (s *RetryOrchestratorTestSuite) TestMissingRetryConfigMeansNoBudget() {
	s.enableGsm()
	s.addGsmRecord("stripe", "DECLINED_DO_RETRY", "card was declined", "retry", false)

	s.sim.Script("stripe", declineOutcome("DECLINED_DO_RETRY", "card was declined"))

	response, err := s.service.Authorize(s.ctx, s.authorizeRequest("stripe", "adyen"))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.IntentStatusFailed, response.Status)
	assert.Equal(s.T(), []string{"stripe"}, s.sim.Invocations())
	assert.Equal(s.T(), 1, s.counters.exhausted)
}

// Attempt counts stay strictly increasing and gap-free across retries
func (s *RetryOrchestratorTestSuite) TestAttemptCountMonotonicity() {
	s.enableGsm()
	s.setRetries("3")
	connectors := []string{"stripe", "adyen", "checkout", "worldpay"}
	for _, name := range connectors {
		s.addGsmRecord(name, "DECLINED_DO_RETRY", "card was declined", "retry", false)
		s.sim.Script(name, declineOutcome("DECLINED_DO_RETRY", "card was declined"))
	}

	_, err := s.service.Authorize(s.ctx, s.authorizeRequest(connectors...))
	require.NoError(s.T(), err)

	intent, err := s.store.FindByID(s.ctx, testPayment, testMerchant)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int16(4), intent.AttemptCount)
	assert.Equal(s.T(), models.DeriveAttemptID(testPayment, 4), intent.ActiveAttemptID)

	attempts, err := s.store.Attempts().ListByPaymentID(s.ctx, testPayment, testMerchant)
	require.NoError(s.T(), err)
	require.Len(s.T(), attempts, 4)
	for i, attempt := range attempts {
		assert.Equal(s.T(), models.DeriveAttemptID(testPayment, int16(i+1)), attempt.AttemptID)
	}
}

// A duplicate payment id is terminal for the second request
func (s *RetryOrchestratorTestSuite) TestDuplicatePaymentID() {
	s.sim.Script("stripe", successOutcome("txn_1"), successOutcome("txn_2"))

	_, err := s.service.Authorize(s.ctx, s.authorizeRequest("stripe"))
	require.NoError(s.T(), err)

	_, err = s.service.Authorize(s.ctx, s.authorizeRequest("stripe"))
	require.Error(s.T(), err)
	assert.True(s.T(), errors.IsType(err, errors.ErrorTypeDuplicate))
}
