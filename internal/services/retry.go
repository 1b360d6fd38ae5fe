package services

import (
	"context"
	"encoding/json"
	"strconv"

	"payment-router/internal/connector"
	"payment-router/internal/gsm"
	"payment-router/internal/metrics"
	"payment-router/internal/models"
	"payment-router/internal/repository"
	"payment-router/pkg/errors"
	"payment-router/pkg/logger"
)

// RetryOrchestrator drives the auto-retry state machine over a completed
// connector invocation: evaluate the gateway status mapping, step up
// authentication when possible, walk the connector shortlist until the
// budget or the list runs out, and keep the persisted attempt and intent
// rows in lockstep with every iteration.
type RetryOrchestrator struct {
	intentRepo  repository.PaymentIntentRepository
	attemptRepo repository.PaymentAttemptRepository
	configRepo  repository.ConfigRepository
	gsmStore    *gsm.Store
	dispatcher  connector.Dispatcher
	counters    metrics.Counters
	logger      *logger.Logger
}

// NewRetryOrchestrator creates a new retry orchestrator
func NewRetryOrchestrator(
	intentRepo repository.PaymentIntentRepository,
	attemptRepo repository.PaymentAttemptRepository,
	configRepo repository.ConfigRepository,
	gsmStore *gsm.Store,
	dispatcher connector.Dispatcher,
	counters metrics.Counters,
	logger *logger.Logger,
) *RetryOrchestrator {
	return &RetryOrchestrator{
		intentRepo:  intentRepo,
		attemptRepo: attemptRepo,
		configRepo:  configRepo,
		gsmStore:    gsmStore,
		dispatcher:  dispatcher,
		counters:    counters,
		logger:      logger,
	}
}

// DoGsmActions runs the retry decision loop. connectors is the remaining
// shortlist in caller order; originalConnector handled the invocation that
// produced routerData. The returned router data is the outcome of the last
// invocation; its attempt is data.Attempt and is not yet terminally
// persisted — that is the caller's final step.
func (o *RetryOrchestrator) DoGsmActions(
	ctx context.Context,
	data *PaymentData,
	connectors []connector.ConnectorData,
	originalConnector connector.ConnectorData,
	routerData *connector.RouterData,
	op FlowOperation,
) (*connector.RouterData, error) {
	if !routerData.ShouldCallGsm() {
		return routerData, nil
	}

	o.counters.IncAutoRetryEligible()

	var retries *int

	initialGsm, err := o.getGsm(ctx, routerData)
	if err != nil {
		return nil, err
	}

	// Step-up to 3DS is evaluated before any standard retry and has its own
	// gate: the mapping must allow it, the failed attempt must be no-3DS,
	// and the merchant must have enabled the connector
	stepUpPossible := initialGsm != nil && initialGsm.StepUpPossible
	isNoThreeDs := data.Attempt.AuthenticationType == models.AuthenticationTypeNoThreeDs
	shouldStepUp := false
	if stepUpPossible && isNoThreeDs {
		shouldStepUp = o.isStepUpEnabled(ctx, data.Intent.MerchantID, originalConnector.ConnectorName)
	}

	if shouldStepUp {
		routerData, err = o.doRetry(ctx, data, originalConnector, routerData, op, true)
		if err != nil {
			return nil, err
		}
		// The step-up consumed the initial mapping; the standard loop below
		// re-evaluates the fresh outcome
		initialGsm = nil
	}

	for {
		gsmRecord := initialGsm
		if gsmRecord == nil {
			gsmRecord, err = o.getGsm(ctx, routerData)
			if err != nil {
				return nil, err
			}
		}
		initialGsm = nil

		switch o.getGsmDecision(gsmRecord) {
		case models.GsmDecisionRetry:
			if retries == nil {
				retries = o.getRetries(ctx, data.Intent.MerchantID)
			}
			if retries == nil || *retries == 0 {
				o.counters.IncAutoRetryExhausted()
				o.logger.Info("Retries exhausted for auto retry payment",
					"payment_id", data.Intent.PaymentID,
					"attempt_id", data.Attempt.AttemptID,
				)
				return routerData, nil
			}
			if len(connectors) == 0 {
				o.counters.IncAutoRetryExhausted()
				o.logger.Info("Connectors exhausted for auto retry payment",
					"payment_id", data.Intent.PaymentID,
					"attempt_id", data.Attempt.AttemptID,
				)
				return routerData, nil
			}

			next := connectors[0]
			connectors = connectors[1:]

			routerData, err = o.doRetry(ctx, data, next, routerData, op, false)
			if err != nil {
				return nil, err
			}
			*retries = *retries - 1

		case models.GsmDecisionRequeue:
			// The connector outcome is never dropped: the current attempt's
			// failure goes on record before the decision surfaces
			if routerData.Error != nil {
				update := op.ErrorUpdate(routerData, gsmRecord, data)
				if _, updateErr := o.attemptRepo.Update(ctx, data.Attempt.AttemptID, update); updateErr != nil {
					return nil, updateErr
				}
			}
			return nil, errors.NewNotImplementedError("Requeue not implemented")

		default:
			return routerData, nil
		}
	}
}

// doRetry performs one retry iteration: persist the prior attempt's terminal
// outcome, insert the next attempt, advance the intent pointer, and invoke
// the chosen connector through the operation.
func (o *RetryOrchestrator) doRetry(
	ctx context.Context,
	data *PaymentData,
	conn connector.ConnectorData,
	routerData *connector.RouterData,
	op FlowOperation,
	isStepUp bool,
) (*connector.RouterData, error) {
	o.counters.IncAutoRetryPayment()

	if err := o.modifyTrackers(ctx, data, conn.ConnectorName, routerData, op, isStepUp); err != nil {
		return nil, err
	}

	input, err := op.BuildRequest(data)
	if err != nil {
		return nil, err
	}

	o.logger.Info("Retrying payment on connector",
		"payment_id", data.Intent.PaymentID,
		"attempt_id", data.Attempt.AttemptID,
		"connector", conn.ConnectorName,
		"attempt_count", data.Intent.AttemptCount,
		"step_up", isStepUp,
	)

	return o.dispatcher.Invoke(ctx, conn, input)
}

// modifyTrackers applies the retry iteration's write discipline: terminal
// update of the current attempt first, then the new attempt insert, then the
// intent pointer advance. The terminal update is authoritative; a duplicate
// on the insert aborts the request.
func (o *RetryOrchestrator) modifyTrackers(
	ctx context.Context,
	data *PaymentData,
	connectorName string,
	routerData *connector.RouterData,
	op FlowOperation,
	isStepUp bool,
) error {
	newAttemptCount := data.Intent.AttemptCount + 1
	newAttempt := models.NewAttemptForRetry(data.Attempt, connectorName, newAttemptCount, isStepUp)

	switch {
	case routerData.IsSuccess():
		update := op.SuccessUpdate(routerData, data)
		if _, err := o.attemptRepo.Update(ctx, data.Attempt.AttemptID, update); err != nil {
			return err
		}
	case routerData.Error != nil:
		gsmRecord, err := o.getGsm(ctx, routerData)
		if err != nil {
			return err
		}
		update := op.ErrorUpdate(routerData, gsmRecord, data)
		if _, err := o.attemptRepo.Update(ctx, data.Attempt.AttemptID, update); err != nil {
			return err
		}
	default:
		o.logger.Error("Unexpected connector response in retry flow",
			"payment_id", data.Intent.PaymentID,
			"attempt_id", data.Attempt.AttemptID,
		)
		return nil
	}

	inserted, err := o.attemptRepo.Insert(ctx, newAttempt)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeDuplicate) {
			return errors.NewDuplicatePaymentError(data.Intent.PaymentID)
		}
		return err
	}
	data.Attempt = inserted

	intent, err := o.intentRepo.Update(ctx, data.Intent.PaymentID, data.Intent.MerchantID,
		models.IntentAttemptAndCountUpdate{
			ActiveAttemptID: inserted.AttemptID,
			AttemptCount:    newAttemptCount,
			UpdatedBy:       data.Merchant.StorageScheme,
		})
	if err != nil {
		return err
	}
	data.Intent = intent

	return nil
}

// getGsm looks up the gateway status mapping for a failed invocation. A
// successful invocation has no mapping.
func (o *RetryOrchestrator) getGsm(ctx context.Context, routerData *connector.RouterData) (*models.GsmRecord, error) {
	if routerData.Error == nil {
		return nil, nil
	}
	return o.gsmStore.Lookup(ctx,
		routerData.Connector,
		string(routerData.Flow),
		routerData.Error.Code,
		routerData.Error.Message,
	)
}

// getGsmDecision extracts the routing decision from a mapping; no mapping or
// an unparsable decision defaults to do_default
func (o *RetryOrchestrator) getGsmDecision(record *models.GsmRecord) models.GsmDecision {
	if record == nil {
		return models.GsmDecisionDoDefault
	}
	decision, ok := record.ParsedDecision()
	if !ok {
		o.logger.Warn("Gsm decision parsing failed",
			"connector", record.Connector,
			"decision", record.Decision,
		)
		return models.GsmDecisionDoDefault
	}
	o.counters.IncAutoRetryGsmMatch()
	return decision
}

// getRetries loads the merchant's retry budget lazily on the first Retry
// decision. A missing or unparsable config means no budget.
func (o *RetryOrchestrator) getRetries(ctx context.Context, merchantID string) *int {
	config, err := o.configRepo.FindByKey(ctx, models.MaxAutoRetriesKey(merchantID))
	if err != nil {
		o.logger.Error("Failed to load max auto retries config", "error", err, "merchant_id", merchantID)
		return nil
	}
	retries, err := strconv.Atoi(config.Value)
	if err != nil || retries < 0 {
		o.logger.Error("Retries config parsing failed", "error", err, "merchant_id", merchantID, "value", config.Value)
		return nil
	}
	return &retries
}

// isStepUpEnabled checks the merchant's step-up connector allow-list. Parse
// failures turn the feature off.
func (o *RetryOrchestrator) isStepUpEnabled(ctx context.Context, merchantID, connectorName string) bool {
	value, err := o.configRepo.FindByKeyUnwrapOr(ctx, models.StepUpEnabledKey(merchantID), "[]")
	if err != nil {
		o.logger.Error("Failed to load step up config", "error", err, "merchant_id", merchantID)
		return false
	}
	var enabled []string
	if err := json.Unmarshal([]byte(value), &enabled); err != nil {
		o.logger.Error("Step up config parsing failed", "error", err, "merchant_id", merchantID)
		return false
	}
	for _, name := range enabled {
		if name == connectorName {
			return true
		}
	}
	return false
}

// ShouldCallGsmForMerchant is the merchant-level toggle for the whole retry
// evaluation; it defaults off and fails closed on errors
func (o *RetryOrchestrator) ShouldCallGsmForMerchant(ctx context.Context, merchantID string) bool {
	value, err := o.configRepo.FindByKeyUnwrapOr(ctx, models.ShouldCallGsmKey(merchantID), "false")
	if err != nil {
		o.logger.Error("Failed to load should call gsm config", "error", err, "merchant_id", merchantID)
		return false
	}
	return value == "true"
}
