package services

import (
	"context"
	"fmt"
	"time"

	"payment-router/internal/connector"
	"payment-router/internal/gsm"
	"payment-router/internal/models"
	"payment-router/internal/repository"
	"payment-router/pkg/errors"
	"payment-router/pkg/logger"
	"payment-router/pkg/money"

	"github.com/google/uuid"
)

// defaultStorageScheme tags every write with the storage backend that made it
const defaultStorageScheme = "postgres_only"

// paymentService implements PaymentService
type paymentService struct {
	intentRepo   repository.PaymentIntentRepository
	attemptRepo  repository.PaymentAttemptRepository
	gsmStore     *gsm.Store
	dispatcher   connector.Dispatcher
	orchestrator *RetryOrchestrator
	logger       *logger.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	intentRepo repository.PaymentIntentRepository,
	attemptRepo repository.PaymentAttemptRepository,
	gsmStore *gsm.Store,
	dispatcher connector.Dispatcher,
	orchestrator *RetryOrchestrator,
	logger *logger.Logger,
) PaymentService {
	return &paymentService{
		intentRepo:   intentRepo,
		attemptRepo:  attemptRepo,
		gsmStore:     gsmStore,
		dispatcher:   dispatcher,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func (s *paymentService) Authorize(ctx context.Context, req AuthorizeRequest) (*PaymentResponse, error) {
	return s.startPayment(ctx, req, NewAuthorizeOperation())
}

func (s *paymentService) SetupMandate(ctx context.Context, req AuthorizeRequest) (*PaymentResponse, error) {
	return s.startPayment(ctx, req, NewSetupMandateOperation())
}

// startPayment creates the intent and first attempt, invokes the first
// connector in the shortlist, and hands eligible failures to the retry
// orchestrator before persisting the final outcome.
func (s *paymentService) startPayment(ctx context.Context, req AuthorizeRequest, op FlowOperation) (*PaymentResponse, error) {
	if req.MerchantID == "" {
		return nil, errors.NewValidationError("merchant_id is required")
	}
	if len(req.Connectors) == 0 {
		return nil, errors.NewValidationError("at least one connector is required")
	}
	if req.Amount < 0 {
		return nil, errors.NewValidationError("amount must not be negative")
	}
	if op.Flow() == models.FlowAuthorize && req.Amount == 0 {
		return nil, errors.NewValidationError("amount must be greater than 0")
	}

	paymentID := req.PaymentID
	if paymentID == "" {
		paymentID = fmt.Sprintf("pay_%s", uuid.New().String())
	}
	authType := req.AuthenticationType
	if authType == "" {
		authType = models.AuthenticationTypeNoThreeDs
	}

	s.logger.Info("Starting payment",
		"flow", op.Flow(),
		"payment_id", paymentID,
		"merchant_id", req.MerchantID,
		"amount", req.Amount,
		"currency", req.Currency,
		"connector", req.Connectors[0],
	)

	now := time.Now().UTC()
	intent := &models.PaymentIntent{
		PaymentID:       paymentID,
		MerchantID:      req.MerchantID,
		Status:          models.IntentStatusProcessing,
		Amount:          money.NewMinorUnit(req.Amount),
		Currency:        req.Currency,
		AttemptCount:    1,
		ActiveAttemptID: models.DeriveAttemptID(paymentID, 1),
		ProfileID:       req.ProfileID,
		Description:     req.Description,
		ReturnURL:       req.ReturnURL,
		UpdatedBy:       defaultStorageScheme,
		CreatedAt:       now,
	}
	intent, err := s.intentRepo.Insert(ctx, intent)
	if err != nil {
		return nil, err
	}

	attempt := &models.PaymentAttempt{
		AttemptID:          intent.ActiveAttemptID,
		PaymentID:          paymentID,
		MerchantID:         req.MerchantID,
		Status:             models.AttemptStatusStarted,
		Connector:          req.Connectors[0],
		AuthenticationType: authType,
		Amount:             money.NewMinorUnit(req.Amount),
		Currency:           req.Currency,
		PaymentMethod:      req.PaymentMethod,
		PaymentMethodType:  req.PaymentMethodType,
		CaptureMethod:      req.CaptureMethod,
		ProfileID:          req.ProfileID,
		UpdatedBy:          defaultStorageScheme,
		CreatedAt:          now,
	}
	attempt, err = s.attemptRepo.Insert(ctx, attempt)
	if err != nil {
		return nil, err
	}

	data := &PaymentData{
		Intent:   intent,
		Attempt:  attempt,
		Merchant: &models.MerchantAccount{MerchantID: req.MerchantID, StorageScheme: defaultStorageScheme},
		Profile:  &models.BusinessProfile{ProfileID: req.ProfileID, MerchantID: req.MerchantID},
	}

	shortlist := make([]connector.ConnectorData, 0, len(req.Connectors))
	for _, name := range req.Connectors {
		shortlist = append(shortlist, connector.ConnectorData{ConnectorName: name})
	}

	return s.dispatchAndOrchestrate(ctx, data, op, shortlist)
}

// dispatchAndOrchestrate invokes the first connector, runs the retry loop
// when the merchant and the outcome qualify, and persists the final outcome.
func (s *paymentService) dispatchAndOrchestrate(
	ctx context.Context,
	data *PaymentData,
	op FlowOperation,
	shortlist []connector.ConnectorData,
) (*PaymentResponse, error) {
	input, err := op.BuildRequest(data)
	if err != nil {
		return nil, err
	}

	original := shortlist[0]
	routerData, err := s.dispatcher.Invoke(ctx, original, input)
	if err != nil {
		s.persistDispatchFailure(ctx, data, op, err)
		return nil, err
	}

	if s.orchestrator.ShouldCallGsmForMerchant(ctx, data.Intent.MerchantID) && routerData.ShouldCallGsm() {
		finalRd, gsmErr := s.orchestrator.DoGsmActions(ctx, data, shortlist[1:], original, routerData, op)
		if gsmErr != nil {
			return nil, gsmErr
		}
		routerData = finalRd
	}

	if err := s.persistFinalOutcome(ctx, data, routerData, op); err != nil {
		return nil, err
	}

	return s.toResponse(data), nil
}

// persistDispatchFailure records a hard transport failure on the attempt so
// the row never stays in an unknown state
func (s *paymentService) persistDispatchFailure(ctx context.Context, data *PaymentData, op FlowOperation, cause error) {
	appErr := errors.AsAppError(cause)
	code := "CONNECTOR_UNREACHABLE"
	message := appErr.Message
	update := models.AttemptErrorUpdate{
		Status:       models.AttemptStatusFailure,
		ErrorCode:    &code,
		ErrorMessage: &message,
		UpdatedBy:    data.Merchant.StorageScheme,
	}
	if _, err := s.attemptRepo.Update(ctx, data.Attempt.AttemptID, update); err != nil {
		s.logger.Error("Failed to persist dispatch failure", "error", err, "attempt_id", data.Attempt.AttemptID)
		return
	}
	s.updateIntentStatus(ctx, data, op.IntentStatus(models.AttemptStatusFailure))
}

// persistFinalOutcome terminally updates the last attempt with the final
// router data and moves the intent status accordingly
func (s *paymentService) persistFinalOutcome(ctx context.Context, data *PaymentData, routerData *connector.RouterData, op FlowOperation) error {
	var attempt *models.PaymentAttempt
	var err error

	if routerData.IsSuccess() {
		update := op.SuccessUpdate(routerData, data)
		attempt, err = s.attemptRepo.Update(ctx, data.Attempt.AttemptID, update)
	} else if routerData.Error != nil {
		var gsmRecord *models.GsmRecord
		gsmRecord, err = s.gsmStore.Lookup(ctx, routerData.Connector, string(routerData.Flow), routerData.Error.Code, routerData.Error.Message)
		if err != nil {
			return err
		}
		update := op.ErrorUpdate(routerData, gsmRecord, data)
		attempt, err = s.attemptRepo.Update(ctx, data.Attempt.AttemptID, update)
	} else {
		// In-progress outcome with no payload: keep the connector-reported
		// status on the attempt
		attempt, err = s.attemptRepo.Update(ctx, data.Attempt.AttemptID, models.AttemptStatusUpdate{
			Status:    routerData.Status,
			UpdatedBy: data.Merchant.StorageScheme,
		})
	}
	if err != nil {
		return err
	}
	data.Attempt = attempt

	s.updateIntentStatus(ctx, data, op.IntentStatus(attempt.Status))

	s.logger.Info("Payment operation completed",
		"flow", op.Flow(),
		"payment_id", data.Intent.PaymentID,
		"attempt_id", data.Attempt.AttemptID,
		"connector", data.Attempt.Connector,
		"attempt_count", data.Intent.AttemptCount,
		"status", data.Intent.Status,
	)
	return nil
}

func (s *paymentService) updateIntentStatus(ctx context.Context, data *PaymentData, status models.IntentStatus) {
	intent, err := s.intentRepo.Update(ctx, data.Intent.PaymentID, data.Intent.MerchantID, models.IntentStatusUpdate{
		Status:    status,
		UpdatedBy: data.Merchant.StorageScheme,
	})
	if err != nil {
		s.logger.Error("Failed to update intent status", "error", err, "payment_id", data.Intent.PaymentID)
		return
	}
	data.Intent = intent
}

func (s *paymentService) Capture(ctx context.Context, req OperationRequest) (*PaymentResponse, error) {
	return s.continuePayment(ctx, req.MerchantID, req.PaymentID, NewCaptureOperation(),
		models.IntentStatusRequiresCapture, models.IntentStatusPartiallyCaptured)
}

func (s *paymentService) Void(ctx context.Context, req OperationRequest) (*PaymentResponse, error) {
	return s.continuePayment(ctx, req.MerchantID, req.PaymentID, NewVoidOperation(),
		models.IntentStatusRequiresCapture, models.IntentStatusProcessing, models.IntentStatusRequiresCustomerAction)
}

func (s *paymentService) Refund(ctx context.Context, req RefundRequest) (*PaymentResponse, error) {
	var amount *money.MinorUnit
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, errors.NewValidationError("refund amount must be greater than 0")
		}
		value := money.NewMinorUnit(*req.Amount)
		amount = &value
	}
	return s.continuePayment(ctx, req.MerchantID, req.PaymentID, NewRefundOperation(amount),
		models.IntentStatusSucceeded, models.IntentStatusPartiallyCaptured)
}

func (s *paymentService) Sync(ctx context.Context, req OperationRequest) (*PaymentResponse, error) {
	return s.continuePayment(ctx, req.MerchantID, req.PaymentID, NewPSyncOperation())
}

// continuePayment drives a follow-up flow against the intent's active
// attempt on the connector that produced it. An empty allowedFrom set
// accepts any current status.
func (s *paymentService) continuePayment(
	ctx context.Context,
	merchantID, paymentID string,
	op FlowOperation,
	allowedFrom ...models.IntentStatus,
) (*PaymentResponse, error) {
	if merchantID == "" {
		return nil, errors.NewValidationError("merchant_id is required")
	}
	if paymentID == "" {
		return nil, errors.NewValidationError("payment_id is required")
	}

	intent, err := s.intentRepo.FindByID(ctx, paymentID, merchantID)
	if err != nil {
		return nil, err
	}
	if len(allowedFrom) > 0 {
		allowed := false
		for _, status := range allowedFrom {
			if intent.Status == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, errors.NewValidationError(
				fmt.Sprintf("payment in status %s cannot be processed by %s", intent.Status, op.Flow()))
		}
	}

	attempt, err := s.attemptRepo.FindByID(ctx, intent.ActiveAttemptID)
	if err != nil {
		return nil, err
	}

	data := &PaymentData{
		Intent:   intent,
		Attempt:  attempt,
		Merchant: &models.MerchantAccount{MerchantID: merchantID, StorageScheme: defaultStorageScheme},
		Profile:  &models.BusinessProfile{ProfileID: intent.ProfileID, MerchantID: merchantID},
	}

	shortlist := []connector.ConnectorData{{ConnectorName: attempt.Connector, MerchantConnectorID: attempt.MerchantConnectorID}}
	return s.dispatchAndOrchestrate(ctx, data, op, shortlist)
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID, merchantID string) (*PaymentResponse, error) {
	intent, err := s.intentRepo.FindByID(ctx, paymentID, merchantID)
	if err != nil {
		return nil, err
	}
	attempt, err := s.attemptRepo.FindByID(ctx, intent.ActiveAttemptID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(&PaymentData{Intent: intent, Attempt: attempt}), nil
}

func (s *paymentService) toResponse(data *PaymentData) *PaymentResponse {
	return &PaymentResponse{
		PaymentID:       data.Intent.PaymentID,
		MerchantID:      data.Intent.MerchantID,
		Status:          data.Intent.Status,
		Amount:          data.Intent.Amount,
		Currency:        data.Intent.Currency,
		AttemptCount:    data.Intent.AttemptCount,
		ActiveAttemptID: data.Intent.ActiveAttemptID,
		Connector:       data.Attempt.Connector,
		AttemptStatus:   data.Attempt.Status,
		ErrorCode:       data.Attempt.ErrorCode,
		ErrorMessage:    data.Attempt.ErrorMessage,
		UnifiedCode:     data.Attempt.UnifiedCode,
		UnifiedMessage:  data.Attempt.UnifiedMessage,
	}
}
