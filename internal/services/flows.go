package services

import (
	"payment-router/internal/connector"
	"payment-router/internal/models"
	"payment-router/pkg/errors"
	"payment-router/pkg/money"
)

// baseOperation carries the behavior every flow shares; concrete flows embed
// it and override what differs
type baseOperation struct {
	flow models.Flow
}

func (b baseOperation) Flow() models.Flow {
	return b.flow
}

func (b baseOperation) BuildRequest(data *PaymentData) (*connector.RouterData, error) {
	if data.Intent == nil || data.Attempt == nil {
		return nil, errors.NewValidationError("payment data is incomplete")
	}

	// Connectors consume major-unit string amounts alongside the minor unit;
	// the adapter picks the representation each processor demands
	majorAmount, err := money.StringMajorUnitForConnector{}.Convert(data.Attempt.Amount, data.Attempt.Currency)
	if err != nil {
		return nil, errors.NewParsingError("failed to convert amount for connector", err)
	}

	payload := map[string]interface{}{
		"payment_id":          data.Intent.PaymentID,
		"attempt_id":          data.Attempt.AttemptID,
		"amount":              data.Attempt.Amount,
		"amount_major":        majorAmount.String(),
		"currency":            data.Attempt.Currency,
		"authentication_type": data.Attempt.AuthenticationType,
		"capture_method":      data.Attempt.CaptureMethod,
	}
	if data.Attempt.PaymentMethodData != nil {
		payload["payment_method_data"] = *data.Attempt.PaymentMethodData
	}
	if data.Attempt.ConnectorTransactionID != nil {
		payload["connector_transaction_id"] = *data.Attempt.ConnectorTransactionID
	}

	return &connector.RouterData{
		Flow:              b.flow,
		MerchantID:        data.Intent.MerchantID,
		PaymentID:         data.Intent.PaymentID,
		AttemptID:         data.Attempt.AttemptID,
		Connector:         data.Attempt.Connector,
		Status:            data.Attempt.Status,
		AuthType:          data.Attempt.AuthenticationType,
		Amount:            data.Attempt.Amount,
		Currency:          data.Attempt.Currency,
		RequestPayload:    payload,
		PaymentMethodData: data.Attempt.PaymentMethodData,
		EncodedData:       data.Attempt.EncodedData,
	}, nil
}

func (b baseOperation) SuccessUpdate(rd *connector.RouterData, data *PaymentData) models.AttemptResponseUpdate {
	update := models.AttemptResponseUpdate{
		Status:            rd.Status,
		EncodedData:       data.Attempt.EncodedData,
		PaymentMethodData: rd.PaymentMethodData,
		UpdatedBy:         data.Merchant.StorageScheme,
	}
	if rd.Response != nil {
		if rd.Response.ConnectorTransactionID != "" {
			id := rd.Response.ConnectorTransactionID
			update.ConnectorTransactionID = &id
		}
		update.ConnectorMetadata = rd.Response.ConnectorMetadata
		update.AuthenticationData = rd.Response.RedirectionData
	}
	if rd.Status.IsTerminal() {
		zero := money.ZeroMinorUnit()
		update.AmountCapturable = &zero
	}
	return update
}

func (b baseOperation) ErrorUpdate(rd *connector.RouterData, gsm *models.GsmRecord, data *PaymentData) models.AttemptErrorUpdate {
	update := models.AttemptErrorUpdate{
		Status:            models.AttemptStatusFailure,
		PaymentMethodData: rd.PaymentMethodData,
		UpdatedBy:         data.Merchant.StorageScheme,
	}
	if rd.Error != nil {
		code := rd.Error.Code
		message := rd.Error.Message
		update.ErrorCode = &code
		update.ErrorMessage = &message
		update.ErrorReason = rd.Error.Reason
		update.ConnectorTransactionID = rd.Error.ConnectorTransactionID
	}
	if gsm != nil {
		update.UnifiedCode = gsm.UnifiedCode
		update.UnifiedMessage = gsm.UnifiedMessage
	}
	// The authentication type may only move upward: a connector-observed 3DS
	// on a no-3DS attempt is recorded, a downgrade never is
	if rd.AuthType == models.AuthenticationTypeThreeDs && data.Attempt.AuthenticationType != models.AuthenticationTypeThreeDs {
		authType := rd.AuthType
		update.AuthenticationType = &authType
	}
	return update
}

func (b baseOperation) IntentStatus(status models.AttemptStatus) models.IntentStatus {
	switch status {
	case models.AttemptStatusCharged, models.AttemptStatusAutoRefunded:
		return models.IntentStatusSucceeded
	case models.AttemptStatusPartialCharged:
		return models.IntentStatusPartiallyCaptured
	case models.AttemptStatusAuthorized:
		return models.IntentStatusRequiresCapture
	case models.AttemptStatusVoided:
		return models.IntentStatusCancelled
	case models.AttemptStatusAuthenticationPending, models.AttemptStatusDeviceDataCollectionPending:
		return models.IntentStatusRequiresCustomerAction
	case models.AttemptStatusAuthenticationFailed,
		models.AttemptStatusAuthorizationFailed,
		models.AttemptStatusCaptureFailed,
		models.AttemptStatusRouterDeclined,
		models.AttemptStatusFailure:
		return models.IntentStatusFailed
	default:
		return models.IntentStatusProcessing
	}
}

// authorizeOperation executes the Authorize flow
type authorizeOperation struct {
	baseOperation
}

// NewAuthorizeOperation creates the Authorize flow operation
func NewAuthorizeOperation() FlowOperation {
	return authorizeOperation{baseOperation{flow: models.FlowAuthorize}}
}

// captureOperation executes the Capture flow
type captureOperation struct {
	baseOperation
}

// NewCaptureOperation creates the Capture flow operation
func NewCaptureOperation() FlowOperation {
	return captureOperation{baseOperation{flow: models.FlowCapture}}
}

// voidOperation executes the Void flow
type voidOperation struct {
	baseOperation
}

// NewVoidOperation creates the Void flow operation
func NewVoidOperation() FlowOperation {
	return voidOperation{baseOperation{flow: models.FlowVoid}}
}

// refundOperation executes the Refund flow
type refundOperation struct {
	baseOperation
	amount *money.MinorUnit
}

// NewRefundOperation creates the Refund flow operation. A nil amount refunds
// the full attempt amount.
func NewRefundOperation(amount *money.MinorUnit) FlowOperation {
	return refundOperation{baseOperation: baseOperation{flow: models.FlowRefund}, amount: amount}
}

func (r refundOperation) BuildRequest(data *PaymentData) (*connector.RouterData, error) {
	rd, err := r.baseOperation.BuildRequest(data)
	if err != nil {
		return nil, err
	}
	refundAmount := data.Attempt.Amount
	if r.amount != nil {
		if r.amount.Int64() > data.Attempt.Amount.Int64() {
			return nil, errors.NewValidationError("refund amount exceeds the attempt amount")
		}
		refundAmount = *r.amount
	}
	rd.RequestPayload["refund_amount"] = refundAmount
	return rd, nil
}

// psyncOperation executes the payment sync flow
type psyncOperation struct {
	baseOperation
}

// NewPSyncOperation creates the PSync flow operation
func NewPSyncOperation() FlowOperation {
	return psyncOperation{baseOperation{flow: models.FlowPSync}}
}

func (p psyncOperation) BuildRequest(data *PaymentData) (*connector.RouterData, error) {
	rd, err := p.baseOperation.BuildRequest(data)
	if err != nil {
		return nil, err
	}
	if data.Attempt.ConnectorTransactionID == nil {
		return nil, errors.NewValidationError("attempt has no connector transaction to sync")
	}
	return rd, nil
}

// setupMandateOperation executes the SetupMandate flow
type setupMandateOperation struct {
	baseOperation
}

// NewSetupMandateOperation creates the SetupMandate flow operation
func NewSetupMandateOperation() FlowOperation {
	return setupMandateOperation{baseOperation{flow: models.FlowSetupMandate}}
}

func (s setupMandateOperation) SuccessUpdate(rd *connector.RouterData, data *PaymentData) models.AttemptResponseUpdate {
	update := s.baseOperation.SuccessUpdate(rd, data)
	if rd.Response != nil && rd.Response.MandateReference != nil {
		update.ConnectorMetadata = rd.Response.MandateReference
	}
	return update
}
