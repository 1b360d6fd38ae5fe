package connector

import (
	"payment-router/internal/models"
	"payment-router/pkg/money"
)

// ConnectorData identifies the upstream processor an invocation targets
type ConnectorData struct {
	ConnectorName       string `json:"connector_name"`
	MerchantConnectorID string `json:"merchant_connector_id"`
}

// ErrorResponse is the normalized failure a connector invocation yields.
// Code and Message key the gateway status mapping lookup.
type ErrorResponse struct {
	Code                   string  `json:"code"`
	Message                string  `json:"message"`
	Reason                 *string `json:"reason,omitempty"`
	ConnectorTransactionID *string `json:"connector_transaction_id,omitempty"`
	StatusCode             int     `json:"status_code,omitempty"`
}

// TransactionResponse is the normalized success payload of an invocation
type TransactionResponse struct {
	ConnectorTransactionID string  `json:"connector_transaction_id"`
	ConnectorMetadata      *string `json:"connector_metadata,omitempty"`
	RedirectionData        *string `json:"redirection_data,omitempty"`
	NetworkTransactionID   *string `json:"network_transaction_id,omitempty"`
	MandateReference       *string `json:"mandate_reference,omitempty"`
}

// RouterData is the state a single connector invocation carries through the
// core: the prepared request, the observed outcome, and the attempt fields
// the response mapper consumes.
type RouterData struct {
	Flow               models.Flow
	MerchantID         string
	PaymentID          string
	AttemptID          string
	Connector          string
	Status             models.AttemptStatus
	AuthType           models.AuthenticationType
	Amount             money.MinorUnit
	Currency           money.Currency
	RequestPayload     map[string]interface{}
	Response           *TransactionResponse
	Error              *ErrorResponse
	PaymentMethodData  *string
	EncodedData        *string
}

// IsSuccess returns true when the invocation produced a transaction response
func (r *RouterData) IsSuccess() bool {
	return r.Error == nil && r.Response != nil
}

// ErrorCode returns the connector error code, or empty when none
func (r *RouterData) ErrorCode() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// ErrorMessage returns the connector error message, or empty when none
func (r *RouterData) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}

// ShouldCallGsm reports whether this outcome qualifies for a gateway status
// mapping evaluation: any response-layer error, or a terminal failure
// attempt status. Successes and in-progress statuses never do.
func (r *RouterData) ShouldCallGsm() bool {
	if r.Error != nil {
		return true
	}
	return r.Status.ShouldCallGsm()
}
