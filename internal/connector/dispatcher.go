package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"payment-router/internal/config"
	"payment-router/internal/models"
	"payment-router/pkg/concurrency"
	"payment-router/pkg/errors"
	"payment-router/pkg/logger"
)

// timeoutErrorCode feeds the gateway status mapping like any connector code
const timeoutErrorCode = "CONNECTOR_TIMEOUT"

// Dispatcher performs a single outbound connector invocation. It is a pure
// I/O boundary: it never consults the gateway status mapping, never writes
// the repository, and never retries at the payment level.
type Dispatcher interface {
	Invoke(ctx context.Context, connector ConnectorData, input *RouterData) (*RouterData, error)
}

// httpDispatcher posts the prepared request to the connector adapter
// endpoint and normalizes the response
type httpDispatcher struct {
	cfg    *config.ConnectorConfig
	client *http.Client
	retry  *concurrency.RetryConfig
	logger *logger.Logger
}

// NewHTTPDispatcher creates a dispatcher over the connector adapter service
func NewHTTPDispatcher(cfg *config.ConnectorConfig, logger *logger.Logger) Dispatcher {
	return &httpDispatcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.InvokeTimeout,
		},
		retry: &concurrency.RetryConfig{
			MaxAttempts:   cfg.TransportRetry,
			InitialDelay:  100 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 2.0,
		},
		logger: logger,
	}
}

// invocationResult is the adapter's wire shape for a normalized outcome
type invocationResult struct {
	Status   models.AttemptStatus `json:"status"`
	AuthType *models.AuthenticationType `json:"authentication_type,omitempty"`
	Response *TransactionResponse `json:"response,omitempty"`
	Error    *ErrorResponse       `json:"error,omitempty"`
}

func (d *httpDispatcher) Invoke(ctx context.Context, connector ConnectorData, input *RouterData) (*RouterData, error) {
	d.logger.Debug("Invoking connector",
		"connector", connector.ConnectorName,
		"flow", input.Flow,
		"payment_id", input.PaymentID,
		"attempt_id", input.AttemptID,
	)

	ctx, cancel := context.WithTimeout(ctx, d.cfg.InvokeTimeout)
	defer cancel()

	body, err := json.Marshal(input.RequestPayload)
	if err != nil {
		return nil, errors.NewParsingError("failed to encode connector request", err)
	}

	url := fmt.Sprintf("%s/connectors/%s/%s", d.cfg.BaseURL, connector.ConnectorName, input.Flow)

	var result invocationResult
	err = concurrency.RetryWithBackoff(ctx, d.retry, func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return false, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			// Transport failures are retryable at this layer
			return true, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return true, fmt.Errorf("connector adapter returned %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return false, err
		}
		return false, nil
	}, d.logger)

	output := *input
	output.Connector = connector.ConnectorName

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			// A timed-out call surfaces as a structured error and feeds the
			// gateway status mapping like any other decline
			reason := err.Error()
			output.Status = models.AttemptStatusFailure
			output.Response = nil
			output.Error = &ErrorResponse{
				Code:    timeoutErrorCode,
				Message: "connector invocation timed out",
				Reason:  &reason,
			}
			return &output, nil
		}
		return nil, errors.NewConnectorError("CONNECTOR_UNREACHABLE", "connector invocation failed").WithCause(err)
	}

	output.Status = result.Status
	if result.AuthType != nil {
		output.AuthType = *result.AuthType
	}
	output.Response = result.Response
	output.Error = result.Error

	d.logger.Debug("Connector invocation completed",
		"connector", connector.ConnectorName,
		"payment_id", input.PaymentID,
		"attempt_id", input.AttemptID,
		"status", output.Status,
		"success", output.IsSuccess(),
	)

	return &output, nil
}
