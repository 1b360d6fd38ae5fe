package connector

import (
	"context"
	"fmt"
	"sync"

	"payment-router/internal/models"
	"payment-router/pkg/logger"
)

// ScriptedOutcome is one pre-programmed invocation result for the simulator
type ScriptedOutcome struct {
	Status    models.AttemptStatus
	Response  *TransactionResponse
	Error     *ErrorResponse
	InvokeErr error
}

// Simulator is a Dispatcher that replays scripted outcomes per connector.
// It backs the local development profile and the orchestrator tests.
type Simulator struct {
	mu       sync.Mutex
	scripts  map[string][]ScriptedOutcome
	invoked  []string
	logger   *logger.Logger
}

// NewSimulator creates an empty simulator
func NewSimulator(logger *logger.Logger) *Simulator {
	return &Simulator{
		scripts: make(map[string][]ScriptedOutcome),
		logger:  logger,
	}
}

// Script queues outcomes for a connector; each invocation consumes one
func (s *Simulator) Script(connectorName string, outcomes ...ScriptedOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[connectorName] = append(s.scripts[connectorName], outcomes...)
}

// Invocations returns the connector names invoked so far, in order
func (s *Simulator) Invocations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, len(s.invoked))
	copy(result, s.invoked)
	return result
}

func (s *Simulator) Invoke(ctx context.Context, connector ConnectorData, input *RouterData) (*RouterData, error) {
	s.mu.Lock()
	queue := s.scripts[connector.ConnectorName]
	if len(queue) == 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("no scripted outcome for connector %s", connector.ConnectorName)
	}
	outcome := queue[0]
	s.scripts[connector.ConnectorName] = queue[1:]
	s.invoked = append(s.invoked, connector.ConnectorName)
	s.mu.Unlock()

	if outcome.InvokeErr != nil {
		return nil, outcome.InvokeErr
	}

	output := *input
	output.Connector = connector.ConnectorName
	output.Status = outcome.Status
	output.Response = outcome.Response
	output.Error = outcome.Error

	s.logger.Debug("Simulated connector invocation",
		"connector", connector.ConnectorName,
		"payment_id", input.PaymentID,
		"status", output.Status,
	)

	return &output, nil
}
