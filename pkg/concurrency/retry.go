package concurrency

import (
	"context"
	"fmt"
	"math"
	"time"

	"payment-router/pkg/logger"
)

// RetryConfig defines transport-level retry behavior. These retries cover
// transient I/O failures only and are distinct from the payment-level retry
// decisions the orchestrator makes.
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
}

// DefaultRetryConfig returns a sensible default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryableFunc is a function that can be retried. Returning retryable=false
// stops further attempts regardless of budget.
type RetryableFunc func() (retryable bool, err error)

// RetryWithBackoff executes a function with exponential backoff
func RetryWithBackoff(ctx context.Context, config *RetryConfig, operation RetryableFunc, logger *logger.Logger) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		default:
		}

		retryable, err := operation()
		if err == nil {
			if attempt > 1 {
				logger.Info("Operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		if !retryable {
			logger.Debug("Non-retryable error encountered", "error", err, "attempt", attempt)
			return err
		}
		if attempt == config.MaxAttempts {
			break
		}

		delay := backoffDelay(config, attempt)
		logger.Debug("Retrying after backoff", "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func backoffDelay(config *RetryConfig, attempt int) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt-1))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
