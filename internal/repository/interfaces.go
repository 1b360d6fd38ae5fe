package repository

import (
	"context"

	"payment-router/internal/models"
)

// Repository interfaces define contracts for the data access layer.
// Implementations return pkg/errors AppError values: NotFound for missing
// rows, Duplicate for insert collisions, Database for backend failures.

// PaymentIntentRepository defines payment intent data access methods
type PaymentIntentRepository interface {
	Insert(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error)
	FindByID(ctx context.Context, paymentID, merchantID string) (*models.PaymentIntent, error)
	Update(ctx context.Context, paymentID, merchantID string, update models.IntentUpdate) (*models.PaymentIntent, error)
}

// PaymentAttemptRepository defines payment attempt data access methods.
// Insert fails with a Duplicate error when attempt_id collides; that
// collision is the serialisation point for concurrent retries of one intent.
type PaymentAttemptRepository interface {
	Insert(ctx context.Context, attempt *models.PaymentAttempt) (*models.PaymentAttempt, error)
	FindByID(ctx context.Context, attemptID string) (*models.PaymentAttempt, error)
	Update(ctx context.Context, attemptID string, update models.AttemptUpdate) (*models.PaymentAttempt, error)
	ListByPaymentID(ctx context.Context, paymentID, merchantID string) ([]*models.PaymentAttempt, error)
}

// GsmRepository defines gateway status mapping lookups. Matching is exact on
// all four coordinates.
type GsmRepository interface {
	FindByKey(ctx context.Context, connector, flow, code, message string) (*models.GsmRecord, error)
	Insert(ctx context.Context, record *models.GsmRecord) (*models.GsmRecord, error)
}

// ConfigRepository defines keyed runtime configuration lookups
type ConfigRepository interface {
	// FindByKey errors with NotFound when the key is absent
	FindByKey(ctx context.Context, key string) (*models.MerchantConfig, error)
	// FindByKeyUnwrapOr returns the default value when the key is absent
	FindByKeyUnwrapOr(ctx context.Context, key, defaultValue string) (string, error)
	Upsert(ctx context.Context, key, value string) error
}
