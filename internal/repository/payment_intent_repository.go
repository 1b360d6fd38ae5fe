package repository

import (
	"context"
	stderrors "errors"

	"payment-router/internal/models"
	"payment-router/pkg/database"
	"payment-router/pkg/errors"
	"payment-router/pkg/logger"

	"gorm.io/gorm"
)

// paymentIntentRepository implements PaymentIntentRepository over postgres
type paymentIntentRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPaymentIntentRepository creates a new payment intent repository
func NewPaymentIntentRepository(db *database.DB, logger *logger.Logger) PaymentIntentRepository {
	return &paymentIntentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentIntentRepository) Insert(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error) {
	r.logger.Debug("Inserting payment intent", "payment_id", intent.PaymentID, "merchant_id", intent.MerchantID)

	if err := r.db.WithContext(ctx).Create(intent).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.NewDuplicatePaymentError(intent.PaymentID)
		}
		r.logger.Error("Failed to insert payment intent", "error", err, "payment_id", intent.PaymentID)
		return nil, errors.NewDatabaseError("failed to insert payment intent", err)
	}

	return intent, nil
}

func (r *paymentIntentRepository) FindByID(ctx context.Context, paymentID, merchantID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	if err := r.db.WithContext(ctx).
		First(&intent, "payment_id = ? AND merchant_id = ?", paymentID, merchantID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewPaymentNotFoundError(paymentID)
		}
		r.logger.Error("Failed to find payment intent", "error", err, "payment_id", paymentID)
		return nil, errors.NewDatabaseError("failed to find payment intent", err)
	}
	return &intent, nil
}

func (r *paymentIntentRepository) Update(ctx context.Context, paymentID, merchantID string, update models.IntentUpdate) (*models.PaymentIntent, error) {
	intent, err := r.FindByID(ctx, paymentID, merchantID)
	if err != nil {
		return nil, err
	}

	if !applyIntentUpdate(intent, update) {
		return intent, nil
	}

	if err := r.db.WithContext(ctx).Save(intent).Error; err != nil {
		r.logger.Error("Failed to update payment intent", "error", err, "payment_id", paymentID)
		return nil, errors.NewDatabaseError("failed to update payment intent", err)
	}

	r.logger.Debug("Payment intent updated", "payment_id", paymentID, "attempt_count", intent.AttemptCount, "active_attempt_id", intent.ActiveAttemptID)
	return intent, nil
}
