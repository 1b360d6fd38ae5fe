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

// paymentAttemptRepository implements PaymentAttemptRepository over postgres
type paymentAttemptRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPaymentAttemptRepository creates a new payment attempt repository
func NewPaymentAttemptRepository(db *database.DB, logger *logger.Logger) PaymentAttemptRepository {
	return &paymentAttemptRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentAttemptRepository) Insert(ctx context.Context, attempt *models.PaymentAttempt) (*models.PaymentAttempt, error) {
	r.logger.Debug("Inserting payment attempt", "attempt_id", attempt.AttemptID, "payment_id", attempt.PaymentID, "connector", attempt.Connector)

	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.NewDuplicateError("payment attempt").
				WithContext("attempt_id", attempt.AttemptID)
		}
		r.logger.Error("Failed to insert payment attempt", "error", err, "attempt_id", attempt.AttemptID)
		return nil, errors.NewDatabaseError("failed to insert payment attempt", err)
	}

	return attempt, nil
}

func (r *paymentAttemptRepository) FindByID(ctx context.Context, attemptID string) (*models.PaymentAttempt, error) {
	var attempt models.PaymentAttempt
	if err := r.db.WithContext(ctx).First(&attempt, "attempt_id = ?", attemptID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("payment attempt").WithContext("attempt_id", attemptID)
		}
		r.logger.Error("Failed to find payment attempt", "error", err, "attempt_id", attemptID)
		return nil, errors.NewDatabaseError("failed to find payment attempt", err)
	}
	return &attempt, nil
}

func (r *paymentAttemptRepository) Update(ctx context.Context, attemptID string, update models.AttemptUpdate) (*models.PaymentAttempt, error) {
	attempt, err := r.FindByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	if !applyAttemptUpdate(attempt, update) {
		return attempt, nil
	}

	if err := r.db.WithContext(ctx).Save(attempt).Error; err != nil {
		r.logger.Error("Failed to update payment attempt", "error", err, "attempt_id", attemptID)
		return nil, errors.NewDatabaseError("failed to update payment attempt", err)
	}

	r.logger.Debug("Payment attempt updated", "attempt_id", attemptID, "status", attempt.Status)
	return attempt, nil
}

func (r *paymentAttemptRepository) ListByPaymentID(ctx context.Context, paymentID, merchantID string) ([]*models.PaymentAttempt, error) {
	var attempts []*models.PaymentAttempt
	if err := r.db.WithContext(ctx).
		Where("payment_id = ? AND merchant_id = ?", paymentID, merchantID).
		Order("created_at ASC").
		Find(&attempts).Error; err != nil {
		r.logger.Error("Failed to list payment attempts", "error", err, "payment_id", paymentID)
		return nil, errors.NewDatabaseError("failed to list payment attempts", err)
	}
	return attempts, nil
}
