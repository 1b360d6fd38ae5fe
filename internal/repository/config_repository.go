package repository

import (
	"context"
	stderrors "errors"

	"payment-router/internal/models"
	"payment-router/pkg/database"
	"payment-router/pkg/errors"
	"payment-router/pkg/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// configRepository implements ConfigRepository over postgres
type configRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db *database.DB, logger *logger.Logger) ConfigRepository {
	return &configRepository{
		db:     db,
		logger: logger,
	}
}

func (r *configRepository) FindByKey(ctx context.Context, key string) (*models.MerchantConfig, error) {
	var config models.MerchantConfig
	if err := r.db.WithContext(ctx).First(&config, "key = ?", key).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("config").WithContext("key", key)
		}
		r.logger.Error("Failed to find config", "error", err, "key", key)
		return nil, errors.NewDatabaseError("failed to find config", err)
	}
	return &config, nil
}

func (r *configRepository) FindByKeyUnwrapOr(ctx context.Context, key, defaultValue string) (string, error) {
	config, err := r.FindByKey(ctx, key)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			return defaultValue, nil
		}
		return "", err
	}
	return config.Value, nil
}

func (r *configRepository) Upsert(ctx context.Context, key, value string) error {
	config := models.MerchantConfig{Key: key, Value: value}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&config).Error; err != nil {
		r.logger.Error("Failed to upsert config", "error", err, "key", key)
		return errors.NewDatabaseError("failed to upsert config", err)
	}
	return nil
}
