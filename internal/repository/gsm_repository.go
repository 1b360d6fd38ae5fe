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

// gsmRepository implements GsmRepository over postgres
type gsmRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewGsmRepository creates a new gateway status mapping repository
func NewGsmRepository(db *database.DB, logger *logger.Logger) GsmRepository {
	return &gsmRepository{
		db:     db,
		logger: logger,
	}
}

func (r *gsmRepository) FindByKey(ctx context.Context, connector, flow, code, message string) (*models.GsmRecord, error) {
	var record models.GsmRecord
	if err := r.db.WithContext(ctx).
		First(&record, "connector = ? AND flow = ? AND code = ? AND message = ?", connector, flow, code, message).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("gateway status mapping").
				WithContext("connector", connector).
				WithContext("flow", flow).
				WithContext("code", code)
		}
		r.logger.Error("Failed to look up gateway status mapping", "error", err, "connector", connector, "flow", flow, "code", code)
		return nil, errors.NewDatabaseError("failed to look up gateway status mapping", err)
	}
	return &record, nil
}

func (r *gsmRepository) Insert(ctx context.Context, record *models.GsmRecord) (*models.GsmRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.NewDuplicateError("gateway status mapping")
		}
		r.logger.Error("Failed to insert gateway status mapping", "error", err, "connector", record.Connector)
		return nil, errors.NewDatabaseError("failed to insert gateway status mapping", err)
	}
	return record, nil
}
