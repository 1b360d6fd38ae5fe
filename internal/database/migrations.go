package database

import (
	"payment-router/internal/models"
	"payment-router/pkg/logger"

	"gorm.io/gorm"
)

// Migrator runs schema migrations
type Migrator struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *gorm.DB, logger *logger.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// RunMigrations applies the schema for every model
func (m *Migrator) RunMigrations() error {
	m.logger.Info("Running database migrations")

	return m.db.AutoMigrate(
		&models.PaymentIntent{},
		&models.PaymentAttempt{},
		&models.GsmRecord{},
		&models.MerchantConfig{},
	)
}
