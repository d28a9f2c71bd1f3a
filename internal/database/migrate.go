package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/models"
)

// Composite indexes gorm tags cannot express.
var extraIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_products_farmer_created ON products(farmer_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_orders_buyer_created ON orders(buyer_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_orders_farmer_created ON orders(farmer_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id, read)",
	"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
}

func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Review{},
		&models.Order{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// A missing index only costs speed, so failures are logged and skipped.
	for _, stmt := range extraIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			logrus.WithError(err).WithField("index", stmt).Warn("Failed to create index")
		}
	}

	logrus.Info("Database migrations completed")
	return nil
}
