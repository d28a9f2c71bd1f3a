package database

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/models"
)

// SeedInitialData creates the admin account when no admin exists yet. Admins
// cannot self-register, so this is the only way the first one appears.
func SeedInitialData(db *gorm.DB, adminEmail, adminPassword string) error {
	var existing models.User
	err := db.Where("role = ?", models.RoleAdmin).Take(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	admin := &models.User{
		Name:     "System Administrator",
		Email:    adminEmail,
		Role:     models.RoleAdmin,
		Verified: true,
	}
	if err := admin.SetPassword(adminPassword); err != nil {
		return fmt.Errorf("failed to set admin password: %w", err)
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logrus.WithField("email", adminEmail).Info("Default admin user created")
	return nil
}
