// Package testutil provides store fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/config"
	"github.com/javajoker/agriconnect-backend/internal/database"
	"github.com/javajoker/agriconnect-backend/internal/models"
)

// NewDB opens a migrated in-memory sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	db, err := database.Initialize(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name),
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	t.Cleanup(func() { database.Close(db) })
	return db
}

// CreateUser stores a user with the given role and password "Passw0rd!".
func CreateUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Name:     name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Role:     role,
		Location: "Nakuru",
	}
	require.NoError(t, user.SetPassword("Passw0rd!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProduct stores a product owned by farmer.
func CreateProduct(t *testing.T, db *gorm.DB, farmer *models.User, name string, price int64, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		FarmerID:          farmer.ID,
		Name:              name,
		PricePerUnit:      decimal.NewFromInt(price),
		Unit:              "kg",
		QuantityAvailable: stock,
		Image:             models.DefaultProductImage,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// Stock reloads the product's available quantity.
func Stock(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	return product.QuantityAvailable
}
