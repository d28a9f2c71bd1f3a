package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/agriconnect-backend/internal/database"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/testutil"
)

func TestAuditLogJSONBColumn(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, database.RunMigrations(db))

	entry := &models.AuditLog{
		Action:       "PUT /api/orders/:id/status",
		ResourceType: "orders",
		Status:       200,
		NewValues:    models.JSONB{"status": "accepted", "quantity": float64(4)},
	}
	require.NoError(t, db.Create(entry).Error)

	var stored models.AuditLog
	require.NoError(t, db.First(&stored, "id = ?", entry.ID).Error)
	assert.Equal(t, "accepted", stored.NewValues["status"])
	assert.Equal(t, float64(4), stored.NewValues["quantity"])

	types, err := db.Migrator().ColumnTypes(&models.AuditLog{})
	require.NoError(t, err)
	for _, col := range types {
		if col.Name() == "new_values" {
			assert.Equal(t, "text", col.DatabaseTypeName())
			return
		}
	}
	t.Fatal("new_values column missing")
}

func TestJSONBScanRejectsUnknownTypes(t *testing.T) {
	var j models.JSONB
	assert.Error(t, j.Scan(42))
	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j)
}
