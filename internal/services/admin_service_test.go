package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/agriconnect-backend/internal/apperr"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/testutil"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := NewAdminService(f.db)

	farmer := testutil.CreateUser(t, f.db, "Fiona Farmer", models.RoleFarmer)
	buyer := testutil.CreateUser(t, f.db, "Bob Buyer", models.RoleBuyer)
	tomatoes := testutil.CreateProduct(t, f.db, farmer, "Tomatoes", 5, 10)
	testutil.CreateProduct(t, f.db, farmer, "Kale", 2, 0)

	first, err := f.orders.CreateOrder(ctx, buyer, &CreateOrderRequest{ProductID: tomatoes.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.orders.CreateOrder(ctx, buyer, &CreateOrderRequest{ProductID: tomatoes.ID, Quantity: 1})
	require.NoError(t, err)
	for _, next := range []models.OrderStatus{models.OrderStatusAccepted, models.OrderStatusShipped, models.OrderStatusDelivered} {
		_, err = f.orders.UpdateStatus(ctx, first.ID, farmer.ID, next)
		require.NoError(t, err)
	}

	stats, err := admin.GetDashboardStats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.UsersByRole[models.RoleFarmer])
	assert.EqualValues(t, 1, stats.UnverifiedFarmers)
	assert.EqualValues(t, 2, stats.TotalProducts)
	assert.EqualValues(t, 1, stats.OutOfStock)
	assert.EqualValues(t, 2, stats.TotalOrders)
	assert.EqualValues(t, 1, stats.OrdersByStatus[models.OrderStatusDelivered])
	assert.EqualValues(t, 1, stats.OrdersByStatus[models.OrderStatusPending])
	assert.True(t, stats.DeliveredSales.Equal(decimal.NewFromInt(10)), stats.DeliveredSales.String())
	assert.True(t, stats.MonthlySales.Equal(decimal.NewFromInt(10)), stats.MonthlySales.String())
}

func TestAdminUsersAndVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := NewAdminService(f.db)

	root := testutil.CreateUser(t, f.db, "Root Admin", models.RoleAdmin)
	farmer := testutil.CreateUser(t, f.db, "Fiona Farmer", models.RoleFarmer)
	testutil.CreateUser(t, f.db, "Bob Buyer", models.RoleBuyer)

	role := models.RoleFarmer
	users, total, err := admin.GetUsers(ctx, AdminUserFilter{Role: &role})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, farmer.ID, users[0].ID)

	filter := AdminUserFilter{}
	filter.Search = "BOB"
	_, total, err = admin.GetUsers(ctx, filter)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	verified, err := admin.SetUserVerified(ctx, farmer.ID, root.ID, true)
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	// Repeating the same value records nothing new
	_, err = admin.SetUserVerified(ctx, farmer.ID, root.ID, true)
	require.NoError(t, err)

	logs, total, err := admin.GetAuditLogs(ctx, AuditLogFilter{ResourceType: "users"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "user.verification", logs[0].Action)
	assert.Equal(t, root.ID, *logs[0].UserID)
	assert.Equal(t, true, logs[0].NewValues["verified"])

	_, err = admin.SetUserVerified(ctx, uuid.New(), root.ID, true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
