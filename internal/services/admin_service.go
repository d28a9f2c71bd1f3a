// internal/services/admin_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/apperr"
	"github.com/javajoker/agriconnect-backend/internal/i18n"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

type AdminService struct {
	db *gorm.DB
}

type AdminDashboardStats struct {
	TotalUsers        int64                        `json:"total_users"`
	UsersByRole       map[models.Role]int64        `json:"users_by_role"`
	NewUsersThisMonth int64                        `json:"new_users_this_month"`
	UnverifiedFarmers int64                        `json:"unverified_farmers"`
	TotalProducts     int64                        `json:"total_products"`
	OutOfStock        int64                        `json:"out_of_stock"`
	TotalOrders       int64                        `json:"total_orders"`
	OrdersByStatus    map[models.OrderStatus]int64 `json:"orders_by_status"`
	DeliveredSales    decimal.Decimal              `json:"delivered_sales"`
	MonthlySales      decimal.Decimal              `json:"monthly_sales"`
	UserGrowth        float64                      `json:"user_growth"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	Role          *models.Role `json:"role,omitempty"`
	Verified      *bool        `json:"verified,omitempty"`
	CreatedAfter  *time.Time   `json:"created_after,omitempty"`
	CreatedBefore *time.Time   `json:"created_before,omitempty"`
}

type AuditLogFilter struct {
	utils.PaginationParams
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
}

var (
	adminUserSortFields  = []string{"created_at", "updated_at", "name", "email", "role"}
	auditLogSortFields   = []string{"created_at", "action", "resource_type", "status"}
	deliveredSalesColumn = "COALESCE(SUM(total_price), 0)"
)

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

type countRow struct {
	Label string
	Total int64
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &AdminDashboardStats{
		UsersByRole:    map[models.Role]int64{},
		OrdersByStatus: map[models.OrderStatus]int64{},
	}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	// User statistics
	var roles []countRow
	if err := db.Model(&models.User{}).Select("role AS label, COUNT(*) AS total").Group("role").Scan(&roles).Error; err != nil {
		return nil, apperr.Internal(err, "failed to count users")
	}
	for _, row := range roles {
		stats.UsersByRole[models.Role(row.Label)] = row.Total
		stats.TotalUsers += row.Total
	}
	db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)
	db.Model(&models.User{}).Where("role = ? AND verified = ?", models.RoleFarmer, false).Count(&stats.UnverifiedFarmers)

	// Product statistics
	db.Model(&models.Product{}).Count(&stats.TotalProducts)
	db.Model(&models.Product{}).Where("quantity_available = 0").Count(&stats.OutOfStock)

	// Order statistics
	var statuses []countRow
	if err := db.Model(&models.Order{}).Select("status AS label, COUNT(*) AS total").Group("status").Scan(&statuses).Error; err != nil {
		return nil, apperr.Internal(err, "failed to count orders")
	}
	for _, row := range statuses {
		stats.OrdersByStatus[models.OrderStatus(row.Label)] = row.Total
		stats.TotalOrders += row.Total
	}

	// Sales statistics
	var total, monthly string
	db.Model(&models.Order{}).Where("status = ?", models.OrderStatusDelivered).
		Select(deliveredSalesColumn).Scan(&total)
	db.Model(&models.Order{}).Where("status = ? AND status_changed_at >= ?", models.OrderStatusDelivered, monthStart).
		Select(deliveredSalesColumn).Scan(&monthly)
	stats.DeliveredSales, _ = decimal.NewFromString(total)
	stats.MonthlySales, _ = decimal.NewFromString(monthly)

	// Growth calculations
	var lastMonthUsers int64
	db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).
		Count(&lastMonthUsers)
	if lastMonthUsers > 0 {
		stats.UserGrowth = float64(stats.NewUsersThisMonth-lastMonthUsers) / float64(lastMonthUsers) * 100
	}

	return stats, nil
}

// User Management
func (s *AdminService) GetUsers(ctx context.Context, filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})

	// Apply filters
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Verified != nil {
		query = query.Where("verified = ?", *filter.Verified)
	}
	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", searchTerm, searchTerm)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to count users")
	}

	query = query.Scopes(utils.SortBy(filter.PaginationParams, adminUserSortFields), utils.Paginate(filter.PaginationParams))

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to fetch users")
	}

	return users, total, nil
}

// SetUserVerified marks a user's identity as checked by adminID and records
// the change in the audit log.
func (s *AdminService) SetUserVerified(ctx context.Context, userID, adminID uuid.UUID, verified bool) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(i18n.KeyUserNotFound)
			}
			return apperr.Internal(err, "failed to load user")
		}

		if user.Verified == verified {
			return nil
		}
		if err := tx.Model(&user).Update("verified", verified).Error; err != nil {
			return apperr.Internal(err, "failed to update user verification")
		}

		audit := models.AuditLog{
			UserID:       &adminID,
			Action:       "user.verification",
			ResourceType: "users",
			ResourceID:   &user.ID,
			NewValues:    models.JSONB{"verified": verified},
		}
		if err := tx.Create(&audit).Error; err != nil {
			return apperr.Internal(err, "failed to record audit log")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"admin_id": adminID,
		"verified": verified,
	}).Info("User verification updated")
	return &user, nil
}

// GetAuditLogs lists recorded write requests and admin actions, newest first.
func (s *AdminService) GetAuditLogs(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to count audit logs")
	}

	query = query.Scopes(utils.SortBy(filter.PaginationParams, auditLogSortFields), utils.Paginate(filter.PaginationParams))

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to fetch audit logs")
	}
	return logs, total, nil
}
