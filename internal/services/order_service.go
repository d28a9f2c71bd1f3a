// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/apperr"
	"github.com/javajoker/agriconnect-backend/internal/i18n"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/realtime"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

type OrderService struct {
	db            *gorm.DB
	notifications *NotificationService
}

type CreateOrderRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

type OrderListParams struct {
	utils.PaginationParams
	Status models.OrderStatus
}

var orderSortFields = []string{"created_at", "updated_at", "total_price", "status"}

func NewOrderService(db *gorm.DB, notifications *NotificationService) *OrderService {
	return &OrderService{
		db:            db,
		notifications: notifications,
	}
}

// CreateOrder places a pending order for buyer, reserving stock and notifying
// the product's farmer.
func (s *OrderService) CreateOrder(ctx context.Context, buyer *models.User, req *CreateOrderRequest) (*models.Order, error) {
	if buyer.Role != models.RoleBuyer {
		return nil, apperr.Forbidden(i18n.KeyAuthForbiddenRole)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperr.Validation(err, "validation failed")
	}

	var (
		order        *models.Order
		notification *models.Notification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(i18n.KeyProductNotFound)
			}
			return apperr.Internal(err, "failed to load product")
		}

		if !product.InStock(req.Quantity) {
			return apperr.InsufficientStock(i18n.KeyOrderInsufficientStock)
		}

		// The guard in the WHERE clause keeps stock from going negative when
		// orders race for the last units.
		result := tx.Model(&models.Product{}).
			Where("id = ? AND quantity_available >= ?", product.ID, req.Quantity).
			UpdateColumn("quantity_available", gorm.Expr("quantity_available - ?", req.Quantity))
		if result.Error != nil {
			return apperr.Internal(result.Error, "failed to reserve stock")
		}
		if result.RowsAffected == 0 {
			return apperr.InsufficientStock(i18n.KeyOrderInsufficientStock)
		}
		if err := tx.First(&product, "id = ?", product.ID).Error; err != nil {
			return apperr.Internal(err, "failed to reload product")
		}

		order = &models.Order{
			BuyerID:    buyer.ID,
			FarmerID:   product.FarmerID,
			ProductID:  product.ID,
			Quantity:   req.Quantity,
			UnitPrice:  product.PricePerUnit,
			TotalPrice: product.PricePerUnit.Mul(decimal.NewFromInt(int64(req.Quantity))),
			Status:     models.OrderStatusPending,
		}
		if err := tx.Create(order).Error; err != nil {
			return apperr.Internal(err, "failed to create order")
		}

		message := fmt.Sprintf("New order: %d%s of %s from %s", req.Quantity, product.Unit, product.Name, buyer.Name)
		var err error
		notification, err = s.notifications.Record(tx, product.FarmerID, models.NotificationTypeNewOrder, message, &order.ID)
		if err != nil {
			return err
		}

		order.Product = &product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Publish(order.FarmerID, realtime.EventNewNotification, notification, notification)

	logrus.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"buyer_id":   order.BuyerID,
		"farmer_id":  order.FarmerID,
		"product_id": order.ProductID,
		"quantity":   order.Quantity,
	}).Info("Order created")

	return order, nil
}

// UpdateStatus moves an order along the transition table. Only the farmer on
// the order may do so.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, farmerID uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	var (
		order        models.Order
		notification *models.Notification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(i18n.KeyOrderNotFound)
			}
			return apperr.Internal(err, "failed to load order")
		}

		if order.FarmerID != farmerID {
			return apperr.Unauthorized(i18n.KeyOrderNotOwner)
		}

		current := order.Status
		if !current.CanTransitionTo(next) {
			return apperr.InvalidTransition(i18n.KeyOrderInvalidTransition)
		}

		now := time.Now()
		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, current).
			Updates(map[string]interface{}{
				"status":            next,
				"status_changed_at": now,
			})
		if result.Error != nil {
			return apperr.Internal(result.Error, "failed to update order status")
		}
		if result.RowsAffected == 0 {
			return apperr.InvalidTransition(i18n.KeyOrderInvalidTransition)
		}
		order.Status = next
		order.StatusChangedAt = &now

		var product models.Product
		if err := tx.Unscoped().First(&product, "id = ?", order.ProductID).Error; err != nil {
			return apperr.Internal(err, "failed to load product")
		}
		order.Product = &product

		var err error
		notification, err = s.notifications.Record(tx, order.BuyerID, models.NotificationTypeOrderStatus,
			statusMessage(&order, &product), &order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Publish(order.BuyerID, realtime.EventOrderStatusUpdated, OrderStatusEvent{
		Notification: notification,
		OrderID:      order.ID,
		NewStatus:    order.Status,
	}, notification)

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("Order status updated")

	return &order, nil
}

func statusMessage(order *models.Order, product *models.Product) string {
	switch order.Status {
	case models.OrderStatusAccepted:
		return fmt.Sprintf("Your order for %d%s of %s has been ACCEPTED!", order.Quantity, product.Unit, product.Name)
	case models.OrderStatusRejected:
		return fmt.Sprintf("Your order for %s was REJECTED.", product.Name)
	case models.OrderStatusShipped:
		return fmt.Sprintf("Your order for %s has been SHIPPED!", product.Name)
	case models.OrderStatusDelivered:
		return fmt.Sprintf("Your order for %s has been DELIVERED!", product.Name)
	default:
		return fmt.Sprintf("Your order for %s is now %s.", product.Name, order.Status)
	}
}

// CancelOrder removes a pending order of buyerID and returns its quantity to
// the product's stock.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, buyerID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(i18n.KeyOrderNotFound)
			}
			return apperr.Internal(err, "failed to load order")
		}

		if order.BuyerID != buyerID {
			return apperr.Unauthorized(i18n.KeyOrderNotOwner)
		}
		if order.Status != models.OrderStatusPending {
			return apperr.InvalidTransition(i18n.KeyOrderInvalidTransition)
		}

		result := tx.Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).Delete(&models.Order{})
		if result.Error != nil {
			return apperr.Internal(result.Error, "failed to delete order")
		}
		if result.RowsAffected == 0 {
			return apperr.InvalidTransition(i18n.KeyOrderInvalidTransition)
		}

		if err := tx.Unscoped().Model(&models.Product{}).Where("id = ?", order.ProductID).
			UpdateColumn("quantity_available", gorm.Expr("quantity_available + ?", order.Quantity)).Error; err != nil {
			return apperr.Internal(err, "failed to restore stock")
		}

		logrus.WithFields(logrus.Fields{
			"order_id": order.ID,
			"quantity": order.Quantity,
		}).Info("Order cancelled")
		return nil
	})
}

// GetOrder returns an order visible to user: its buyer, its farmer or an admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, user *models.User) (*models.Order, error) {
	var order models.Order
	err := s.withRelations(s.db.WithContext(ctx)).First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(i18n.KeyOrderNotFound)
		}
		return nil, apperr.Internal(err, "failed to load order")
	}

	if user.Role != models.RoleAdmin && order.BuyerID != user.ID && order.FarmerID != user.ID {
		return nil, apperr.Unauthorized(i18n.KeyOrderNotOwner)
	}
	return &order, nil
}

// ListOrders scopes by role: buyers see their orders, farmers the orders on
// their products, admins everything.
func (s *OrderService) ListOrders(ctx context.Context, user *models.User, params OrderListParams) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})

	switch user.Role {
	case models.RoleBuyer:
		query = query.Where("buyer_id = ?", user.ID)
	case models.RoleFarmer:
		query = query.Where("farmer_id = ?", user.ID)
	case models.RoleAdmin:
	default:
		return nil, 0, apperr.Forbidden(i18n.KeyAuthForbiddenRole)
	}

	if params.Status != "" {
		if !params.Status.Valid() {
			return nil, 0, apperr.New(apperr.KindValidation, "invalid status filter %q", params.Status)
		}
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to count orders")
	}

	query = query.Scopes(utils.SortBy(params.PaginationParams, orderSortFields), utils.Paginate(params.PaginationParams))

	var orders []models.Order
	if err := s.withRelations(query).Find(&orders).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to fetch orders")
	}

	return orders, total, nil
}

func (s *OrderService) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Buyer", publicUserColumns).
		Preload("Farmer", publicUserColumns)
}
