// internal/services/notification_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/apperr"
	"github.com/javajoker/agriconnect-backend/internal/i18n"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/realtime"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

// LivePublisher pushes an event to every live connection of a user.
type LivePublisher interface {
	Emit(userID, event string, payload interface{}) (int, error)
}

type NotificationService struct {
	db        *gorm.DB
	publisher LivePublisher
	mailer    *Mailer
	log       *logrus.Entry
}

type NotificationListParams struct {
	utils.PaginationParams
	UnreadOnly bool
}

// OrderStatusEvent is the payload of an orderStatusUpdated push.
type OrderStatusEvent struct {
	Notification *models.Notification `json:"notification"`
	OrderID      uuid.UUID            `json:"orderId"`
	NewStatus    models.OrderStatus   `json:"newStatus"`
}

func NewNotificationService(db *gorm.DB, publisher LivePublisher, mailer *Mailer) *NotificationService {
	return &NotificationService{
		db:        db,
		publisher: publisher,
		mailer:    mailer,
		log:       logrus.WithField("component", "notifications"),
	}
}

// Notify stores a notification and pushes it to the recipient's live
// connections. A failed push does not undo the stored record.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, kind models.NotificationType, message string, orderID *uuid.UUID) (*models.Notification, error) {
	notification, err := s.Record(s.db.WithContext(ctx), userID, kind, message, orderID)
	if err != nil {
		return nil, err
	}
	s.Publish(userID, realtime.EventNewNotification, notification, notification)
	return notification, nil
}

// Record stores a notification using tx, so callers can make it part of a
// larger transaction.
func (s *NotificationService) Record(tx *gorm.DB, userID uuid.UUID, kind models.NotificationType, message string, orderID *uuid.UUID) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:  userID,
		Type:    kind,
		Message: message,
		OrderID: orderID,
	}
	if err := tx.Create(notification).Error; err != nil {
		return nil, apperr.Internal(err, "failed to store notification")
	}
	return notification, nil
}

// Publish pushes payload as event to userID and mirrors the notification by
// email when enabled. Failures are logged and counted only.
func (s *NotificationService) Publish(userID uuid.UUID, event string, payload interface{}, notification *models.Notification) {
	entry := s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"event":   event,
	})

	if s.publisher != nil {
		delivered, err := s.publisher.Emit(userID.String(), event, payload)
		switch {
		case errors.Is(err, realtime.ErrHubClosed):
			realtime.RecordPushFailure(event, "closed")
			entry.WithError(err).Warn("Live push failed")
		case err != nil:
			realtime.RecordPushFailure(event, "encode")
			entry.WithError(err).Warn("Live push failed")
		case delivered == 0:
			realtime.RecordPushFailure(event, "offline")
			entry.Debug("Recipient has no live connection")
		default:
			entry.WithField("connections", delivered).Debug("Live push delivered")
		}
	}

	if notification != nil && s.mailer != nil && s.mailer.Enabled() {
		go s.mirrorEmail(*notification)
	}
}

func (s *NotificationService) mirrorEmail(n models.Notification) {
	var user models.User
	if err := s.db.Select("id", "name", "email").First(&user, "id = ?", n.UserID).Error; err != nil {
		s.log.WithError(err).WithField("user_id", n.UserID).Warn("Email mirror skipped")
		return
	}

	err := s.mailer.SendTemplate(user.Email, string(n.Type), map[string]interface{}{
		"Name":    user.Name,
		"Message": n.Message,
	})
	if err != nil {
		s.log.WithError(err).WithField("user_id", n.UserID).Warn("Email mirror failed")
	}
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID, params NotificationListParams) ([]models.Notification, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if params.UnreadOnly {
		query = query.Where("read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to count notifications")
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Scopes(utils.Paginate(params.PaginationParams)).
		Find(&notifications).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to fetch notifications")
	}

	return notifications, total, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, apperr.Internal(err, "failed to count notifications")
	}
	return count, nil
}

// MarkRead marks one of the user's notifications read. Marking an already
// read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) (*models.Notification, error) {
	db := s.db.WithContext(ctx)

	var notification models.Notification
	if err := db.First(&notification, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(i18n.KeyNotificationNotFound)
		}
		return nil, apperr.Internal(err, "failed to load notification")
	}

	if notification.UserID != userID {
		return nil, apperr.Unauthorized(i18n.KeyNotificationNotOwner)
	}

	if notification.Read {
		return &notification, nil
	}

	now := time.Now()
	if err := db.Model(&notification).Updates(map[string]interface{}{
		"read":    true,
		"read_at": now,
	}).Error; err != nil {
		return nil, apperr.Internal(err, "failed to mark notification read")
	}
	notification.Read = true
	notification.ReadAt = &now

	return &notification, nil
}

// MarkAllRead marks every unread notification of the user and returns how
// many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		return 0, apperr.Internal(result.Error, "failed to mark notifications read")
	}
	return result.RowsAffected, nil
}
