// internal/handlers/notification.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/agriconnect-backend/internal/i18n"
	"github.com/javajoker/agriconnect-backend/internal/services"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	params := services.NotificationListParams{PaginationParams: utils.GetPaginationParams(c)}
	if unread, err := strconv.ParseBool(c.Query("unread")); err == nil {
		params.UnreadOnly = unread
	}

	notifications, total, err := h.notificationService.ListForUser(c.Request.Context(), user.ID, params)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(notifications, total, params.PaginationParams))
}

// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"count": count})
}

// PUT /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	notificationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkRead(c.Request.Context(), notificationID, user.ID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.MessageResponse(c, i18n.KeyNotificationRead, notification)
}

// PUT /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.MessageResponse(c, i18n.KeyNotificationAllRead, gin.H{"updated": updated})
}
