package handlers

import (
	"errors"

	"clinic-server/internal/middleware"
	"clinic-server/internal/notify"
	"clinic-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// NotificationHandler serves stored notifications so users can catch up on
// events they missed while disconnected.
type NotificationHandler struct {
	Service *notify.Service
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service *notify.Service) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// GetNotifications lists the caller's notifications, newest first.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	notifications, err := h.Service.ListForUser(userID)
	if err != nil {
		utils.InternalServerError(c, "Failed to retrieve notifications: "+err.Error())
		return
	}
	utils.Success(c, "Notifications retrieved successfully", notifications)
}

// MarkNotificationRead flags one notification as read.
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	if err := h.Service.MarkRead(c.Param("id")); err != nil {
		if errors.Is(err, notify.ErrNotFound) {
			utils.NotFound(c, "Notification not found")
			return
		}
		utils.InternalServerError(c, "Failed to update notification: "+err.Error())
		return
	}
	utils.Success(c, "Notification marked as read", nil)
}
