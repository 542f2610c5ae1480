package handlers

import (
	"net/http"

	"nutriscan/internal/services"
	"nutriscan/internal/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List 当前用户的通知，附带未读数
func (h *NotificationHandler) List(c *gin.Context) {
	userID := currentUserID(c)
	limit := utils.ClampLimit(c.Query("limit"), 50, 200)

	items, err := h.notifications.List(c.Request.Context(), userID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	unread, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "unread": unread})
}

// Read 标记单条通知为已读
func (h *NotificationHandler) Read(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), id, currentUserID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
