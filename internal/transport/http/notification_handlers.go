package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/service"
)

// NotificationHandlers provides HTTP handlers for notification endpoints.
type NotificationHandlers struct {
	svc *service.Notifications
	log *zerolog.Logger
}

// NewNotificationHandlers creates a new notification handlers instance.
func NewNotificationHandlers(svc *service.Notifications, logger *zerolog.Logger) *NotificationHandlers {
	return &NotificationHandlers{svc: svc, log: logger}
}

// List returns the caller's notifications, newest first.
// GET /api/notifications?limit=
func (h *NotificationHandlers) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	notifications, err := h.svc.List(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// UnreadCount returns the caller's unread notification count.
// GET /api/notifications/unread-count
func (h *NotificationHandlers) UnreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead flags one notification as read.
// PUT /api/notifications/:id/read
func (h *NotificationHandlers) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

// MarkAllRead flags all of the caller's notifications as read.
// PUT /api/notifications/read-all
func (h *NotificationHandlers) MarkAllRead(c *gin.Context) {
	if err := h.svc.MarkAllRead(c.Request.Context(), currentUserID(c)); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}
