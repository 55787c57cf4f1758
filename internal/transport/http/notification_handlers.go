package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/dealhub-server/internal/store"
)

// NotificationHandlers provides HTTP handlers for notification endpoints.
type NotificationHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewNotificationHandlers creates a new notification handlers instance.
func NewNotificationHandlers(st store.Store, logger *zerolog.Logger) *NotificationHandlers {
	return &NotificationHandlers{
		store: st,
		log:   logger,
	}
}

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

// NotificationListResponse pairs the rows with the derived unread badge count.
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
}

// List returns the caller's notifications, most recent first, plus the
// unread count computed from current rows.
// GET /api/notifications
func (h *NotificationHandlers) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	notifications, err := h.store.ListNotifications(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list notifications")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	unread, err := h.store.CountUnreadNotifications(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to count unread notifications")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := NotificationListResponse{
		Notifications: make([]NotificationResponse, 0, len(notifications)),
		UnreadCount:   unread,
	}
	for _, n := range notifications {
		response.Notifications = append(response.Notifications, NotificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339Nano),
		})
	}

	c.JSON(http.StatusOK, response)
}

// MarkRead marks one of the caller's notifications as read. A notification
// that does not exist and one that belongs to someone else produce the same
// 404 response.
// POST /api/notifications/:id/read
func (h *NotificationHandlers) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id := c.Param("id")
	if err := h.store.MarkNotificationRead(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "notification not found"})
			return
		}
		h.log.Error().Err(err).Str("notification_id", id).Msg("failed to mark notification read")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
