package httpHandler

import (
	"net/http"

	"starter-server/logger"
	"starter-server/usecases"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	base
	useCase *usecases.NotificationUseCase
}

func NewNotificationHandler(useCase *usecases.NotificationUseCase, log logger.Logger) *NotificationHandler {
	return &NotificationHandler{base: base{log: log}, useCase: useCase}
}

// ListNotifications handles GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	items, total, err := h.useCase.List(c.Request.Context(), principal(c).UserID, boolQuery(c, "unread"), q.Limit, q.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, items, total)
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.useCase.UnreadCount(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"unread": n})
}

// MarkRead handles POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.useCase.MarkRead(c.Request.Context(), principal(c).UserID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": c.Param("id"), "read": true})
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.useCase.MarkAllRead(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"updated": n})
}

// CreateNotification handles POST /api/v1/notifications (admin)
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var in usecases.NotificationInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	n, err := h.useCase.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, n)
}
