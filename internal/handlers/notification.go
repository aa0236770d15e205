package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cinetalk/internal/middleware"
	"cinetalk/internal/services"
)

type NotificationHandler struct {
	notify *services.NotificationService
}

func NewNotificationHandler(notify *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notify: notify}
}

func (h *NotificationHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	inbox, err := h.notify.List(user.UID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": inbox})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	// LoadUser already counted for the badge; reuse it when present.
	if count, ok := c.Get(middleware.UnreadCountKey); ok {
		c.JSON(http.StatusOK, gin.H{"unread": count})
		return
	}
	user := middleware.CurrentUser(c)
	count, err := h.notify.UnreadCount(user.UID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// Read marks one entry as read. Entries are never deleted, only flagged.
func (h *NotificationHandler) Read(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.notify.MarkRead(user.UID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.notify.MarkAllRead(user.UID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
