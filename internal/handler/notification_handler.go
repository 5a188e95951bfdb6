package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fundcrm/internal/logic"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	store *logic.NotificationLogic
}

func NewNotificationHandler(store *logic.NotificationLogic) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// ListNotifications 当前用户的通知
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	includeDismissed := c.Query("include_dismissed") == "true"

	notifications, err := h.store.ListForRecipient(c.Request.Context(), actingUser(c).ID(), includeDismissed, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// Dismiss 撤销一条通知
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.Dismiss(c.Request.Context(), actingUser(c).ID(), id); err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismissed": 1})
}

// DismissAll 撤销全部通知
func (h *NotificationHandler) DismissAll(c *gin.Context) {
	n, err := h.store.DismissAll(c.Request.Context(), actingUser(c).ID())
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismissed": n})
}
