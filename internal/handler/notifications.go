package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"plantasset/internal/notify"
	"plantasset/internal/repository"
)

type NotificationHandler struct {
	Service *notify.Service
	Repo    repository.Repository
	Hub     *notify.Hub
	Logger  *zap.Logger
}

func (h *NotificationHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/notifications")
	group.GET("", h.list)
	group.GET("/all", h.listAll)
	group.POST("/:id/read", h.markRead)
	group.POST("/read-all", h.markAllRead)
	r.GET("/api/v1/notifications/ws", h.websocket)
}

// userID comes from the gateway that terminates auth.
func userID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-User-Id"))
}

func (h *NotificationHandler) list(c *gin.Context) {
	user := userID(c)
	if user == "" {
		Error(c, http.StatusUnauthorized, "user id required", nil)
		return
	}
	unreadOnly := false
	if v := boolQuery(c, "unread_only"); v != nil {
		unreadOnly = *v
	}
	var cursor *time.Time
	if raw := c.Query("cursor"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid cursor", nil)
			return
		}
		cursor = &t
	}
	limit := intQuery(c, "limit", 20)

	page, err := h.Service.ListForUser(c.Request.Context(), user, unreadOnly, cursor, limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	meta := map[string]any{"hasMore": page.HasMore}
	if page.NextCursor != nil {
		meta["nextCursor"] = page.NextCursor.Format(time.RFC3339)
	}
	Ok(c, page.Items, meta)
}

// listAll is the operator view: every notification regardless of recipient.
func (h *NotificationHandler) listAll(c *gin.Context) {
	var cursor *time.Time
	if raw := c.Query("cursor"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid cursor", nil)
			return
		}
		cursor = &t
	}
	limit := intQuery(c, "limit", 50)

	items, err := h.Repo.ListNotifications(c.Request.Context(), repository.ListNotificationsParams{
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	user := userID(c)
	if user == "" {
		Error(c, http.StatusUnauthorized, "user id required", nil)
		return
	}
	recipientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid notification id", nil)
		return
	}
	ok, err := h.Service.MarkRead(c.Request.Context(), recipientID, user)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if !ok {
		Error(c, http.StatusNotFound, "notification not found", nil)
		return
	}
	Ok(c, map[string]any{"id": recipientID, "read": true}, nil)
}

func (h *NotificationHandler) markAllRead(c *gin.Context) {
	user := userID(c)
	if user == "" {
		Error(c, http.StatusUnauthorized, "user id required", nil)
		return
	}
	n, err := h.Service.MarkAllRead(c.Request.Context(), user)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"marked": n}, nil)
}

func (h *NotificationHandler) websocket(c *gin.Context) {
	user := userID(c)
	if user == "" {
		user = strings.TrimSpace(c.Query("user_id"))
	}
	if user == "" {
		Error(c, http.StatusUnauthorized, "user id required", nil)
		return
	}
	if err := notify.ServeWS(h.Hub, user, c.Writer, c.Request, h.Logger); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket upgrade failed", zap.String("user_id", user), zap.Error(err))
		}
	}
}
