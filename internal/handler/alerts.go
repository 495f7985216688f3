package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"plantasset/internal/repository"
)

type AlertHandler struct {
	Repo repository.Repository
}

func (h *AlertHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/alerts", h.list)
}

const maxAlertPage = 100

// list pages the durable alert trail newest first, keyed on start time.
func (h *AlertHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	if limit <= 0 || limit > maxAlertPage {
		limit = 20
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

	items, err := h.Repo.ListAlerts(c.Request.Context(), repository.ListAlertsParams{
		Active: boolQuery(c, "active"),
		Cursor: cursor,
		Limit:  limit + 1,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}

	meta := map[string]any{"hasMore": false}
	if len(items) > limit {
		items = items[:limit]
		meta["hasMore"] = true
		meta["nextCursor"] = items[len(items)-1].AlertStartUtc.Format(time.RFC3339)
	}
	Ok(c, items, meta)
}
