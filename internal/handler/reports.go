package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"plantasset/internal/models"
	"plantasset/internal/repository"
	"plantasset/internal/service"
	"plantasset/internal/timeseries"
)

type ReportHandler struct {
	Reports *service.Reports
	Repo    repository.Repository
}

func (h *ReportHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/reports", h.request)
	r.GET("/api/v1/reports", h.list)
}

func reportErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUnsupportedFormat),
		errors.Is(err, service.ErrNoSignalsSelected),
		errors.Is(err, timeseries.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSignalTypeNotFound),
		errors.Is(err, service.ErrNoMappingsForScope):
		return http.StatusNotFound
	case errors.Is(err, service.ErrReportTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadGateway
	}
}

func (h *ReportHandler) request(c *gin.Context) {
	var req service.ReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Reports.Request(c.Request.Context(), req)
	if err != nil {
		Error(c, reportErrorStatus(err), err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

const maxReportPage = 200

// list returns recent export requests, newest first.
func (h *ReportHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	if limit <= 0 || limit > maxReportPage {
		limit = 50
	}
	items, err := h.Repo.ListReportRequests(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if items == nil {
		items = []models.ReportRequest{}
	}
	Ok(c, items, nil)
}
