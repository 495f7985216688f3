package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"plantasset/internal/ingest"
	"plantasset/internal/service"
	"plantasset/internal/timeseries"
)

type TelemetryHandler struct {
	Reader    *timeseries.Reader
	Publisher service.Publisher
	Queue     string
}

func (h *TelemetryHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/telemetry/query", h.query)
	r.GET("/api/v1/assets/:id/signals/:signalTypeId/series", h.legacySeries)
	r.POST("/api/v1/telemetry/test", h.publishTest)
}

func seriesErrorStatus(err error) int {
	switch {
	case errors.Is(err, timeseries.ErrInvalidRange), errors.Is(err, timeseries.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, timeseries.ErrMappingNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

type seriesRequest struct {
	AssetID      uuid.UUID            `json:"assetId"`
	SignalTypeID uuid.UUID            `json:"signalTypeId"`
	TimeRange    timeseries.TimeRange `json:"timeRange"`
	StartDate    *time.Time           `json:"startDate"`
	EndDate      *time.Time           `json:"endDate"`
}

func (h *TelemetryHandler) query(c *gin.Context) {
	var req seriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	spec := timeseries.RangeSpec{
		Range: req.TimeRange,
		Start: req.StartDate,
		End:   req.EndDate,
	}
	res, err := h.Reader.GetSeries(c.Request.Context(), req.AssetID, req.SignalTypeID, spec)
	if err != nil {
		Error(c, seriesErrorStatus(err), err.Error(), nil)
		return
	}
	Ok(c, res, nil)
}

// legacySeries keeps the older GET contract alive: a start query parameter
// as ISO 8601 or -<N>h/-<N>d, ending now.
func (h *TelemetryHandler) legacySeries(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid asset id", nil)
		return
	}
	signalTypeID, err := uuid.Parse(c.Param("signalTypeId"))
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid signal type id", nil)
		return
	}
	start := c.DefaultQuery("start", "-24h")

	res, err := h.Reader.GetSeriesFrom(c.Request.Context(), assetID, signalTypeID, start)
	if err != nil {
		Error(c, seriesErrorStatus(err), err.Error(), nil)
		return
	}
	Ok(c, res, nil)
}

// publishTest drops a synthetic sample on the telemetry queue so an
// end-to-end path can be exercised without an edge gateway.
func (h *TelemetryHandler) publishTest(c *gin.Context) {
	if h.Publisher == nil {
		Error(c, http.StatusServiceUnavailable, "publisher disabled", nil)
		return
	}
	var sample ingest.TelemetrySample
	if err := c.ShouldBindJSON(&sample); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}
	if err := sample.Validate(); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.Publisher.PublishJSON(c.Request.Context(), h.Queue, sample); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, map[string]any{"queued": true}, nil)
}
