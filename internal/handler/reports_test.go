package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"plantasset/internal/models"
	"plantasset/internal/repository"
	"plantasset/internal/service"
	"plantasset/internal/timeseries"
)

func TestReportErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrUnsupportedFormat, http.StatusBadRequest},
		{service.ErrNoSignalsSelected, http.StatusBadRequest},
		{timeseries.ErrInvalidRange, http.StatusBadRequest},
		{service.ErrSignalTypeNotFound, http.StatusNotFound},
		{service.ErrNoMappingsForScope, http.StatusNotFound},
		{service.ErrReportTooLarge, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("count report rows: %w", errors.New("influx down")), http.StatusBadGateway},
	}
	for _, tc := range cases {
		if got := reportErrorStatus(fmt.Errorf("request: %w", tc.err)); got != tc.want {
			t.Fatalf("%v: status %d, want %d", tc.err, got, tc.want)
		}
	}
}

type reportListRepo struct {
	repository.Repository
	items []models.ReportRequest
	limit int
}

func (r *reportListRepo) ListReportRequests(ctx context.Context, limit int) ([]models.ReportRequest, error) {
	r.limit = limit
	return r.items, nil
}

func TestReportHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &reportListRepo{items: []models.ReportRequest{{
		ID:          uuid.New(),
		Format:      service.FormatCSV,
		Status:      service.ReportStatusQueued,
		RequestedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}}
	engine := gin.New()
	(&ReportHandler{Repo: repo}).Register(engine)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?limit=5", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if repo.limit != 5 {
		t.Fatalf("repo limit %d, want 5", repo.limit)
	}
}
