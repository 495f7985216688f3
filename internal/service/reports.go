package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"plantasset/internal/config"
	"plantasset/internal/models"
	"plantasset/internal/repository"
	"plantasset/internal/timeseries"
)

var (
	ErrNoSignalsSelected  = errors.New("no signals selected")
	ErrNoMappingsForScope = errors.New("no mappings for the selected signals")
	ErrUnsupportedFormat  = errors.New("unsupported report format")
	ErrReportTooLarge     = errors.New("report exceeds row limit for format")
)

const (
	FormatCSV   = "csv"
	FormatExcel = "xlsx"

	ReportStatusQueued = "queued"
)

// Publisher hands accepted report requests to the export queue.
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, payload interface{}) error
}

// Reports validates export requests and gates them on estimated row counts
// before they reach the file-producing consumer.
type Reports struct {
	Repo   repository.Repository
	Query  timeseries.QueryExecutor
	Queue  Publisher
	Bucket string
	Cfg    config.ReportsConfig
	Rabbit config.RabbitConfig
	Logger *zap.Logger
	Now    func() time.Time
}

type ReportInput struct {
	AssetID       uuid.UUID   `json:"assetId"`
	SignalTypeIDs []uuid.UUID `json:"signalTypeIds"`
	StartDate     time.Time   `json:"startDate"`
	EndDate       time.Time   `json:"endDate"`
	Format        string      `json:"format"`
}

// QueuedReport is the payload published for the export consumer.
type QueuedReport struct {
	RequestID  uuid.UUID   `json:"requestId"`
	AssetID    uuid.UUID   `json:"assetId"`
	MappingIDs []uuid.UUID `json:"mappingIds"`
	StartDate  time.Time   `json:"startDate"`
	EndDate    time.Time   `json:"endDate"`
	Format     string      `json:"format"`
	TotalRows  int64       `json:"totalRows"`
}

func (r *Reports) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// Request validates, counts, gates, persists and queues one export request.
func (r *Reports) Request(ctx context.Context, in ReportInput) (*models.ReportRequest, error) {
	if r == nil || r.Repo == nil {
		return nil, fmt.Errorf("report service not initialized")
	}

	format := strings.ToLower(strings.TrimSpace(in.Format))
	if format != FormatCSV && format != FormatExcel {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, in.Format)
	}
	if len(in.SignalTypeIDs) == 0 {
		return nil, ErrNoSignalsSelected
	}
	start, end := in.StartDate.UTC(), in.EndDate.UTC()
	spec := timeseries.RangeSpec{Range: timeseries.RangeCustom, Start: &start, End: &end}
	if _, _, err := spec.Resolve(r.now()); err != nil {
		return nil, err
	}

	known, err := r.Repo.ListSignalTypeIDs(ctx, in.SignalTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("validate signal types: %w", err)
	}
	if len(known) != len(dedupe(in.SignalTypeIDs)) {
		return nil, ErrSignalTypeNotFound
	}

	mappingIDs, err := r.Repo.ListMappingIDs(ctx, in.AssetID, in.SignalTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve report mappings: %w", err)
	}
	if len(mappingIDs) == 0 {
		return nil, ErrNoMappingsForScope
	}

	total, err := r.countRows(ctx, mappingIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("count report rows: %w", err)
	}

	if csvLimit := int64(r.Cfg.MaxCSVRows); csvLimit > 0 && total > csvLimit {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrReportTooLarge, total, csvLimit)
	}
	if excelLimit := int64(r.Cfg.MaxExcelRows); format == FormatExcel && excelLimit > 0 && total > excelLimit {
		// Too many rows for a workbook; the data still fits a CSV file.
		format = FormatCSV
		if r.Logger != nil {
			r.Logger.Info("excel report downgraded to csv",
				zap.Int64("total_rows", total),
				zap.Int64("excel_limit", excelLimit))
		}
	}

	signalJSON, err := json.Marshal(in.SignalTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("encode signal ids: %w", err)
	}
	mappingJSON, err := json.Marshal(mappingIDs)
	if err != nil {
		return nil, fmt.Errorf("encode mapping ids: %w", err)
	}
	item := &models.ReportRequest{
		ID:          uuid.New(),
		AssetID:     in.AssetID,
		SignalIDs:   datatypes.JSON(signalJSON),
		MappingIDs:  datatypes.JSON(mappingJSON),
		StartDate:   start,
		EndDate:     end,
		Format:      format,
		TotalRows:   total,
		Status:      ReportStatusQueued,
		RequestedAt: r.now(),
	}
	if err := r.Repo.CreateReportRequest(ctx, item); err != nil {
		return nil, fmt.Errorf("store report request: %w", err)
	}

	payload := QueuedReport{
		RequestID:  item.ID,
		AssetID:    in.AssetID,
		MappingIDs: mappingIDs,
		StartDate:  start,
		EndDate:    end,
		Format:     format,
		TotalRows:  total,
	}
	if err := r.Queue.PublishJSON(ctx, r.Rabbit.ReportQueue, payload); err != nil {
		return nil, fmt.Errorf("queue report request: %w", err)
	}
	if r.Logger != nil {
		r.Logger.Info("report request queued",
			zap.String("request_id", item.ID.String()),
			zap.Int64("total_rows", total),
			zap.String("format", format))
	}
	return item, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// countRows sums raw sample counts over the selected mappings for the range.
func (r *Reports) countRows(ctx context.Context, mappingIDs []uuid.UUID, start, end time.Time) (int64, error) {
	quoted := make([]string, 0, len(mappingIDs))
	for _, id := range mappingIDs {
		quoted = append(quoted, fmt.Sprintf("%q", id.String()))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %q)\n", r.Bucket)
	fmt.Fprintf(&b, "  |> range(start: %s, stop: %s)\n", start.Format(time.RFC3339), end.Format(time.RFC3339))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %q)\n", timeseries.Measurement)
	b.WriteString("  |> filter(fn: (r) => r._field == \"value\")\n")
	fmt.Fprintf(&b, "  |> filter(fn: (r) => contains(value: r.mappingId, set: [%s]))\n", strings.Join(quoted, ", "))
	b.WriteString("  |> count()")

	values, err := r.Query.Query(ctx, b.String())
	if err != nil {
		return 0, err
	}
	var total int64
	for _, v := range values {
		total += int64(v.Value)
	}
	return total, nil
}
