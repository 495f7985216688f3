package timeseries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plantasset/internal/models"
)

// MappingLookup resolves the stored mapping row for an asset/signal pair.
type MappingLookup interface {
	GetMappingByAssetSignal(ctx context.Context, assetID, signalTypeID uuid.UUID) (*models.AssetSignalDeviceMapping, error)
}

// SeriesPoint is one down-sampled bucket in a series response.
type SeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Stats summarizes the returned buckets, not the raw samples.
type Stats struct {
	Count      int       `json:"count"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Average    float64   `json:"average"`
	FirstValue float64   `json:"firstValue"`
	LastValue  float64   `json:"lastValue"`
	FirstTime  time.Time `json:"firstTime"`
	LastTime   time.Time `json:"lastTime"`
}

type SeriesResult struct {
	AssetID      uuid.UUID     `json:"assetId"`
	SignalTypeID uuid.UUID     `json:"signalTypeId"`
	DeviceID     uuid.UUID     `json:"deviceId"`
	MappingID    uuid.UUID     `json:"mappingId"`
	SignalName   string        `json:"signalName"`
	Unit         string        `json:"unit"`
	TimeRange    TimeRange     `json:"timeRange"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	Window       string        `json:"window"`
	Values       []SeriesPoint `json:"values"`
	Stats        Stats         `json:"stats"`
}

// Reader serves down-sampled series for an asset/signal pair.
type Reader struct {
	Mappings MappingLookup
	Query    QueryExecutor
	Bucket   string
	Logger   *zap.Logger
	Now      func() time.Time
}

func (r *Reader) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// GetSeries resolves the mapping, picks the aggregation window for the range,
// and returns mean-per-bucket values sorted ascending.
func (r *Reader) GetSeries(ctx context.Context, assetID, signalTypeID uuid.UUID, spec RangeSpec) (*SeriesResult, error) {
	if r == nil || r.Mappings == nil || r.Query == nil {
		return nil, fmt.Errorf("series reader not initialized")
	}

	start, end, err := spec.Resolve(r.now())
	if err != nil {
		return nil, err
	}

	m, err := r.Mappings.GetMappingByAssetSignal(ctx, assetID, signalTypeID)
	if err != nil {
		return nil, fmt.Errorf("resolve mapping: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: asset %s signal %s", ErrMappingNotFound, assetID, signalTypeID)
	}

	window := WindowFor(start, end)
	flux := buildSeriesFlux(r.Bucket, m.MappingID, start, end, window)

	values, err := r.Query.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("query series for mapping %s: %w", m.MappingID, err)
	}

	points := make([]SeriesPoint, 0, len(values))
	for _, v := range values {
		points = append(points, SeriesPoint{Time: v.Time, Value: v.Value})
	}

	return &SeriesResult{
		AssetID:      assetID,
		SignalTypeID: signalTypeID,
		DeviceID:     m.DeviceID,
		MappingID:    m.MappingID,
		SignalName:   m.SignalName,
		Unit:         m.SignalUnit,
		TimeRange:    spec.Range,
		StartTime:    start,
		EndTime:      end,
		Window:       FluxDuration(window),
		Values:       points,
		Stats:        computeStats(points),
	}, nil
}

// GetSeriesFrom serves the legacy endpoint: a raw start string (ISO 8601 or
// -<N>h/-<N>d shorthand) queried as a custom range ending now.
func (r *Reader) GetSeriesFrom(ctx context.Context, assetID, signalTypeID uuid.UUID, rawStart string) (*SeriesResult, error) {
	start, err := ParseStartTime(rawStart, r.now())
	if err != nil {
		return nil, err
	}
	return r.GetSeries(ctx, assetID, signalTypeID, RangeSpec{Range: RangeCustom, Start: &start})
}

func buildSeriesFlux(bucket string, mappingID uuid.UUID, start, end time.Time, window time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %q)\n", bucket)
	fmt.Fprintf(&b, "  |> range(start: %s, stop: %s)\n", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %q)\n", Measurement)
	b.WriteString("  |> filter(fn: (r) => r._field == \"value\")\n")
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r.mappingId == %q)\n", mappingID.String())
	fmt.Fprintf(&b, "  |> aggregateWindow(every: %s, fn: mean, createEmpty: false)\n", FluxDuration(window))
	b.WriteString("  |> keep(columns: [\"_time\", \"_value\"])\n")
	b.WriteString("  |> sort(columns: [\"_time\"], desc: false)")
	return b.String()
}

func computeStats(points []SeriesPoint) Stats {
	if len(points) == 0 {
		return Stats{}
	}
	s := Stats{
		Count:      len(points),
		Min:        points[0].Value,
		Max:        points[0].Value,
		FirstValue: points[0].Value,
		FirstTime:  points[0].Time,
		LastValue:  points[len(points)-1].Value,
		LastTime:   points[len(points)-1].Time,
	}
	var sum float64
	for _, p := range points {
		sum += p.Value
		if p.Value < s.Min {
			s.Min = p.Value
		}
		if p.Value > s.Max {
			s.Max = p.Value
		}
	}
	s.Average = sum / float64(len(points))
	return s
}
