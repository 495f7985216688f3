package timeseries

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"plantasset/internal/models"
)

type stubMappings struct {
	row *models.AssetSignalDeviceMapping
	err error
}

func (s *stubMappings) GetMappingByAssetSignal(ctx context.Context, assetID, signalTypeID uuid.UUID) (*models.AssetSignalDeviceMapping, error) {
	return s.row, s.err
}

type stubQuery struct {
	flux   string
	values []TimedValue
	err    error
}

func (s *stubQuery) Query(ctx context.Context, flux string) ([]TimedValue, error) {
	s.flux = flux
	return s.values, s.err
}

func testReader(row *models.AssetSignalDeviceMapping, q *stubQuery, now time.Time) *Reader {
	return &Reader{
		Mappings: &stubMappings{row: row},
		Query:    q,
		Bucket:   "telemetry",
		Now:      func() time.Time { return now },
	}
}

func testMappingRow() *models.AssetSignalDeviceMapping {
	return &models.AssetSignalDeviceMapping{
		MappingID:       uuid.New(),
		AssetID:         uuid.New(),
		SignalTypeID:    uuid.New(),
		DeviceID:        uuid.New(),
		DevicePortID:    uuid.New(),
		SignalName:      "Temperature",
		SignalUnit:      "°C",
		RegisterAddress: 40001,
	}
}

func TestGetSeries_BuildsFluxAndStats(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := testMappingRow()
	q := &stubQuery{values: []TimedValue{
		{Time: now.Add(-3 * time.Minute), Value: 10},
		{Time: now.Add(-2 * time.Minute), Value: 30},
		{Time: now.Add(-time.Minute), Value: 20},
	}}
	r := testReader(row, q, now)

	res, err := r.GetSeries(context.Background(), row.AssetID, row.SignalTypeID, RangeSpec{Range: RangeLastHour})
	if err != nil {
		t.Fatalf("get series: %v", err)
	}

	for _, fragment := range []string{
		`from(bucket: "telemetry")`,
		`r._measurement == "signals"`,
		`r._field == "value"`,
		`r.mappingId == "` + row.MappingID.String() + `"`,
		"aggregateWindow(every: 5s, fn: mean, createEmpty: false)",
		`sort(columns: ["_time"], desc: false)`,
	} {
		if !strings.Contains(q.flux, fragment) {
			t.Fatalf("flux missing %q:\n%s", fragment, q.flux)
		}
	}

	if res.Window != "5s" {
		t.Fatalf("window=%q want 5s", res.Window)
	}
	if res.SignalName != "Temperature" || res.Unit != "°C" {
		t.Fatalf("metadata not carried: %+v", res)
	}
	if len(res.Values) != 3 {
		t.Fatalf("values=%d want 3", len(res.Values))
	}
	s := res.Stats
	if s.Count != 3 || s.Min != 10 || s.Max != 30 || s.Average != 20 {
		t.Fatalf("stats=%+v", s)
	}
	if s.FirstValue != 10 || s.LastValue != 20 {
		t.Fatalf("first/last=%v/%v want 10/20", s.FirstValue, s.LastValue)
	}
}

func TestGetSeries_WindowTracksRange(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := testMappingRow()
	q := &stubQuery{}
	r := testReader(row, q, now)

	res, err := r.GetSeries(context.Background(), row.AssetID, row.SignalTypeID, RangeSpec{Range: RangeLast7Days})
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if res.Window != "5m" {
		t.Fatalf("window=%q want 5m for a 7 day range", res.Window)
	}
	if !strings.Contains(q.flux, "aggregateWindow(every: 5m") {
		t.Fatalf("flux window mismatch:\n%s", q.flux)
	}
}

func TestGetSeries_MappingNotFound(t *testing.T) {
	now := time.Now().UTC()
	r := testReader(nil, &stubQuery{}, now)

	_, err := r.GetSeries(context.Background(), uuid.New(), uuid.New(), RangeSpec{Range: RangeLastHour})
	if !errors.Is(err, ErrMappingNotFound) {
		t.Fatalf("err=%v want ErrMappingNotFound", err)
	}
}

func TestGetSeries_InvalidRangeBeforeLookup(t *testing.T) {
	now := time.Now().UTC()
	r := testReader(testMappingRow(), &stubQuery{}, now)

	_, err := r.GetSeries(context.Background(), uuid.New(), uuid.New(), RangeSpec{Range: RangeCustom})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("err=%v want ErrInvalidRange", err)
	}
}

func TestGetSeries_QueryFailure(t *testing.T) {
	now := time.Now().UTC()
	row := testMappingRow()
	q := &stubQuery{err: errors.New("connection refused")}
	r := testReader(row, q, now)

	_, err := r.GetSeries(context.Background(), row.AssetID, row.SignalTypeID, RangeSpec{Range: RangeLastHour})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("err=%v want wrapped query failure", err)
	}
}

func TestGetSeriesFrom_RelativeShorthand(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := testMappingRow()
	q := &stubQuery{}
	r := testReader(row, q, now)

	res, err := r.GetSeriesFrom(context.Background(), row.AssetID, row.SignalTypeID, "-24h")
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if !res.StartTime.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("start=%v want now-24h", res.StartTime)
	}
	if res.Window != "1m" {
		t.Fatalf("window=%q want 1m", res.Window)
	}

	if _, err := r.GetSeriesFrom(context.Background(), row.AssetID, row.SignalTypeID, "-7x"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("err=%v want ErrInvalidFormat", err)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	if s := computeStats(nil); s.Count != 0 || s.Min != 0 || s.Max != 0 {
		t.Fatalf("empty stats=%+v", s)
	}
}
