package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"plantasset/internal/config"
	"plantasset/internal/models"
	"plantasset/internal/timeseries"
)

type reportRepo struct {
	*fakeRepo
	mappingIDs []uuid.UUID
	stored     *models.ReportRequest
}

func (r *reportRepo) ListMappingIDs(ctx context.Context, assetID uuid.UUID, signalTypeIDs []uuid.UUID) ([]uuid.UUID, error) {
	return r.mappingIDs, nil
}

func (r *reportRepo) ListSignalTypeIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return ids, nil
}

func (r *reportRepo) CreateReportRequest(ctx context.Context, item *models.ReportRequest) error {
	r.stored = item
	return nil
}

type countQuery struct {
	flux  string
	count float64
}

func (q *countQuery) Query(ctx context.Context, flux string) ([]timeseries.TimedValue, error) {
	q.flux = flux
	return []timeseries.TimedValue{{Value: q.count}}, nil
}

type fakePublisher struct {
	queue   string
	payload interface{}
}

func (p *fakePublisher) PublishJSON(ctx context.Context, queue string, payload interface{}) error {
	p.queue = queue
	p.payload = payload
	return nil
}

func testReports(count float64, mappingIDs []uuid.UUID) (*Reports, *reportRepo, *countQuery, *fakePublisher) {
	repo := &reportRepo{fakeRepo: newFakeRepo(), mappingIDs: mappingIDs}
	q := &countQuery{count: count}
	pub := &fakePublisher{}
	r := &Reports{
		Repo:   repo,
		Query:  q,
		Queue:  pub,
		Bucket: "telemetry",
		Cfg:    config.ReportsConfig{MaxExcelRows: 100000, MaxCSVRows: 1000000},
		Rabbit: config.RabbitConfig{ReportQueue: "report_request_queue"},
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return r, repo, q, pub
}

func validInput() ReportInput {
	return ReportInput{
		AssetID:       uuid.New(),
		SignalTypeIDs: []uuid.UUID{uuid.New()},
		StartDate:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Format:        FormatCSV,
	}
}

func TestReports_RequestQueuesWithinLimit(t *testing.T) {
	mappingID := uuid.New()
	r, repo, q, pub := testReports(5000, []uuid.UUID{mappingID})

	item, err := r.Request(context.Background(), validInput())
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if item.TotalRows != 5000 || item.Status != ReportStatusQueued {
		t.Fatalf("stored row: %+v", item)
	}
	if repo.stored == nil {
		t.Fatalf("request not persisted")
	}
	if pub.queue != "report_request_queue" {
		t.Fatalf("published to %q", pub.queue)
	}
	queued, ok := pub.payload.(QueuedReport)
	if !ok {
		t.Fatalf("payload type %T", pub.payload)
	}
	if queued.RequestID != item.ID || queued.TotalRows != 5000 {
		t.Fatalf("queued payload: %+v", queued)
	}
	if !strings.Contains(q.flux, `contains(value: r.mappingId, set: ["`+mappingID.String()+`"])`) {
		t.Fatalf("count flux missing mapping filter:\n%s", q.flux)
	}
	if !strings.Contains(q.flux, "count()") {
		t.Fatalf("count flux missing count():\n%s", q.flux)
	}
}

func TestReports_ExcelOverflowFallsBackToCSV(t *testing.T) {
	r, repo, _, pub := testReports(250000, []uuid.UUID{uuid.New()})

	in := validInput()
	in.Format = FormatExcel
	item, err := r.Request(context.Background(), in)
	if err != nil {
		t.Fatalf("excel over workbook limit: %v", err)
	}
	if item.Format != FormatCSV {
		t.Fatalf("stored format %q, want %q", item.Format, FormatCSV)
	}
	if repo.stored == nil || repo.stored.Format != FormatCSV {
		t.Fatalf("persisted row: %+v", repo.stored)
	}
	queued, ok := pub.payload.(QueuedReport)
	if !ok {
		t.Fatalf("payload type %T", pub.payload)
	}
	if queued.Format != FormatCSV {
		t.Fatalf("queued format %q, want %q", queued.Format, FormatCSV)
	}
}

func TestReports_CSVRowGate(t *testing.T) {
	r, repo, _, pub := testReports(2500000, []uuid.UUID{uuid.New()})

	for _, format := range []string{FormatExcel, FormatCSV} {
		in := validInput()
		in.Format = format
		if _, err := r.Request(context.Background(), in); !errors.Is(err, ErrReportTooLarge) {
			t.Fatalf("%s over csv limit: err=%v", format, err)
		}
	}
	if repo.stored != nil || pub.payload != nil {
		t.Fatalf("rejected request left side effects")
	}
}

func TestReports_Validation(t *testing.T) {
	r, _, _, _ := testReports(10, []uuid.UUID{uuid.New()})
	ctx := context.Background()

	in := validInput()
	in.Format = "pdf"
	if _, err := r.Request(ctx, in); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("format: err=%v", err)
	}

	in = validInput()
	in.SignalTypeIDs = nil
	if _, err := r.Request(ctx, in); !errors.Is(err, ErrNoSignalsSelected) {
		t.Fatalf("signals: err=%v", err)
	}

	in = validInput()
	in.StartDate, in.EndDate = in.EndDate, in.StartDate
	if _, err := r.Request(ctx, in); !errors.Is(err, timeseries.ErrInvalidRange) {
		t.Fatalf("range: err=%v", err)
	}
}

func TestReports_NoMappingsForScope(t *testing.T) {
	r, _, _, _ := testReports(10, nil)
	if _, err := r.Request(context.Background(), validInput()); !errors.Is(err, ErrNoMappingsForScope) {
		t.Fatalf("err=%v", err)
	}
}
