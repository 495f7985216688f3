package timeseries

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"plantasset/internal/config"
)

// Influx owns the shared InfluxDB client plus the write and query surfaces
// the pipeline uses. Safe for concurrent use.
type Influx struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	query  api.QueryAPI
	bucket string
}

func NewInflux(cfg config.InfluxConfig) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		query:  client.QueryAPI(cfg.Org),
		bucket: cfg.Bucket,
	}
}

func (i *Influx) Bucket() string {
	if i == nil {
		return ""
	}
	return i.bucket
}

// Ping checks the server health endpoint.
func (i *Influx) Ping(ctx context.Context) error {
	if i == nil || i.client == nil {
		return fmt.Errorf("influx client not initialized")
	}
	ok, err := i.client.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("influx ping returned not ready")
	}
	return nil
}

func (i *Influx) Close() {
	if i == nil || i.client == nil {
		return
	}
	i.client.Close()
}

// TimedValue is one record from a Flux result, already coerced to float64.
type TimedValue struct {
	Time  time.Time
	Value float64
}

// QueryExecutor abstracts Flux execution so readers and reports can be
// tested without a live server.
type QueryExecutor interface {
	Query(ctx context.Context, flux string) ([]TimedValue, error)
}

// Query runs a Flux script and flattens the result into timed values.
func (i *Influx) Query(ctx context.Context, flux string) ([]TimedValue, error) {
	if i == nil || i.query == nil {
		return nil, fmt.Errorf("influx client not initialized")
	}
	result, err := i.query.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("flux query: %w", err)
	}
	defer result.Close()

	var out []TimedValue
	for result.Next() {
		rec := result.Record()
		v, ok := coerceFloat(rec.Value())
		if !ok {
			continue
		}
		out = append(out, TimedValue{Time: rec.Time(), Value: v})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("flux result: %w", err)
	}
	return out, nil
}

func coerceFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
