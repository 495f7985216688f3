package timeseries

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// Measurement holding every telemetry sample.
const Measurement = "signals"

// Point is one enriched telemetry sample ready to persist.
type Point struct {
	AssetID         uuid.UUID
	SignalTypeID    uuid.UUID
	DeviceID        uuid.UUID
	DevicePortID    uuid.UUID
	MappingID       uuid.UUID
	RegisterAddress int
	SignalName      string
	Value           float64
	Unit            string
	Timestamp       time.Time
}

// PointWriter persists enriched samples. Satisfied by Influx; faked in tests.
type PointWriter interface {
	WritePoint(ctx context.Context, p Point) error
}

// WritePoint stores one sample with nanosecond precision. Tags carry the
// resolved identity so series can be filtered on any dimension.
func (i *Influx) WritePoint(ctx context.Context, p Point) error {
	if i == nil || i.write == nil {
		return fmt.Errorf("influx client not initialized")
	}
	pt := influxdb2.NewPoint(
		Measurement,
		map[string]string{
			"assetId":         p.AssetID.String(),
			"signalTypeId":    p.SignalTypeID.String(),
			"deviceId":        p.DeviceID.String(),
			"devicePortId":    p.DevicePortID.String(),
			"mappingId":       p.MappingID.String(),
			"registerAddress": strconv.Itoa(p.RegisterAddress),
			"signalName":      p.SignalName,
		},
		map[string]interface{}{
			"value": p.Value,
			"unit":  p.Unit,
		},
		p.Timestamp,
	)
	if err := i.write.WritePoint(ctx, pt); err != nil {
		return fmt.Errorf("write point: %w", err)
	}
	return nil
}
