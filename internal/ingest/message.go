package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// TelemetrySample is the wire shape produced by the edge gateways. Field
// casing is fixed by the publishers and must not change.
type TelemetrySample struct {
	DeviceID        uuid.UUID `json:"DeviceId"`
	DeviceSlaveID   uuid.UUID `json:"deviceSlaveId"`
	SlaveIndex      int       `json:"slaveIndex"`
	RegisterAddress int       `json:"RegisterAddress"`
	SignalType      string    `json:"SignalType"`
	Value           float64   `json:"Value"`
	Unit            string    `json:"Unit"`
	Timestamp       time.Time `json:"Timestamp"`
}

// DecodeSample parses and validates one queue message body.
func DecodeSample(body []byte) (TelemetrySample, error) {
	var s TelemetrySample
	if err := json.Unmarshal(body, &s); err != nil {
		return TelemetrySample{}, fmt.Errorf("decode telemetry message: %w", err)
	}
	if err := s.Validate(); err != nil {
		return TelemetrySample{}, err
	}
	return s, nil
}

func (s TelemetrySample) Validate() error {
	if s.DeviceID == uuid.Nil {
		return fmt.Errorf("telemetry message missing DeviceId")
	}
	if s.DeviceSlaveID == uuid.Nil {
		return fmt.Errorf("telemetry message missing deviceSlaveId")
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("telemetry message missing Timestamp")
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return fmt.Errorf("telemetry message value is not finite")
	}
	return nil
}
