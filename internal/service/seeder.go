package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plantasset/internal/models"
	"plantasset/internal/repository"
)

// seedSignalTypes is the canonical signal catalog. Register addresses follow
// the Modbus holding-register convention used by the edge gateways.
var seedSignalTypes = []models.SignalType{
	{SignalName: "Temperature", SignalUnit: "°C", MinThreshold: 10, MaxThreshold: 80, DefaultRegisterAddress: 40001},
	{SignalName: "Pressure", SignalUnit: "bar", MinThreshold: 1, MaxThreshold: 10, DefaultRegisterAddress: 40002},
	{SignalName: "Humidity", SignalUnit: "%", MinThreshold: 20, MaxThreshold: 80, DefaultRegisterAddress: 40003},
	{SignalName: "Vibration", SignalUnit: "mm/s", MinThreshold: 0, MaxThreshold: 7, DefaultRegisterAddress: 40004},
	{SignalName: "Voltage", SignalUnit: "V", MinThreshold: 210, MaxThreshold: 240, DefaultRegisterAddress: 40005},
	{SignalName: "Current", SignalUnit: "A", MinThreshold: 0, MaxThreshold: 100, DefaultRegisterAddress: 40006},
	{SignalName: "Power", SignalUnit: "kW", MinThreshold: 0, MaxThreshold: 500, DefaultRegisterAddress: 40007},
	{SignalName: "Frequency", SignalUnit: "Hz", MinThreshold: 49, MaxThreshold: 51, DefaultRegisterAddress: 40008},
	{SignalName: "FlowRate", SignalUnit: "m³/h", MinThreshold: 0, MaxThreshold: 200, DefaultRegisterAddress: 40009},
	{SignalName: "Level", SignalUnit: "%", MinThreshold: 10, MaxThreshold: 90, DefaultRegisterAddress: 40010},
	{SignalName: "Speed", SignalUnit: "m/s", MinThreshold: 0, MaxThreshold: 50, DefaultRegisterAddress: 40011},
	{SignalName: "Torque", SignalUnit: "Nm", MinThreshold: 0, MaxThreshold: 400, DefaultRegisterAddress: 40012},
	{SignalName: "RPM", SignalUnit: "rpm", MinThreshold: 500, MaxThreshold: 3000, DefaultRegisterAddress: 40013},
}

// SeedSignalTypes upserts the signal catalog by name. Safe to run on every
// start; existing rows keep their primary keys.
func SeedSignalTypes(ctx context.Context, repo repository.Repository, logger *zap.Logger) error {
	for _, st := range seedSignalTypes {
		item := st
		item.SignalTypeID = uuid.New()
		if err := repo.UpsertSignalTypeByName(ctx, &item); err != nil {
			return fmt.Errorf("seed signal type %s: %w", st.SignalName, err)
		}
	}
	if logger != nil {
		logger.Info("signal type catalog seeded", zap.Int("count", len(seedSignalTypes)))
	}
	return nil
}
