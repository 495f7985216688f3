package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plantasset/internal/mapping"
	"plantasset/internal/models"
)

// Metadata resolves the display name and threshold configuration for a sample.
type Metadata interface {
	GetAssetName(ctx context.Context, assetID uuid.UUID) (string, error)
	GetSignalType(ctx context.Context, signalTypeID uuid.UUID) (*models.SignalType, error)
}

// Trail persists the durable alert rows that mirror in-memory transitions.
type Trail interface {
	GetActiveAlert(ctx context.Context, mappingID uuid.UUID) (*models.Alert, error)
	CreateAlert(ctx context.Context, item *models.Alert) error
	WidenAlertObserved(ctx context.Context, alertID uuid.UUID, value float64, at time.Time) error
	ResolveAlert(ctx context.Context, alertID uuid.UUID, endUtc time.Time) error
}

// Notice is the notification payload emitted on start/resolve transitions.
type Notice struct {
	Title     string
	Text      string
	Priority  string
	ExpiresAt *time.Time
}

type Notifier interface {
	CreateForUsers(ctx context.Context, n Notice) error
}

// Sample is the part of a telemetry message the evaluator cares about.
type Sample struct {
	Value           float64
	RegisterAddress int
	Timestamp       time.Time
}

const (
	StatusHigh = "HIGH"
	StatusLow  = "LOW"
)

// Evaluator gates samples on the signal's canonical register, checks them
// against configured thresholds, and drives the per-mapping alert lifecycle.
type Evaluator struct {
	States   *StateStore
	Meta     Metadata
	Trail    Trail
	Notifier Notifier
	Logger   *zap.Logger
	Priority string
}

// Evaluate applies one resolved sample. Trail and notification failures are
// logged but never fail the pipeline; a missed write self-heals on the next
// sample.
func (e *Evaluator) Evaluate(ctx context.Context, m mapping.Info, sample Sample) error {
	if e == nil || e.States == nil || e.Meta == nil {
		return nil
	}

	st, err := e.Meta.GetSignalType(ctx, m.SignalTypeID)
	if err != nil {
		return fmt.Errorf("load signal type %s: %w", m.SignalTypeID, err)
	}
	if st == nil {
		return nil
	}

	// Only the canonical register for a signal type is threshold-evaluated;
	// other registers sharing the type carry auxiliary readings.
	if sample.RegisterAddress != st.DefaultRegisterAddress {
		return nil
	}

	outOfRange := sample.Value < st.MinThreshold || sample.Value > st.MaxThreshold
	outcome, snapshot := e.States.Transition(m.MappingID, outOfRange, sample.Value, sample.Timestamp)

	switch outcome {
	case OutcomeStarted:
		assetName, err := e.Meta.GetAssetName(ctx, m.AssetID)
		if err != nil {
			assetName = ""
			if e.Logger != nil {
				e.Logger.Warn("asset name lookup failed", zap.String("asset_id", m.AssetID.String()), zap.Error(err))
			}
		}
		e.recordStart(ctx, m, st, assetName, snapshot)
		e.notifyStart(ctx, m, st, assetName, sample)

	case OutcomeUpdated:
		e.recordUpdate(ctx, m, sample)

	case OutcomeResolved:
		assetName, err := e.Meta.GetAssetName(ctx, m.AssetID)
		if err != nil {
			assetName = ""
		}
		e.recordResolve(ctx, m, sample)
		e.notifyResolve(ctx, m, st, assetName, snapshot)
	}

	return nil
}

func (e *Evaluator) recordStart(ctx context.Context, m mapping.Info, st *models.SignalType, assetName string, snapshot *State) {
	if e.Trail == nil || snapshot == nil {
		return
	}
	v := snapshot.MaxValue
	alert := &models.Alert{
		AlertID:          uuid.New(),
		AssetID:          m.AssetID,
		AssetName:        assetName,
		SignalTypeID:     m.SignalTypeID,
		SignalName:       st.SignalName,
		MappingID:        m.MappingID,
		AlertStartUtc:    snapshot.StartUtc,
		MinThreshold:     st.MinThreshold,
		MaxThreshold:     st.MaxThreshold,
		MinObservedValue: &v,
		MaxObservedValue: &v,
		IsActive:         true,
	}
	if err := e.Trail.CreateAlert(ctx, alert); err != nil && e.Logger != nil {
		e.Logger.Error("alert row create failed", zap.String("mapping_id", m.MappingID.String()), zap.Error(err))
	}
}

func (e *Evaluator) recordUpdate(ctx context.Context, m mapping.Info, sample Sample) {
	if e.Trail == nil {
		return
	}
	row, err := e.Trail.GetActiveAlert(ctx, m.MappingID)
	if err != nil || row == nil {
		if err != nil && e.Logger != nil {
			e.Logger.Warn("active alert row lookup failed", zap.String("mapping_id", m.MappingID.String()), zap.Error(err))
		}
		return
	}
	if err := e.Trail.WidenAlertObserved(ctx, row.AlertID, sample.Value, sample.Timestamp); err != nil && e.Logger != nil {
		e.Logger.Warn("alert row update failed", zap.String("alert_id", row.AlertID.String()), zap.Error(err))
	}
}

func (e *Evaluator) recordResolve(ctx context.Context, m mapping.Info, sample Sample) {
	if e.Trail == nil {
		return
	}
	row, err := e.Trail.GetActiveAlert(ctx, m.MappingID)
	if err != nil || row == nil {
		if err != nil && e.Logger != nil {
			e.Logger.Warn("active alert row lookup failed", zap.String("mapping_id", m.MappingID.String()), zap.Error(err))
		}
		return
	}
	if err := e.Trail.ResolveAlert(ctx, row.AlertID, sample.Timestamp); err != nil && e.Logger != nil {
		e.Logger.Warn("alert row resolve failed", zap.String("alert_id", row.AlertID.String()), zap.Error(err))
	}
}

func (e *Evaluator) notifyStart(ctx context.Context, m mapping.Info, st *models.SignalType, assetName string, sample Sample) {
	if e.Notifier == nil {
		return
	}
	status := StatusHigh
	if sample.Value < st.MinThreshold {
		status = StatusLow
	}
	percent := deviationPercent(sample.Value, st.MinThreshold, st.MaxThreshold)
	n := Notice{
		Title: fmt.Sprintf("Alert: %s %s on %s", st.SignalName, status, assetName),
		Text: fmt.Sprintf(
			"%s reading %.2f %s is %s, outside thresholds [%.2f, %.2f] by %.1f%%.",
			st.SignalName, sample.Value, st.SignalUnit, status,
			st.MinThreshold, st.MaxThreshold, percent,
		),
		Priority: e.Priority,
	}
	if err := e.Notifier.CreateForUsers(ctx, n); err != nil && e.Logger != nil {
		e.Logger.Error("alert start notification failed", zap.String("mapping_id", m.MappingID.String()), zap.Error(err))
	}
}

func (e *Evaluator) notifyResolve(ctx context.Context, m mapping.Info, st *models.SignalType, assetName string, final *State) {
	if e.Notifier == nil || final == nil {
		return
	}
	duration := final.LastUpdatedUtc.Sub(final.StartUtc)
	n := Notice{
		Title: fmt.Sprintf("Resolved: %s on %s back in range", st.SignalName, assetName),
		Text: fmt.Sprintf(
			"%s on %s recovered after %.0f seconds. Observed range during the alert: min %.2f, max %.2f %s.",
			st.SignalName, assetName, duration.Seconds(),
			final.MinValue, final.MaxValue, st.SignalUnit,
		),
		Priority: e.Priority,
	}
	if err := e.Notifier.CreateForUsers(ctx, n); err != nil && e.Logger != nil {
		e.Logger.Error("alert resolve notification failed", zap.String("mapping_id", m.MappingID.String()), zap.Error(err))
	}
}

// deviationPercent reports how far a value sits outside [min, max], relative
// to the violated bound.
func deviationPercent(value, minThreshold, maxThreshold float64) float64 {
	switch {
	case value > maxThreshold && maxThreshold != 0:
		return (value - maxThreshold) / maxThreshold * 100
	case value < minThreshold && minThreshold != 0:
		return (minThreshold - value) / minThreshold * 100
	default:
		return 0
	}
}
