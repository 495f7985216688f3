package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"plantasset/internal/alerting"
	"plantasset/internal/mapping"
	"plantasset/internal/timeseries"
)

// Resolver answers device/port lookups from the mapping cache snapshot.
type Resolver interface {
	TryGet(deviceID, devicePortID uuid.UUID) (mapping.Info, bool)
}

// Evaluator drives the alert lifecycle for a resolved sample.
type Evaluator interface {
	Evaluate(ctx context.Context, m mapping.Info, sample alerting.Sample) error
}

// Consumer opens a manual-ack delivery stream on the named queue.
type Consumer interface {
	Consume(queue, consumerTag string) (*amqp.Channel, <-chan amqp.Delivery, error)
}

// Worker consumes telemetry messages, enriches them through the mapping
// cache, persists them, and feeds threshold evaluation. Every message is
// acknowledged exactly once: poison and unmapped messages are dropped, and
// downstream failures never leave a delivery pending redelivery.
type Worker struct {
	Broker    Consumer
	Cache     Resolver
	Writer    timeseries.PointWriter
	Evaluator Evaluator
	Logger    *zap.Logger
	Queue     string
}

const consumerTag = "telemetry-ingestion-worker"

// Run consumes until the context is cancelled or the delivery stream closes.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.Broker == nil {
		return fmt.Errorf("ingestion worker not initialized")
	}

	ch, deliveries, err := w.Broker.Consume(w.Queue, consumerTag)
	if err != nil {
		return fmt.Errorf("start consumer on %s: %w", w.Queue, err)
	}
	defer ch.Close()

	if w.Logger != nil {
		w.Logger.Info("telemetry consumer started", zap.String("queue", w.Queue))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery stream on %s closed", w.Queue)
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle processes one delivery and always acknowledges it, recovering any
// panic from a collaborator. A message that cannot be processed is dropped
// rather than requeued; redelivery would fail the same way and block the queue.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	defer func() {
		if rec := recover(); rec != nil && w.Logger != nil {
			w.Logger.Error("telemetry handler panicked",
				zap.Uint64("delivery_tag", d.DeliveryTag), zap.Any("panic", rec))
		}
		if err := d.Ack(false); err != nil && w.Logger != nil {
			w.Logger.Error("ack failed", zap.Uint64("delivery_tag", d.DeliveryTag), zap.Error(err))
		}
	}()

	sample, err := DecodeSample(d.Body)
	if err != nil {
		if w.Logger != nil {
			w.Logger.Warn("dropping poison telemetry message", zap.Error(err))
		}
		return
	}

	info, ok := w.Cache.TryGet(sample.DeviceID, sample.DeviceSlaveID)
	if !ok {
		if w.Logger != nil {
			w.Logger.Debug("dropping unmapped telemetry message",
				zap.String("device_id", sample.DeviceID.String()),
				zap.String("device_port_id", sample.DeviceSlaveID.String()))
		}
		return
	}

	point := timeseries.Point{
		AssetID:         info.AssetID,
		SignalTypeID:    info.SignalTypeID,
		DeviceID:        sample.DeviceID,
		DevicePortID:    sample.DeviceSlaveID,
		MappingID:       info.MappingID,
		RegisterAddress: sample.RegisterAddress,
		SignalName:      info.SignalName,
		Value:           sample.Value,
		Unit:            sample.Unit,
		Timestamp:       sample.Timestamp.UTC(),
	}
	if err := w.Writer.WritePoint(ctx, point); err != nil && w.Logger != nil {
		w.Logger.Error("telemetry point write failed",
			zap.String("mapping_id", info.MappingID.String()), zap.Error(err))
	}

	if w.Evaluator != nil {
		s := alerting.Sample{
			Value:           sample.Value,
			RegisterAddress: sample.RegisterAddress,
			Timestamp:       sample.Timestamp.UTC(),
		}
		if err := w.Evaluator.Evaluate(ctx, info, s); err != nil && w.Logger != nil {
			w.Logger.Error("threshold evaluation failed",
				zap.String("mapping_id", info.MappingID.String()), zap.Error(err))
		}
	}
}
