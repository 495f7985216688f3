package mapping

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plantasset/internal/models"
)

// Info is the resolved mapping for one (device, port) pair. Snapshots are
// immutable; a refresh publishes a whole new map and swaps the pointer.
type Info struct {
	MappingID       uuid.UUID
	AssetID         uuid.UUID
	SignalTypeID    uuid.UUID
	SignalName      string
	SignalUnit      string
	RegisterAddress int
}

type Key struct {
	DeviceID     uuid.UUID
	DevicePortID uuid.UUID
}

// Source yields the full mapping set on every refresh.
type Source interface {
	ListMappings(ctx context.Context) ([]models.AssetSignalDeviceMapping, error)
}

// Cache resolves device telemetry to logical identities. Reads are lock-free:
// TryGet loads the current snapshot pointer and never observes a partially
// built map. Staleness is bounded by the refresh interval.
type Cache struct {
	source   Source
	logger   *zap.Logger
	interval time.Duration

	snapshot atomic.Pointer[map[Key]Info]
}

const DefaultRefreshInterval = 5 * time.Second

func NewCache(source Source, logger *zap.Logger, interval time.Duration) *Cache {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	c := &Cache{
		source:   source,
		logger:   logger,
		interval: interval,
	}
	empty := map[Key]Info{}
	c.snapshot.Store(&empty)
	return c
}

// TryGet returns the mapping for a device/port pair from the most recently
// completed refresh. Non-blocking.
func (c *Cache) TryGet(deviceID, devicePortID uuid.UUID) (Info, bool) {
	if c == nil {
		return Info{}, false
	}
	snap := c.snapshot.Load()
	info, ok := (*snap)[Key{DeviceID: deviceID, DevicePortID: devicePortID}]
	return info, ok
}

// Len reports the size of the current snapshot.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(*c.snapshot.Load())
}

// Refresh reloads the mapping set and atomically replaces the snapshot.
func (c *Cache) Refresh(ctx context.Context) error {
	rows, err := c.source.ListMappings(ctx)
	if err != nil {
		return err
	}
	next := make(map[Key]Info, len(rows))
	for _, r := range rows {
		next[Key{DeviceID: r.DeviceID, DevicePortID: r.DevicePortID}] = Info{
			MappingID:       r.MappingID,
			AssetID:         r.AssetID,
			SignalTypeID:    r.SignalTypeID,
			SignalName:      r.SignalName,
			SignalUnit:      r.SignalUnit,
			RegisterAddress: r.RegisterAddress,
		}
	}
	c.snapshot.Store(&next)
	return nil
}

// Run refreshes once immediately, then on the configured interval until the
// context is cancelled. Refresh failures keep the previous snapshot and never
// stop the loop.
func (c *Cache) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.Refresh(ctx); err != nil && c.logger != nil {
		c.logger.Warn("mapping cache initial refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				if c.logger != nil {
					c.logger.Warn("mapping cache refresh failed", zap.Error(err))
				}
				continue
			}
		}
	}
}
