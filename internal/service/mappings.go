package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plantasset/internal/models"
	"plantasset/internal/repository"
)

var (
	ErrSignalTypeNotFound  = errors.New("signal type not found")
	ErrDuplicateDevicePort = errors.New("device port already mapped")
	ErrMappingRowNotFound  = errors.New("mapping not found")
)

// Refresher lets the mapping service push a cache reload after writes instead
// of waiting out the refresh interval.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Mappings manages the device-to-asset binding rows behind the cache.
type Mappings struct {
	Repo   repository.Repository
	Cache  Refresher
	Logger *zap.Logger
}

type CreateMappingInput struct {
	AssetID         uuid.UUID `json:"assetId"`
	SignalTypeID    uuid.UUID `json:"signalTypeId"`
	DeviceID        uuid.UUID `json:"deviceId"`
	DevicePortID    uuid.UUID `json:"devicePortId"`
	RegisterAddress int       `json:"registerAddress"`
}

// Create binds a device port to an asset/signal pair. The port must be free
// and both sides of the binding must exist.
func (m *Mappings) Create(ctx context.Context, in CreateMappingInput) (*models.AssetSignalDeviceMapping, error) {
	if m == nil || m.Repo == nil {
		return nil, fmt.Errorf("mapping service not initialized")
	}

	asset, err := m.Repo.GetAsset(ctx, in.AssetID)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset == nil || asset.IsDeleted {
		return nil, ErrAssetNotFound
	}
	st, err := m.Repo.GetSignalType(ctx, in.SignalTypeID)
	if err != nil {
		return nil, fmt.Errorf("load signal type: %w", err)
	}
	if st == nil {
		return nil, ErrSignalTypeNotFound
	}

	existing, err := m.Repo.GetMappingByDevicePort(ctx, in.DeviceID, in.DevicePortID)
	if err != nil {
		return nil, fmt.Errorf("check device port: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: device %s port %s", ErrDuplicateDevicePort, in.DeviceID, in.DevicePortID)
	}

	register := in.RegisterAddress
	if register == 0 {
		register = st.DefaultRegisterAddress
	}
	item := &models.AssetSignalDeviceMapping{
		MappingID:       uuid.New(),
		AssetID:         in.AssetID,
		SignalTypeID:    in.SignalTypeID,
		DeviceID:        in.DeviceID,
		DevicePortID:    in.DevicePortID,
		SignalName:      st.SignalName,
		SignalUnit:      st.SignalUnit,
		RegisterAddress: register,
	}
	if err := m.Repo.CreateMapping(ctx, item); err != nil {
		return nil, fmt.Errorf("create mapping: %w", err)
	}
	m.refresh(ctx)
	if m.Logger != nil {
		m.Logger.Info("mapping created",
			zap.String("mapping_id", item.MappingID.String()),
			zap.String("asset_id", in.AssetID.String()),
			zap.String("signal", st.SignalName))
	}
	return item, nil
}

func (m *Mappings) Delete(ctx context.Context, mappingID uuid.UUID) error {
	if err := m.Repo.DeleteMapping(ctx, mappingID); err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	m.refresh(ctx)
	return nil
}

func (m *Mappings) List(ctx context.Context) ([]models.AssetSignalDeviceMapping, error) {
	return m.Repo.ListMappings(ctx)
}

// refresh is best effort; the periodic loop catches up either way.
func (m *Mappings) refresh(ctx context.Context) {
	if m.Cache == nil {
		return
	}
	if err := m.Cache.Refresh(ctx); err != nil && m.Logger != nil {
		m.Logger.Warn("mapping cache refresh after write failed", zap.Error(err))
	}
}
