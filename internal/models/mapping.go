package models

import (
	"time"

	"github.com/google/uuid"
)

// AssetSignalDeviceMapping binds a physical (device, port, register) to a
// logical (asset, signal type). One mapping per device/port pair.
type AssetSignalDeviceMapping struct {
	MappingID uuid.UUID `gorm:"type:uuid;primaryKey" json:"mappingId"`

	AssetID      uuid.UUID `gorm:"type:uuid;not null;index" json:"assetId"`
	SignalTypeID uuid.UUID `gorm:"type:uuid;not null;index" json:"signalTypeId"`

	DeviceID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_device_port" json:"deviceId"`
	DevicePortID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_device_port" json:"devicePortId"`

	SignalName      string `gorm:"type:varchar(100)" json:"signalName"`
	SignalUnit      string `gorm:"type:varchar(50);not null" json:"signalUnit"`
	RegisterAddress int    `gorm:"not null" json:"registerAddress"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
}

func (AssetSignalDeviceMapping) TableName() string {
	return "asset_signal_device_mappings"
}
