package models

import (
	"github.com/google/uuid"
)

// SignalType carries the threshold configuration used for alert evaluation.
// DefaultRegisterAddress is the canonical register for the signal: samples
// from other registers sharing the type are never threshold-evaluated.
type SignalType struct {
	SignalTypeID uuid.UUID `gorm:"type:uuid;primaryKey" json:"signalTypeId"`
	SignalName   string    `gorm:"type:varchar(100);not null" json:"signalName"`
	SignalUnit   string    `gorm:"type:varchar(50);not null" json:"signalUnit"`

	MinThreshold           float64 `gorm:"not null" json:"minThreshold"`
	MaxThreshold           float64 `gorm:"not null" json:"maxThreshold"`
	DefaultRegisterAddress int     `gorm:"not null" json:"defaultRegisterAddress"`
}

func (SignalType) TableName() string {
	return "signal_types"
}
