package models

import (
	"time"

	"github.com/google/uuid"
)

// Alert is the durable trail of a threshold violation. The in-memory state
// store decides transitions; rows here are the audit/reporting view.
type Alert struct {
	AlertID uuid.UUID `gorm:"type:uuid;primaryKey" json:"alertId"`

	AssetID   uuid.UUID `gorm:"type:uuid;not null;index" json:"assetId"`
	AssetName string    `gorm:"type:varchar(200)" json:"assetName"`

	SignalTypeID uuid.UUID `gorm:"type:uuid;not null;index" json:"signalTypeId"`
	SignalName   string    `gorm:"type:varchar(100)" json:"signalName"`

	MappingID uuid.UUID `gorm:"type:uuid;not null;index" json:"mappingId"`

	AlertStartUtc time.Time  `gorm:"type:timestamptz;not null" json:"alertStartUtc"`
	AlertEndUtc   *time.Time `gorm:"type:timestamptz" json:"alertEndUtc,omitempty"`

	MinThreshold float64 `gorm:"not null" json:"minThreshold"`
	MaxThreshold float64 `gorm:"not null" json:"maxThreshold"`

	MinObservedValue *float64 `json:"minObservedValue,omitempty"`
	MaxObservedValue *float64 `json:"maxObservedValue,omitempty"`

	ReminderTimeHours int `gorm:"not null;default:24" json:"reminderTimeHours"`

	IsActive   bool `gorm:"not null;index" json:"isActive"`
	IsAnalyzed bool `gorm:"not null;default:false" json:"isAnalyzed"`

	CreatedUtc time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdUtc"`
	UpdatedUtc time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updatedUtc"`
}

func (Alert) TableName() string {
	return "alerts"
}
