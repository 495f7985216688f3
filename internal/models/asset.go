package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset is a node in the plant hierarchy (plant → unit → equipment → ...).
type Asset struct {
	AssetID  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"assetId"`
	Name     string     `gorm:"type:varchar(200);not null;index" json:"name"`
	ParentID *uuid.UUID `gorm:"type:uuid;index" json:"parentId,omitempty"`
	Level    int        `gorm:"not null" json:"level"`

	// Soft delete flag; deleted assets stay addressable for restore.
	IsDeleted bool `gorm:"not null;default:false;index" json:"isDeleted"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updatedAt"`
}

func (Asset) TableName() string {
	return "assets"
}
