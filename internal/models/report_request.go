package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReportRequest records an accepted export request before it is handed to the
// report queue. The file itself is produced by a separate consumer.
type ReportRequest struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	AssetID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"assetId"`
	SignalIDs  datatypes.JSON `gorm:"type:jsonb;not null" json:"signalIds"`
	MappingIDs datatypes.JSON `gorm:"type:jsonb;not null" json:"mappingIds"`

	StartDate time.Time `gorm:"type:timestamptz;not null" json:"startDate"`
	EndDate   time.Time `gorm:"type:timestamptz;not null" json:"endDate"`

	Format    string `gorm:"type:varchar(10);not null" json:"format"`
	TotalRows int64  `gorm:"not null" json:"totalRows"`
	Status    string `gorm:"type:varchar(20);not null;default:'queued';index" json:"status"`

	RequestedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"requestedAt"`
}

func (ReportRequest) TableName() string {
	return "report_requests"
}
