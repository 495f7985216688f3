package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal identity row notification fan-out needs. Credential
// management lives in the auth service, not here.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserName  string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"userName"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}
