package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title string    `gorm:"type:varchar(200);not null" json:"title"`
	Text  string    `gorm:"type:text;not null" json:"text"`

	Priority string `gorm:"type:varchar(20);not null;default:'normal'" json:"priority"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"createdAt"`
	ExpiresAt time.Time `gorm:"type:timestamptz;not null;index" json:"expiresAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

type NotificationRecipient struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NotificationID uuid.UUID `gorm:"type:uuid;not null;index" json:"notificationId"`
	UserID         string    `gorm:"type:varchar(100);not null;index" json:"userId"`

	IsRead bool       `gorm:"not null;default:false;index" json:"isRead"`
	ReadAt *time.Time `gorm:"type:timestamptz" json:"readAt,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"createdAt"`

	Notification Notification `gorm:"foreignKey:NotificationID" json:"notification"`
}

func (NotificationRecipient) TableName() string {
	return "notification_recipients"
}
