package db

import (
	"plantasset/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil {
		return nil
	}
	return db.Gorm.AutoMigrate(
		&models.User{},
		&models.Asset{},
		&models.SignalType{},
		&models.AssetSignalDeviceMapping{},
		&models.Alert{},
		&models.Notification{},
		&models.NotificationRecipient{},
		&models.ReportRequest{},
	)
}
