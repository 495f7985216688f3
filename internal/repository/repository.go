package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"plantasset/internal/models"
)

type ListAlertsParams struct {
	Active *bool
	Cursor *time.Time
	Limit  int
}

type ListNotificationsParams struct {
	Cursor *time.Time
	Limit  int
}

type ListUserNotificationsParams struct {
	UserID     string
	UnreadOnly bool
	Cursor     *time.Time
	Limit      int
}

// Repository is the relational surface of the pipeline: mapping rows feeding
// the cache, asset/signal metadata, the durable alert trail, the notification
// center, and report bookkeeping.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Mappings.
	ListMappings(ctx context.Context) ([]models.AssetSignalDeviceMapping, error)
	GetMappingByAssetSignal(ctx context.Context, assetID, signalTypeID uuid.UUID) (*models.AssetSignalDeviceMapping, error)
	GetMappingByDevicePort(ctx context.Context, deviceID, devicePortID uuid.UUID) (*models.AssetSignalDeviceMapping, error)
	CreateMapping(ctx context.Context, item *models.AssetSignalDeviceMapping) error
	DeleteMapping(ctx context.Context, mappingID uuid.UUID) error
	ListMappingIDs(ctx context.Context, assetID uuid.UUID, signalTypeIDs []uuid.UUID) ([]uuid.UUID, error)

	// Assets.
	GetAsset(ctx context.Context, assetID uuid.UUID) (*models.Asset, error)
	GetAssetByName(ctx context.Context, name string) (*models.Asset, error)
	GetAssetName(ctx context.Context, assetID uuid.UUID) (string, error)
	ListAssets(ctx context.Context, includeDeleted bool) ([]models.Asset, error)
	CountChildren(ctx context.Context, assetID uuid.UUID) (int64, error)
	CountMappingsForAsset(ctx context.Context, assetID uuid.UUID) (int64, error)
	CreateAsset(ctx context.Context, item *models.Asset) error
	SaveAsset(ctx context.Context, item *models.Asset) error

	// Signal types.
	GetSignalType(ctx context.Context, signalTypeID uuid.UUID) (*models.SignalType, error)
	ListSignalTypes(ctx context.Context) ([]models.SignalType, error)
	ListSignalTypeIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	UpsertSignalTypeByName(ctx context.Context, item *models.SignalType) error

	// Alert trail.
	GetActiveAlert(ctx context.Context, mappingID uuid.UUID) (*models.Alert, error)
	CreateAlert(ctx context.Context, item *models.Alert) error
	WidenAlertObserved(ctx context.Context, alertID uuid.UUID, value float64, at time.Time) error
	ResolveAlert(ctx context.Context, alertID uuid.UUID, endUtc time.Time) error
	ListAlerts(ctx context.Context, params ListAlertsParams) ([]models.Alert, error)

	// Notifications.
	CreateNotification(ctx context.Context, item *models.Notification, recipients []models.NotificationRecipient) error
	ListNotifications(ctx context.Context, params ListNotificationsParams) ([]models.Notification, error)
	ListUserNotifications(ctx context.Context, params ListUserNotificationsParams) ([]models.NotificationRecipient, error)
	MarkNotificationRead(ctx context.Context, recipientID uuid.UUID, userID string, at time.Time) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error)
	DeleteExpiredNotifications(ctx context.Context, before time.Time) (int64, error)

	// Users (fan-out targets).
	ListUserIDs(ctx context.Context) ([]string, error)

	// Reports.
	CreateReportRequest(ctx context.Context, item *models.ReportRequest) error
	ListReportRequests(ctx context.Context, limit int) ([]models.ReportRequest, error)
}
