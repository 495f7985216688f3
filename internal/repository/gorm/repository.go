package gormrepository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"plantasset/internal/models"
	"plantasset/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Mappings ---------------------------------------------------------------

func (s *Store) ListMappings(ctx context.Context) ([]models.AssetSignalDeviceMapping, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.AssetSignalDeviceMapping
	if err := s.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetMappingByAssetSignal(ctx context.Context, assetID, signalTypeID uuid.UUID) (*models.AssetSignalDeviceMapping, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.AssetSignalDeviceMapping
	err := s.db.WithContext(ctx).
		Where("asset_id = ? AND signal_type_id = ?", assetID, signalTypeID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetMappingByDevicePort(ctx context.Context, deviceID, devicePortID uuid.UUID) (*models.AssetSignalDeviceMapping, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.AssetSignalDeviceMapping
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND device_port_id = ?", deviceID, devicePortID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateMapping(ctx context.Context, item *models.AssetSignalDeviceMapping) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) DeleteMapping(ctx context.Context, mappingID uuid.UUID) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("mapping_id = ?", mappingID).
		Delete(&models.AssetSignalDeviceMapping{}).Error
}

func (s *Store) ListMappingIDs(ctx context.Context, assetID uuid.UUID, signalTypeIDs []uuid.UUID) ([]uuid.UUID, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var ids []uuid.UUID
	query := s.db.WithContext(ctx).
		Model(&models.AssetSignalDeviceMapping{}).
		Where("asset_id = ?", assetID)
	if len(signalTypeIDs) > 0 {
		query = query.Where("signal_type_id IN ?", signalTypeIDs)
	}
	if err := query.Pluck("mapping_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// --- Assets -----------------------------------------------------------------

func (s *Store) GetAsset(ctx context.Context, assetID uuid.UUID) (*models.Asset, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Asset
	err := s.db.WithContext(ctx).Where("asset_id = ?", assetID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetAssetByName(ctx context.Context, name string) (*models.Asset, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Asset
	err := s.db.WithContext(ctx).
		Where("name = ? AND is_deleted = false", name).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetAssetName(ctx context.Context, assetID uuid.UUID) (string, error) {
	item, err := s.GetAsset(ctx, assetID)
	if err != nil || item == nil {
		return "", err
	}
	return item.Name, nil
}

func (s *Store) ListAssets(ctx context.Context, includeDeleted bool) ([]models.Asset, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Asset{})
	if !includeDeleted {
		query = query.Where("is_deleted = false")
	}
	var items []models.Asset
	if err := query.Order("level asc, name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountChildren(ctx context.Context, assetID uuid.UUID) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("parent_id = ? AND is_deleted = false", assetID).
		Count(&n).Error
	return n, err
}

func (s *Store) CountMappingsForAsset(ctx context.Context, assetID uuid.UUID) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.AssetSignalDeviceMapping{}).
		Where("asset_id = ?", assetID).
		Count(&n).Error
	return n, err
}

func (s *Store) CreateAsset(ctx context.Context, item *models.Asset) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SaveAsset(ctx context.Context, item *models.Asset) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

// --- Signal types -----------------------------------------------------------

func (s *Store) GetSignalType(ctx context.Context, signalTypeID uuid.UUID) (*models.SignalType, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SignalType
	err := s.db.WithContext(ctx).
		Where("signal_type_id = ?", signalTypeID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSignalTypes(ctx context.Context) ([]models.SignalType, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SignalType
	if err := s.db.WithContext(ctx).Order("signal_name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListSignalTypeIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if s == nil || s.db == nil || len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.SignalType{}).
		Where("signal_type_id IN ?", ids).
		Pluck("signal_type_id", &found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Store) UpsertSignalTypeByName(ctx context.Context, item *models.SignalType) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	var existing models.SignalType
	err := s.db.WithContext(ctx).
		Where("signal_name = ?", item.SignalName).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(item).Error
	}
	if err != nil {
		return err
	}
	return nil
}

// --- Alert trail ------------------------------------------------------------

func (s *Store) GetActiveAlert(ctx context.Context, mappingID uuid.UUID) (*models.Alert, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Alert
	err := s.db.WithContext(ctx).
		Where("mapping_id = ? AND is_active = true", mappingID).
		Order("alert_start_utc desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateAlert(ctx context.Context, item *models.Alert) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) WidenAlertObserved(ctx context.Context, alertID uuid.UUID, value float64, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("alert_id = ?", alertID).
		Updates(map[string]any{
			"min_observed_value": gorm.Expr("LEAST(COALESCE(min_observed_value, ?), ?)", value, value),
			"max_observed_value": gorm.Expr("GREATEST(COALESCE(max_observed_value, ?), ?)", value, value),
			"updated_utc":        at,
		}).Error
}

func (s *Store) ResolveAlert(ctx context.Context, alertID uuid.UUID, endUtc time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("alert_id = ?", alertID).
		Updates(map[string]any{
			"is_active":     false,
			"alert_end_utc": endUtc,
			"updated_utc":   endUtc,
		}).Error
}

func (s *Store) ListAlerts(ctx context.Context, params repository.ListAlertsParams) ([]models.Alert, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Alert{})
	if params.Active != nil {
		query = query.Where("is_active = ?", *params.Active)
	}
	if params.Cursor != nil && !params.Cursor.IsZero() {
		query = query.Where("alert_start_utc < ?", *params.Cursor)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	var items []models.Alert
	if err := query.Order("alert_start_utc desc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Notifications ----------------------------------------------------------

func (s *Store) CreateNotification(ctx context.Context, item *models.Notification, recipients []models.NotificationRecipient) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		if len(recipients) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&recipients).Error
	})
}

func (s *Store) ListNotifications(ctx context.Context, params repository.ListNotificationsParams) ([]models.Notification, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Notification{})
	if params.Cursor != nil && !params.Cursor.IsZero() {
		query = query.Where("created_at < ?", *params.Cursor)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	var items []models.Notification
	if err := query.Order("created_at desc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListUserNotifications(ctx context.Context, params repository.ListUserNotificationsParams) ([]models.NotificationRecipient, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.NotificationRecipient{}).
		Preload("Notification").
		Where("user_id = ?", params.UserID)
	if params.UnreadOnly {
		query = query.Where("is_read = false")
	}
	if params.Cursor != nil && !params.Cursor.IsZero() {
		query = query.Where("created_at < ?", *params.Cursor)
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	var items []models.NotificationRecipient
	if err := query.Order("created_at desc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, recipientID uuid.UUID, userID string, at time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.NotificationRecipient{}).
		Where("id = ? AND user_id = ? AND is_read = false", recipientID, userID).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected > 0, res.Error
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.NotificationRecipient{}).
		Where("user_id = ? AND is_read = false", userID).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (s *Store) DeleteExpiredNotifications(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}
	var expired []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("expires_at < ?", before).
		Pluck("id", &expired).Error
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}
	return len64(expired), s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("notification_id IN ?", expired).
			Delete(&models.NotificationRecipient{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", expired).Delete(&models.Notification{}).Error
	})
}

func len64[T any](items []T) int64 {
	return int64(len(items))
}

// --- Users ------------------------------------------------------------------

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// --- Reports ----------------------------------------------------------------

func (s *Store) CreateReportRequest(ctx context.Context, item *models.ReportRequest) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListReportRequests(ctx context.Context, limit int) ([]models.ReportRequest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	var items []models.ReportRequest
	if err := s.db.WithContext(ctx).
		Order("requested_at desc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
