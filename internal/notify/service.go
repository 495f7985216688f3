package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plantasset/internal/alerting"
	"plantasset/internal/models"
	"plantasset/internal/repository"
)

// Repo is the slice of the repository the notification center needs.
type Repo interface {
	CreateNotification(ctx context.Context, item *models.Notification, recipients []models.NotificationRecipient) error
	ListUserNotifications(ctx context.Context, params repository.ListUserNotificationsParams) ([]models.NotificationRecipient, error)
	MarkNotificationRead(ctx context.Context, recipientID uuid.UUID, userID string, at time.Time) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error)
	DeleteExpiredNotifications(ctx context.Context, before time.Time) (int64, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

// Page is one cursor-paginated slice of a user's notifications.
type Page struct {
	Items      []models.NotificationRecipient `json:"items"`
	HasMore    bool                           `json:"hasMore"`
	NextCursor *time.Time                     `json:"nextCursor,omitempty"`
}

const defaultPageLimit = 20

// Service persists notifications and fans them out to live connections.
type Service struct {
	Repo       Repo
	Hub        *Hub
	Logger     *zap.Logger
	DefaultTTL time.Duration
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateForUsers stores one notification with a recipient row per known user
// and pushes it to whoever is connected. Satisfies the alert evaluator's
// notifier contract.
func (s *Service) CreateForUsers(ctx context.Context, n alerting.Notice) error {
	if s == nil || s.Repo == nil {
		return fmt.Errorf("notification service not initialized")
	}

	userIDs, err := s.Repo.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list notification recipients: %w", err)
	}
	if len(userIDs) == 0 {
		return nil
	}

	now := s.now()
	expires := now.Add(s.DefaultTTL)
	if n.ExpiresAt != nil {
		expires = *n.ExpiresAt
	}
	item := &models.Notification{
		ID:        uuid.New(),
		Title:     n.Title,
		Text:      n.Text,
		Priority:  n.Priority,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	recipients := make([]models.NotificationRecipient, 0, len(userIDs))
	for _, userID := range userIDs {
		recipients = append(recipients, models.NotificationRecipient{
			ID:             uuid.New(),
			NotificationID: item.ID,
			UserID:         userID,
			CreatedAt:      now,
		})
	}

	if err := s.Repo.CreateNotification(ctx, item, recipients); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	s.Hub.Push(userIDs, Event{Type: "notification", Payload: item})
	return nil
}

// ListForUser pages a user's notifications newest first. One extra row is
// fetched to decide whether another page exists.
func (s *Service) ListForUser(ctx context.Context, userID string, unreadOnly bool, cursor *time.Time, limit int) (*Page, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	rows, err := s.Repo.ListUserNotifications(ctx, repository.ListUserNotificationsParams{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Cursor:     cursor,
		Limit:      limit + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", userID, err)
	}

	page := &Page{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		page.HasMore = true
		next := page.Items[len(page.Items)-1].CreatedAt
		page.NextCursor = &next
	}
	if page.Items == nil {
		page.Items = []models.NotificationRecipient{}
	}
	return page, nil
}

// MarkRead marks one recipient row read. Returns false when the row does not
// exist or belongs to another user.
func (s *Service) MarkRead(ctx context.Context, recipientID uuid.UUID, userID string) (bool, error) {
	return s.Repo.MarkNotificationRead(ctx, recipientID, userID, s.now())
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.Repo.MarkAllNotificationsRead(ctx, userID, s.now())
}

// CleanupExpired deletes notifications past their expiry, recipients first.
// Wired to the cron runner.
func (s *Service) CleanupExpired(ctx context.Context) error {
	n, err := s.Repo.DeleteExpiredNotifications(ctx, s.now())
	if err != nil {
		return fmt.Errorf("delete expired notifications: %w", err)
	}
	if n > 0 && s.Logger != nil {
		s.Logger.Info("expired notifications removed", zap.Int64("count", n))
	}
	return nil
}
