package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"plantasset/internal/alerting"
	"plantasset/internal/models"
	"plantasset/internal/repository"
)

type stubRepo struct {
	userIDs    []string
	stored     *models.Notification
	recipients []models.NotificationRecipient
	rows       []models.NotificationRecipient
	lastParams repository.ListUserNotificationsParams
	readOK     bool
	readCount  int64
	deleted    int64
}

func (r *stubRepo) CreateNotification(ctx context.Context, item *models.Notification, recipients []models.NotificationRecipient) error {
	r.stored = item
	r.recipients = recipients
	return nil
}

func (r *stubRepo) ListUserNotifications(ctx context.Context, params repository.ListUserNotificationsParams) ([]models.NotificationRecipient, error) {
	r.lastParams = params
	if params.Limit < len(r.rows) {
		return r.rows[:params.Limit], nil
	}
	return r.rows, nil
}

func (r *stubRepo) MarkNotificationRead(ctx context.Context, recipientID uuid.UUID, userID string, at time.Time) (bool, error) {
	return r.readOK, nil
}

func (r *stubRepo) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	return r.readCount, nil
}

func (r *stubRepo) DeleteExpiredNotifications(ctx context.Context, before time.Time) (int64, error) {
	return r.deleted, nil
}

func (r *stubRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	return r.userIDs, nil
}

func TestCreateForUsers_StoresAndFansOut(t *testing.T) {
	repo := &stubRepo{userIDs: []string{"alice", "bob", "carol"}}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &Service{Repo: repo, DefaultTTL: 720 * time.Hour, Now: func() time.Time { return now }}

	err := s.CreateForUsers(context.Background(), alerting.Notice{
		Title:    "Alert: Temperature HIGH on Boiler 3",
		Text:     "out of range",
		Priority: "high",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.stored == nil {
		t.Fatalf("notification not stored")
	}
	if repo.stored.Priority != "high" {
		t.Fatalf("priority=%q", repo.stored.Priority)
	}
	if want := now.Add(720 * time.Hour); !repo.stored.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt=%v want default TTL %v", repo.stored.ExpiresAt, want)
	}
	if len(repo.recipients) != 3 {
		t.Fatalf("recipients=%d want 3", len(repo.recipients))
	}
	for _, rec := range repo.recipients {
		if rec.NotificationID != repo.stored.ID || rec.IsRead {
			t.Fatalf("bad recipient row: %+v", rec)
		}
	}
}

func TestCreateForUsers_ExplicitExpiry(t *testing.T) {
	repo := &stubRepo{userIDs: []string{"alice"}}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &Service{Repo: repo, DefaultTTL: time.Hour, Now: func() time.Time { return now }}

	expires := now.Add(15 * time.Minute)
	if err := s.CreateForUsers(context.Background(), alerting.Notice{Title: "t", Text: "x", ExpiresAt: &expires}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !repo.stored.ExpiresAt.Equal(expires) {
		t.Fatalf("expiresAt=%v want %v", repo.stored.ExpiresAt, expires)
	}
}

func TestCreateForUsers_NoUsersIsNoop(t *testing.T) {
	repo := &stubRepo{}
	s := &Service{Repo: repo, DefaultTTL: time.Hour}
	if err := s.CreateForUsers(context.Background(), alerting.Notice{Title: "t", Text: "x"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.stored != nil {
		t.Fatalf("notification stored with no recipients")
	}
}

func TestListForUser_CursorPagination(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := make([]models.NotificationRecipient, 4)
	for i := range rows {
		rows[i] = models.NotificationRecipient{
			ID:        uuid.New(),
			UserID:    "alice",
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	repo := &stubRepo{rows: rows}
	s := &Service{Repo: repo}

	page, err := s.ListForUser(context.Background(), "alice", false, nil, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastParams.Limit != 4 {
		t.Fatalf("repo limit=%d want limit+1", repo.lastParams.Limit)
	}
	if len(page.Items) != 3 || !page.HasMore {
		t.Fatalf("items=%d hasMore=%v want 3/true", len(page.Items), page.HasMore)
	}
	if page.NextCursor == nil || !page.NextCursor.Equal(rows[2].CreatedAt) {
		t.Fatalf("nextCursor=%v want %v", page.NextCursor, rows[2].CreatedAt)
	}
}

func TestListForUser_LastPage(t *testing.T) {
	repo := &stubRepo{rows: []models.NotificationRecipient{{ID: uuid.New(), UserID: "alice"}}}
	s := &Service{Repo: repo}

	page, err := s.ListForUser(context.Background(), "alice", false, nil, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.HasMore || page.NextCursor != nil {
		t.Fatalf("page=%+v want single final page", page)
	}
}

func TestListForUser_EmptyPageIsNotNil(t *testing.T) {
	s := &Service{Repo: &stubRepo{}}
	page, err := s.ListForUser(context.Background(), "alice", true, nil, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Items == nil || len(page.Items) != 0 {
		t.Fatalf("items=%v want empty slice", page.Items)
	}
}
