package notifications

import (
	"context"
	"log/slog"

	"solarops/internal/platform/realtime"
)

const Table = "notifications"

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store        StoreAPI
	Mailer       Mailer
	From         string
	EmailEnabled bool
	changes      realtime.Publisher
}

func New(store StoreAPI, mailer Mailer, changes realtime.Publisher) *Service {
	return &Service{store: store, Mailer: mailer, From: "no-reply@example.com", changes: changes}
}

// Create stores an in-app notification and, when email is enabled, mails it.
// Mail failures are logged and never returned.
func (s *Service) Create(ctx context.Context, userID, ntype, title, body string) error {
	created, err := s.store.CreateNotification(ctx, userID, ntype, title, body)
	if err != nil {
		return err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionInsert, created.ID)

	if s.Mailer == nil || !s.EmailEnabled {
		return nil
	}
	email, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "userId", userID, "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.From, email, title, body); err != nil {
		slog.Warn("notification email send failed", "userId", userID, "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) Count(ctx context.Context, userID string, unreadOnly bool) (int, error) {
	return s.store.CountNotifications(ctx, userID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) (bool, error) {
	return s.store.MarkRead(ctx, userID, notificationID)
}
