package notifications

import (
	"context"

	"solarops/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateNotification(ctx context.Context, userID, ntype, title, body string) (Notification, error) {
	out := Notification{UserID: userID, Type: ntype, Title: title, Body: body}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO notifications (user_id, type, title, body)
    VALUES ($1,$2,$3,$4)
    RETURNING id, created_at
  `, userID, ntype, title, body).Scan(&out.ID, &out.CreatedAt)
	return out, err
}

func (s *Store) UserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx, "SELECT email FROM app_users WHERE id = $1", userID).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, type, title, body, read_at, created_at
    FROM notifications
    WHERE user_id = $1 AND ($2 = false OR read_at IS NULL)
    ORDER BY created_at DESC
    LIMIT $3 OFFSET $4
  `, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountNotifications(ctx context.Context, userID string, unreadOnly bool) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications
    WHERE user_id = $1 AND ($2 = false OR read_at IS NULL)
  `, userID, unreadOnly).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, userID, notificationID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = COALESCE(read_at, now())
    WHERE user_id = $1 AND id = $2
  `, userID, notificationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
