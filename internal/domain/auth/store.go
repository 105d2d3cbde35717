package auth

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

type AuthUser struct {
	ID       string
	Email    string
	RoleID   string
	RoleName string
	Password string
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.email, u.role_id, r.name, u.password_hash
    FROM app_users u
    JOIN roles r ON u.role_id = r.id
    WHERE lower(u.email) = lower($1) AND u.status = $2
  `, email, UserStatusActive).Scan(&out.ID, &out.Email, &out.RoleID, &out.RoleName, &out.Password)
	return out, err
}

func (s *Store) FindActiveUserByID(ctx context.Context, userID string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.email, u.role_id, r.name, u.password_hash
    FROM app_users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1 AND u.status = $2
  `, userID, UserStatusActive).Scan(&out.ID, &out.Email, &out.RoleID, &out.RoleName, &out.Password)
	return out, err
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE app_users SET password_hash = $1, updated_at = now() WHERE id = $2", hash, userID)
	return err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE app_users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_permissions rp
    JOIN permissions p ON rp.permission_id = p.id
    WHERE rp.role_id = $1 AND p.key = $2
  `, roleID, permission).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RoleIDByName(ctx context.Context, name string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
