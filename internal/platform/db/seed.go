package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"solarops/internal/domain/auth"
	"solarops/internal/platform/querier"
)

// Seed installs the role and permission catalogue and, when configured, the first admin.
func Seed(ctx context.Context, q querier.Querier, adminEmail, adminPassword string) error {
	for _, perm := range auth.DefaultPermissions {
		if _, err := q.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm); err != nil {
			return err
		}
	}

	roleIDs := map[string]string{}
	for _, role := range auth.Roles {
		var id string
		err := q.QueryRow(ctx, `
    INSERT INTO roles (name) VALUES ($1)
    ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, role).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
		roleIDs[role] = id
	}

	for role, perms := range auth.RolePermissions {
		for _, perm := range perms {
			if _, err := q.Exec(ctx, `
      INSERT INTO role_permissions (role_id, permission_id)
      SELECT $1, p.id FROM permissions p WHERE p.key = $2
      ON CONFLICT DO NOTHING
    `, roleIDs[role], perm); err != nil {
				return err
			}
		}
	}

	return ensureAdminUser(ctx, q, roleIDs[auth.RoleAdmin], adminEmail, adminPassword)
}

func ensureAdminUser(ctx context.Context, q querier.Querier, roleID, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := q.QueryRow(ctx, "SELECT id FROM app_users WHERE lower(email) = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
    INSERT INTO app_users (email, password_hash, role_id, first_name, last_name, status, is_salary)
    VALUES ($1,$2,$3,'Admin','',$4,true)
  `, email, hash, roleID, auth.UserStatusActive)
	return err
}
