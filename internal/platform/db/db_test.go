package db

import (
	"context"
	"os"
	"testing"

	"solarops/internal/domain/auth"
	"solarops/migrations"
)

func TestMigrateAndSeed(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := Migrate(ctx, pool, migrations.Files); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := Migrate(ctx, pool, migrations.Files); err != nil {
		t.Fatalf("second migrate must be a no-op: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := Seed(ctx, pool, "seed-admin@example.com", "Sup3r-secret!"); err != nil {
			t.Fatalf("seed run %d: %v", i+1, err)
		}
	}

	var roles int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM roles").Scan(&roles); err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if roles != len(auth.Roles) {
		t.Fatalf("expected %d roles, got %d", len(auth.Roles), roles)
	}
	var admins int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM app_users WHERE email = 'seed-admin@example.com'").Scan(&admins); err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if admins != 1 {
		t.Fatalf("expected one seeded admin, got %d", admins)
	}
}
