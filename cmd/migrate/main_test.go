package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tbourn/go-task-backend/internal/config"
	"github.com/tbourn/go-task-backend/internal/domain"
	"github.com/tbourn/go-task-backend/internal/repo"
)

const fixture = `{"tasks":[
  {"id":"1","created":"01/02/2024","title":"Legacy one","description":null,"complete":false,"due":"2030-01-01"},
  {"id":"2","created":"02/02/2024","title":"Legacy two","description":"d","complete":true,"due":"15/06/2030"}
]}`

func TestMigrate_SeedAndDrop(t *testing.T) {
	dir := t.TempDir()
	db, err := repo.Open(repo.Options{Driver: repo.DriverSQLite, Path: filepath.Join(dir, "tasks.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}

	seedPath := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(seedPath, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	ctx := context.Background()
	if err := migrate(ctx, db, options{seedPath: seedPath}); err != nil {
		t.Fatalf("migrate+seed: %v", err)
	}
	var n int64
	db.Model(&domain.Task{}).Count(&n)
	if n != 2 {
		t.Fatalf("expected 2 seeded tasks, got %d", n)
	}

	// Re-running is a no-op for existing ids.
	if err := migrate(ctx, db, options{seedPath: seedPath}); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	db.Model(&domain.Task{}).Count(&n)
	if n != 2 {
		t.Fatalf("reseed duplicated rows: %d", n)
	}

	if err := migrate(ctx, db, options{drop: true}); err != nil {
		t.Fatalf("drop+migrate: %v", err)
	}
	db.Model(&domain.Task{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected empty table after drop, got %d", n)
	}
}

func TestMigrate_MissingSeedFile(t *testing.T) {
	db, err := repo.Open(repo.Options{Path: filepath.Join(t.TempDir(), "tasks.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	if err := migrate(context.Background(), db, options{seedPath: "does-not-exist.json"}); err == nil {
		t.Fatalf("expected error for missing seed file")
	}
}

func TestDSNFor(t *testing.T) {
	if got := dsnFor(config.Config{DB: config.DBConfig{Driver: config.DriverSQLite}}); got != "" {
		t.Fatalf("sqlite dsn should be empty, got %q", got)
	}
	cfg := config.Config{DB: config.DBConfig{Driver: config.DriverPostgres, Host: "h", Port: 1, Name: "n"}}
	if got := dsnFor(cfg); got == "" {
		t.Fatalf("postgres dsn should be built")
	}
}
