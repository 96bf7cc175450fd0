// Package testhelpers provides databases and tokens for package tests.
package testhelpers

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/database"
)

// NewSQLiteDB returns a migrated SQLite store in the test's temp directory.
// It is closed when the test ends.
func NewSQLiteDB(t *testing.T) *database.DB {
	t.Helper()

	cfg := database.Config{
		Driver: string(database.DialectSQLite),
		URL:    filepath.Join(t.TempDir(), "migrations.db"),
	}

	if err := database.RunMigrations(cfg, zap.NewNop()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	db, err := database.Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
