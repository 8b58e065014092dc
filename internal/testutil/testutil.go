package testutil

import (
	"database/sql"
	"io/fs"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/migrations"
)

// NewTestDB creates an in-memory SQLite database with the migrations applied
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// A second pooled connection would see a different in-memory database
	db.SetMaxOpenConns(1)

	entries, err := fs.ReadDir(migrations.Files, ".")
	if err != nil {
		t.Fatalf("Failed to list migrations: %v", err)
	}
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		schema, err := fs.ReadFile(migrations.Files, entry.Name())
		if err != nil {
			t.Fatalf("Failed to read %s: %v", entry.Name(), err)
		}
		if _, err := db.Exec(string(schema)); err != nil {
			t.Fatalf("Failed to apply %s: %v", entry.Name(), err)
		}
	}

	t.Cleanup(func() { CleanupDB(db) })
	return db
}

// CleanupDB closes the test database
func CleanupDB(db *sql.DB) {
	if db != nil {
		db.Close()
	}
}

// TestLogger returns a logger that only prints errors
func TestLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

// Catalog returns the shipped plan catalog and tier map
func Catalog(t *testing.T) (*plan.Catalog, *plan.TierMap) {
	t.Helper()
	catalog, tiers, err := plan.Defaults()
	if err != nil {
		t.Fatalf("plan.Defaults() error = %v", err)
	}
	return catalog, tiers
}

// NewUser returns a base-plan user registered at now
func NewUser(email string, now time.Time) *user.Record {
	return user.New(email, "", plan.FreeTier, now)
}
