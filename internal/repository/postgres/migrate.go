package postgres

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/pkg/metrics"
)

const migrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)
`

// MigrationStatus reports whether one migration file has run
type MigrationStatus struct {
	Version string
	Applied bool
}

// RunMigrations applies every pending .sql file in migrationsFS in name
// order and returns how many were applied. Each file runs in its own
// transaction together with its schema_migrations row.
func RunMigrations(db *sql.DB, driver string, migrationsFS fs.FS) (int, error) {
	statuses, err := Migrations(db, migrationsFS)
	if err != nil {
		return 0, err
	}

	record := Rebind(driver, "INSERT INTO schema_migrations (version) VALUES (?)")
	applied := 0
	for _, m := range statuses {
		if m.Applied {
			continue
		}
		start := time.Now()
		if err := apply(db, migrationsFS, m.Version, record); err != nil {
			return applied, err
		}
		metrics.RecordDBQuery("migrate", "schema_migrations", time.Since(start))
		applied++
	}
	return applied, nil
}

// Migrations lists every migration file with its applied state, creating
// the bookkeeping table if needed
func Migrations(db *sql.DB, migrationsFS fs.FS) ([]MigrationStatus, error) {
	if _, err := db.Exec(migrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	done, err := appliedVersions(db)
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var out []MigrationStatus
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		out = append(out, MigrationStatus{Version: entry.Name(), Applied: done[entry.Name()]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func apply(db *sql.DB, migrationsFS fs.FS, version, record string) error {
	content, err := fs.ReadFile(migrationsFS, version)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", version, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction for %s: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", version, err)
	}
	if _, err := tx.Exec(record, version); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", version, err)
	}
	return nil
}

func appliedVersions(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
