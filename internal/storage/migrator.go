package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const migrationTableSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	applied_at DATETIME
);`

// migrate applies every *.sql file of migrations not yet recorded in
// schema_migrations, in name order, each in its own transaction.
// It returns the names it applied.
func migrate(db *sql.DB, migrations fs.FS) ([]string, error) {
	if _, err := db.Exec(migrationTableSchema); err != nil {
		return nil, fmt.Errorf("failed to create migration table: %w", err)
	}

	files, err := pendingMigrations(db, migrations)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(files))
	for _, file := range files {
		log.Info().Str("file", file).Msg("Applying database migration...")

		content, err := fs.ReadFile(migrations, file)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if err := applyMigration(db, file, string(content)); err != nil {
			return applied, err
		}
		applied = append(applied, file)
	}

	return applied, nil
}

func pendingMigrations(db *sql.DB, migrations fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var exists int
		err := db.QueryRow("SELECT 1 FROM schema_migrations WHERE version = ?", entry.Name()).Scan(&exists)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("failed to check migration status: %w", err)
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	return files, nil
}

func applyMigration(db *sql.DB, file, content string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(content); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to exec migration %s: %w", file, err)
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", file, time.Now().UTC()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", file, err)
	}

	return tx.Commit()
}
