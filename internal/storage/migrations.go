package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: live facilities, staging, upload ledger",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS facilities (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					address TEXT,
					category TEXT,
					note TEXT,
					upload_id TEXT NOT NULL,
					lat REAL NOT NULL,
					lng REAL NOT NULL,
					floor INTEGER DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_facilities_upload ON facilities(upload_id)`,

				`CREATE TABLE IF NOT EXISTS staging_records (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					upload_id TEXT NOT NULL,
					name_raw TEXT,
					address_raw TEXT,
					lat_raw TEXT,
					lng_raw TEXT,
					name TEXT,
					address TEXT,
					lat REAL DEFAULT 0,
					lng REAL DEFAULT 0,
					floor INTEGER DEFAULT 1,
					status TEXT NOT NULL,
					reason TEXT,
					logs TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_staging_upload ON staging_records(upload_id)`,
				`CREATE INDEX idx_staging_status ON staging_records(status)`,

				`CREATE TABLE IF NOT EXISTS upload_jobs (
					id TEXT PRIMARY KEY,
					file_name TEXT NOT NULL,
					uploaded_by TEXT,
					uploaded_at DATETIME NOT NULL,
					total_count INTEGER DEFAULT 0,
					success_count INTEGER DEFAULT 0,
					added_count INTEGER DEFAULT 0,
					updated_count INTEGER DEFAULT 0,
					fail_count INTEGER DEFAULT 0,
					facility_ids TEXT,
					logs TEXT
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index facilities by coordinates for map lookups",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_facilities_coords ON facilities(lat, lng)`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Order ledger listings by upload time",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_upload_jobs_uploaded_at ON upload_jobs(uploaded_at)`)
			return err
		},
	},
}

// Migrate applies all pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
