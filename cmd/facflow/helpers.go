package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mapguri/facility-flow/internal/storage"
)

// openStorageRaw opens the configured SQLite database without touching the
// schema.
func openStorageRaw() (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("storage.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "facflow", "facflow.db")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return store, nil
}

// openStorage opens the configured SQLite database and applies pending
// migrations.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := openStorageRaw()
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}
