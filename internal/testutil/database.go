// Package testutil provides shared helpers for facility-flow tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/mapguri/facility-flow/internal/model"
	"github.com/mapguri/facility-flow/internal/service"
	"github.com/mapguri/facility-flow/internal/storage"
)

// TestDB wraps an in-memory storage instance for a single test.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory SQLite database and registers
// cleanup on the test.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// SeedUpload inserts facilities for the given upload id and records a
// matching ledger entry. It returns the facility ids it created.
func (db *TestDB) SeedUpload(ctx context.Context, uploadID string, names ...string) []string {
	db.t.Helper()

	facilities := make([]model.Facility, 0, len(names))
	ids := make([]string, 0, len(names))
	for i, name := range names {
		f := model.Facility{
			ID:       model.FacilityID(uploadID, i),
			Name:     name,
			UploadID: uploadID,
			Floor:    1,
		}
		facilities = append(facilities, f)
		ids = append(ids, f.ID)
	}

	if err := db.Storage.InsertFacilities(ctx, facilities); err != nil {
		db.t.Fatalf("failed to seed facilities: %v", err)
	}

	job := &model.UploadJob{
		UploadedAt:   time.Now(),
		ID:           uploadID,
		FileName:     "seed.csv",
		TotalCount:   len(names),
		SuccessCount: len(names),
		AddedCount:   len(names),
		FacilityIDs:  ids,
	}
	if err := db.Storage.SaveUploadJob(ctx, job); err != nil {
		db.t.Fatalf("failed to seed upload job: %v", err)
	}

	return ids
}
