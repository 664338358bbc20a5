// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mapguri/facility-flow/internal/model"
)

// Storage defines the contract for our persistence layer: the live facility
// store, the staging store for rows awaiting human disposition, and the
// upload-job ledger.
type Storage interface {
	// Live facility store. Callers issue chunk-sized batches; each call is an
	// independent commit.
	InsertFacilities(ctx context.Context, facilities []model.Facility) error
	DeleteFacilities(ctx context.Context, ids []string) error
	GetFacilityByID(ctx context.Context, id string) (*model.Facility, error)
	CountFacilities(ctx context.Context) (int, error)

	// Staging store for Review/Reject outcomes.
	InsertStagingRecords(ctx context.Context, records []model.StagingRecord) error
	GetStagingRecordsByUpload(ctx context.Context, uploadID string) ([]model.StagingRecord, error)
	UpdateStagingStatus(ctx context.Context, id int64, status model.StagingStatus) error

	// Upload-job ledger.
	SaveUploadJob(ctx context.Context, job *model.UploadJob) error
	GetUploadJob(ctx context.Context, id string) (*model.UploadJob, error)
	ListUploadJobs(ctx context.Context) ([]model.UploadJob, error)
	DeleteUploadJob(ctx context.Context, id string) error

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// Geocoder resolves a free-text address to authoritative coordinates.
// A nil result with a nil error means no match.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*model.GeocodeResult, error)
}

// LandChecker reports whether a coordinate falls on plausible national
// landmass. Implementations are expected to pre-filter with a cheap bounding
// box before consulting the authority.
type LandChecker interface {
	IsOnLand(ctx context.Context, lat, lng float64) (bool, error)
}

// ProgressFunc receives incremental ingestion progress: percent complete
// (0-100) and the log line produced for the row just finished.
type ProgressFunc func(percent int, logLine string)

// RollbackProgressFunc receives (current, total) counters after each delete
// chunk during rollback.
type RollbackProgressFunc func(current, total int)

// IngestSummary is the terminal result of one ingestion run.
type IngestSummary struct {
	UploadID     string
	FacilityIDs  []string
	Logs         []string
	TotalCount   int
	SuccessCount int
	AddedCount   int
	UpdatedCount int
	FailCount    int
	ReviewCount  int
	SkippedCount int
	Duration     time.Duration
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
