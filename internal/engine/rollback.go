package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mapguri/facility-flow/internal/common"
	"github.com/mapguri/facility-flow/internal/service"
)

// RollbackState tracks the rollback controller's lifecycle.
type RollbackState string

// Rollback states. Cancellation is cooperative: it is checked between delete
// chunks only, so a chunk in flight always completes.
const (
	RollbackIdle       RollbackState = "IDLE"
	RollbackProcessing RollbackState = "PROCESSING"
	RollbackCompleted  RollbackState = "COMPLETED"
	RollbackCancelling RollbackState = "CANCELLING"
	RollbackCancelled  RollbackState = "CANCELLED"
)

// deleteRetryOptions bounds the in-place retries for one delete chunk.
var deleteRetryOptions = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 50 * time.Millisecond,
	MaxDelay:     time.Second,
}

// Rollback reverses a committed upload job: it deletes the job's live
// facility records in fixed-size chunks, reporting progress after each, then
// deletes the ledger record. A chunk failure halts further deletion and
// leaves the ledger untouched so a retry can resume.
type Rollback struct {
	storage   service.Storage
	chunkSize int

	mu              sync.Mutex
	state           RollbackState
	cancelRequested bool
}

// NewRollback creates a rollback controller.
func NewRollback(storage service.Storage, chunkSize int) *Rollback {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Rollback{
		storage:   storage,
		chunkSize: chunkSize,
		state:     RollbackIdle,
	}
}

// State returns the controller's current state.
func (r *Rollback) State() RollbackState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Cancel requests cooperative cancellation. The request takes effect at the
// next chunk boundary.
func (r *Rollback) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == RollbackProcessing {
		r.state = RollbackCancelling
	}
	r.cancelRequested = true
}

// Run deletes the upload's live records in chunks, then the ledger record.
// Deleting ids that are already gone is a no-op, so retrying a partially
// rolled-back job completes cleanly.
func (r *Rollback) Run(ctx context.Context, uploadID string, progress service.RollbackProgressFunc) error {
	r.mu.Lock()
	if r.state == RollbackProcessing || r.state == RollbackCancelling {
		r.mu.Unlock()
		return common.ErrRollbackBusy
	}
	r.state = RollbackProcessing
	r.cancelRequested = false
	r.mu.Unlock()

	job, err := r.storage.GetUploadJob(ctx, uploadID)
	if err != nil {
		r.setState(RollbackIdle)
		return fmt.Errorf("failed to load upload job %s: %w", uploadID, err)
	}

	ids := job.FacilityIDs
	total := len(ids)

	slog.Info("Starting rollback",
		"upload_id", uploadID,
		"record_count", total)

	for start := 0; start < total; start += r.chunkSize {
		if r.cancelled() {
			r.setState(RollbackCancelled)
			slog.Info("Rollback canceled",
				"upload_id", uploadID,
				"deleted", start,
				"total", total)
			return nil
		}

		end := min(start+r.chunkSize, total)
		chunk := ids[start:end]

		// Deleting the same ids twice is a no-op, so transient store
		// failures are safe to retry in place.
		err := common.WithRetry(ctx, func() error {
			return r.storage.DeleteFacilities(ctx, chunk)
		}, deleteRetryOptions)
		if err != nil {
			// The ledger keeps its full id list so a later run can resume.
			r.setState(RollbackIdle)
			return fmt.Errorf("%w: delete chunk %d-%d: %v",
				common.ErrRollbackHalted, start, end-1, err)
		}

		if progress != nil {
			progress(end, total)
		}
	}

	if total == 0 && progress != nil {
		// Pre-commit cancellation path: no ids were ever recorded.
		progress(0, 0)
	}

	if err := r.storage.DeleteUploadJob(ctx, uploadID); err != nil {
		r.setState(RollbackIdle)
		return fmt.Errorf("%w: ledger delete: %v", common.ErrRollbackHalted, err)
	}

	r.setState(RollbackCompleted)
	slog.Info("Rollback complete",
		"upload_id", uploadID,
		"deleted", total)
	return nil
}

func (r *Rollback) cancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelRequested
}

func (r *Rollback) setState(s RollbackState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}
