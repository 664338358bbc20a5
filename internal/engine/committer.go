package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mapguri/facility-flow/internal/common"
	"github.com/mapguri/facility-flow/internal/model"
	"github.com/mapguri/facility-flow/internal/service"
)

// DefaultChunkSize bounds the payload of each store call.
const DefaultChunkSize = 50

// Committer writes classified outcomes to the live and staging stores in
// fixed-size chunks. Each chunk is an independent commit: a failure leaves
// earlier chunks in place, and CommitResult reports exactly what landed.
type Committer struct {
	storage   service.Storage
	chunkSize int
}

// CommitResult reports what a commit actually wrote. FacilityIDs only lists
// rows confirmed committed before any failure; callers must not assume
// all-or-nothing across the whole job, only within a chunk.
type CommitResult struct {
	FacilityIDs []string
	Staged      int
}

// NewCommitter creates a committer. A non-positive chunk size falls back to
// the default.
func NewCommitter(storage service.Storage, chunkSize int) *Committer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Committer{storage: storage, chunkSize: chunkSize}
}

// Commit writes accepted outcomes to the live store and the rest to staging
// for the given upload. Facility ids derive from the upload id and each
// row's original index, so identifier assignment is deterministic per file.
func (c *Committer) Commit(ctx context.Context, uploadID string, accepted, staged []model.Outcome) (CommitResult, error) {
	result := CommitResult{}

	facilities := make([]model.Facility, len(accepted))
	for i, o := range accepted {
		facilities[i] = model.Facility{
			ID:       model.FacilityID(uploadID, o.Candidate.RowIndex),
			Name:     o.Name,
			Address:  o.Address,
			Category: o.Candidate.Category,
			Note:     o.Candidate.Note,
			UploadID: uploadID,
			Lat:      o.Lat,
			Lng:      o.Lng,
			Floor:    o.Floor,
		}
	}

	for start := 0; start < len(facilities); start += c.chunkSize {
		end := min(start+c.chunkSize, len(facilities))
		chunk := facilities[start:end]

		if err := c.storage.InsertFacilities(ctx, chunk); err != nil {
			return result, fmt.Errorf("%w: live chunk %d-%d: %v",
				common.ErrCommitFailed, start, end-1, err)
		}
		for _, f := range chunk {
			result.FacilityIDs = append(result.FacilityIDs, f.ID)
		}
		slog.Debug("Committed live chunk",
			"upload_id", uploadID,
			"from", start,
			"to", end-1)
	}

	records := make([]model.StagingRecord, len(staged))
	for i, o := range staged {
		records[i] = model.StagingRecordFromOutcome(o, uploadID)
	}

	for start := 0; start < len(records); start += c.chunkSize {
		end := min(start+c.chunkSize, len(records))
		if err := c.storage.InsertStagingRecords(ctx, records[start:end]); err != nil {
			return result, fmt.Errorf("%w: staging chunk %d-%d: %v",
				common.ErrCommitFailed, start, end-1, err)
		}
		result.Staged = end
		slog.Debug("Committed staging chunk",
			"upload_id", uploadID,
			"from", start,
			"to", end-1)
	}

	return result, nil
}
