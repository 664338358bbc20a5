package model

import "time"

// StagingStatus tracks a staged row through the review workflow.
type StagingStatus string

// Staging status constants. Transitions toward done/rejected happen in the
// external review workflow, not in this pipeline.
const (
	StagingReviewNeeded StagingStatus = "review_needed"
	StagingRejected     StagingStatus = "rejected"
	StagingDone         StagingStatus = "done"
)

// StagingRecord is the persisted shape of a Review or Reject outcome,
// holding both the raw input fields and the resolved values.
type StagingRecord struct {
	CreatedAt  time.Time
	NameRaw    string
	AddressRaw string
	LatRaw     string
	LngRaw     string
	Name       string
	Address    string
	Status     StagingStatus
	Reason     string
	Logs       []string
	UploadID   string
	Lat        float64
	Lng        float64
	Floor      int
	ID         int64
}

// StagingRecordFromOutcome maps a Review/Reject outcome into its persisted
// shape for the given upload.
func StagingRecordFromOutcome(o Outcome, uploadID string) StagingRecord {
	status := StagingReviewNeeded
	if o.Kind == OutcomeReject {
		status = StagingRejected
	}
	return StagingRecord{
		NameRaw:    o.Candidate.Name,
		AddressRaw: o.Candidate.Address,
		LatRaw:     o.Candidate.LatRaw,
		LngRaw:     o.Candidate.LngRaw,
		Name:       o.Name,
		Address:    o.Address,
		Status:     status,
		Reason:     o.Reason,
		Logs:       o.Logs,
		UploadID:   uploadID,
		Lat:        o.Lat,
		Lng:        o.Lng,
		Floor:      o.Floor,
	}
}
