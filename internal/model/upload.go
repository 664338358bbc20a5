package model

import "time"

// UploadJob is the audit ledger record for one ingestion run. Created once,
// after all rows are processed; immutable afterwards except for the cascading
// delete performed during rollback. FacilityIDs is the authoritative index
// correlating the job with the live rows it produced.
type UploadJob struct {
	UploadedAt   time.Time
	ID           string
	FileName     string
	UploadedBy   string
	FacilityIDs  []string
	Logs         []string
	TotalCount   int
	SuccessCount int
	AddedCount   int
	UpdatedCount int
	FailCount    int
}
