package model

// OutcomeKind is the per-row classification decision.
type OutcomeKind string

// Outcome kind constants.
const (
	OutcomeImmediate OutcomeKind = "IMMEDIATE"
	OutcomeReview    OutcomeKind = "REVIEW"
	OutcomeReject    OutcomeKind = "REJECT"
)

// Outcome is the result of classifying one candidate row. Logs is the
// append-only decision trace; it must be complete enough for a reviewer to
// understand the decision without re-running the pipeline.
type Outcome struct {
	Kind      OutcomeKind
	Name      string
	Address   string
	Reason    string
	Logs      []string
	Candidate Candidate
	Lat       float64
	Lng       float64
	Floor     int
}

// Log appends a decision-trace entry.
func (o *Outcome) Log(entry string) {
	o.Logs = append(o.Logs, entry)
}
