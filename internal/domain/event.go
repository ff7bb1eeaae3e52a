package domain

import "time"

// IngestEvent announces that every artifact of one instant has been published.
type IngestEvent struct {
	Source     string    `json:"source"`
	Instant    time.Time `json:"instant"`
	Artifacts  []string  `json:"artifacts"`
	IngestedAt time.Time `json:"ingested_at"`
	RunID      string    `json:"run_id,omitempty"` // set by backfill runs
}

// NewIngestEvent builds the event for a successful outcome.
func NewIngestEvent(o FetchOutcome, ingestedAt time.Time, runID string) IngestEvent {
	return IngestEvent{
		Source:     o.Source,
		Instant:    o.Instant.UTC(),
		Artifacts:  o.Artifacts,
		IngestedAt: ingestedAt.UTC(),
		RunID:      runID,
	}
}

// Key identifies the ingested instant: "{source}|{instant RFC3339}".
func (e IngestEvent) Key() string {
	return e.Source + "|" + e.Instant.UTC().Format(time.RFC3339)
}
