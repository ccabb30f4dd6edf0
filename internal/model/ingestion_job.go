package model

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Active reports whether the job still holds the persona's ingestion slot.
func (s JobStatus) Active() bool {
	return s == JobStatusPending || s == JobStatusProcessing
}

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IngestionJob is one ledger row: a single (persona, collection type)
// ingestion attempt. Jobs created by the same trigger share a BatchID.
type IngestionJob struct {
	ID             string         `json:"id"`
	PersonaID      string         `json:"persona_id"`
	BatchID        string         `json:"batch_id"`
	CollectionType CollectionType `json:"collection_type"`
	Status         JobStatus      `json:"status"`
	Progress       int            `json:"progress"`
	TotalVectors   *int           `json:"total_vectors,omitempty"`
	ErrorMessage   *string        `json:"error_message,omitempty"`
	StartedAt      *int64         `json:"started_at,omitempty"`
	CompletedAt    *int64         `json:"completed_at,omitempty"`
	Ctime          int64          `json:"ctime"`
}
