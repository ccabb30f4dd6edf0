package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dmoraru/personas/internal/model"
	appErr "github.com/dmoraru/personas/internal/pkg/errors"
)

// BatchStatus aggregates a persona's latest ingestion batch.
type BatchStatus struct {
	PersonaID    string                       `json:"persona_id"`
	BatchID      string                       `json:"batch_id,omitempty"`
	Progress     int                          `json:"progress"`
	AllCompleted bool                         `json:"all_completed"`
	AnyFailed    bool                         `json:"any_failed"`
	Jobs         []*model.IngestionJob        `json:"jobs"`
	VectorCounts map[model.CollectionType]int `json:"vector_counts"`
}

type ingestionLedger interface {
	CountActive(ctx context.Context, personaID string) (int, error)
	CreateBatch(ctx context.Context, jobs []*model.IngestionJob) error
	LatestBatch(ctx context.Context, personaID string) ([]*model.IngestionJob, error)
	ResetFailed(ctx context.Context, jobIDs []string) (int64, error)
	DeleteTerminal(ctx context.Context, personaID string) (int64, error)
}

type personaGetter interface {
	Get(ctx context.Context, personaID string) (*model.Persona, error)
}

type vectorCounter interface {
	Count(ctx context.Context, collection string) (int, error)
}

type batchDispatcher interface {
	DispatchBatch(ctx context.Context, personaID string, jobs []*model.IngestionJob) error
}

type IngestionService struct {
	jobs       ingestionLedger
	personas   personaGetter
	vectors    vectorCounter
	dispatcher batchDispatcher
}

func NewIngestionService(jobs ingestionLedger, personas personaGetter, vectors vectorCounter, dispatcher batchDispatcher) *IngestionService {
	return &IngestionService{jobs: jobs, personas: personas, vectors: vectors, dispatcher: dispatcher}
}

// Trigger starts a full re-ingestion batch: one job per collection type,
// created atomically. A persona with any active job keeps its slot; the
// trigger conflicts instead of stacking batches.
func (s *IngestionService) Trigger(ctx context.Context, personaID string) ([]*model.IngestionJob, error) {
	if _, err := s.personas.Get(ctx, personaID); err != nil {
		return nil, err
	}
	active, err := s.jobs.CountActive(ctx, personaID)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, fmt.Errorf("%w: persona has %d active ingestion jobs", appErr.ErrConflict, active)
	}

	batchID := uuid.NewString()
	now := time.Now().UnixMilli()
	jobs := make([]*model.IngestionJob, 0, 3)
	for _, ctype := range model.AllCollectionTypes() {
		jobs = append(jobs, &model.IngestionJob{
			ID:             uuid.NewString(),
			PersonaID:      personaID,
			BatchID:        batchID,
			CollectionType: ctype,
			Status:         model.JobStatusPending,
			Ctime:          now,
		})
	}
	if err := s.jobs.CreateBatch(ctx, jobs); err != nil {
		return nil, err
	}
	if err := s.dispatcher.DispatchBatch(ctx, personaID, jobs); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("ingestion batch triggered",
		zap.String("persona", personaID), zap.String("batch_id", batchID))
	return jobs, nil
}

// Status reports the persona's latest batch: aggregate progress is the mean
// over its jobs, completion and failure are judged over the same batch. The
// per-collection vector counts reflect what is queryable right now, not what
// the running batch will produce.
func (s *IngestionService) Status(ctx context.Context, personaID string) (*BatchStatus, error) {
	if _, err := s.personas.Get(ctx, personaID); err != nil {
		return nil, err
	}
	jobs, err := s.jobs.LatestBatch(ctx, personaID)
	if err != nil {
		return nil, err
	}
	status := &BatchStatus{
		PersonaID:    personaID,
		Jobs:         jobs,
		VectorCounts: make(map[model.CollectionType]int),
	}
	for _, ctype := range model.AllCollectionTypes() {
		count, err := s.vectors.Count(ctx, model.CollectionName(personaID, ctype))
		if err != nil {
			return nil, err
		}
		status.VectorCounts[ctype] = count
	}
	if len(jobs) == 0 {
		return status, nil
	}
	status.BatchID = jobs[0].BatchID
	status.AllCompleted = true
	total := 0
	for _, job := range jobs {
		total += job.Progress
		if job.Status != model.JobStatusCompleted {
			status.AllCompleted = false
		}
		if job.Status == model.JobStatusFailed {
			status.AnyFailed = true
		}
	}
	status.Progress = total / len(jobs)
	return status, nil
}

// Retry re-dispatches only the failed jobs of the latest batch; completed
// siblings keep their vectors.
func (s *IngestionService) Retry(ctx context.Context, personaID string) ([]*model.IngestionJob, error) {
	if _, err := s.personas.Get(ctx, personaID); err != nil {
		return nil, err
	}
	batch, err := s.jobs.LatestBatch(ctx, personaID)
	if err != nil {
		return nil, err
	}
	var failed []*model.IngestionJob
	var failedIDs []string
	for _, job := range batch {
		if job.Status == model.JobStatusFailed {
			failed = append(failed, job)
			failedIDs = append(failedIDs, job.ID)
		}
	}
	if len(failed) == 0 {
		return nil, fmt.Errorf("%w: no failed jobs to retry", appErr.ErrInvalid)
	}
	if _, err := s.jobs.ResetFailed(ctx, failedIDs); err != nil {
		return nil, err
	}
	for _, job := range failed {
		job.Status = model.JobStatusPending
		job.Progress = 0
		job.ErrorMessage = nil
	}
	if err := s.dispatcher.DispatchBatch(ctx, personaID, failed); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("ingestion retry dispatched",
		zap.String("persona", personaID), zap.Int("jobs", len(failed)))
	return failed, nil
}

// ClearHistory drops terminal jobs only; an in-flight batch is never
// touched.
func (s *IngestionService) ClearHistory(ctx context.Context, personaID string) (int64, error) {
	if _, err := s.personas.Get(ctx, personaID); err != nil {
		return 0, err
	}
	return s.jobs.DeleteTerminal(ctx, personaID)
}
