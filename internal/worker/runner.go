// Package worker executes ingestion jobs off the request path. Every work
// unit runs wrapped in ledger bookkeeping so a job row always reaches a
// terminal state exactly once, whatever the pipeline does.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dmoraru/personas/internal/ingest"
	"github.com/dmoraru/personas/internal/model"
)

type JobLedger interface {
	MarkProcessing(ctx context.Context, jobID string, startedAt int64) (bool, error)
	MarkCompleted(ctx context.Context, jobID string, totalVectors int, completedAt int64) (bool, error)
	MarkFailed(ctx context.Context, jobID string, errMessage string, completedAt int64) (bool, error)
	UpdateProgress(ctx context.Context, jobID string, progress int) error
	LatestBatch(ctx context.Context, personaID string) ([]*model.IngestionJob, error)
}

type PersonaStore interface {
	Get(ctx context.Context, personaID string) (*model.Persona, error)
	UpdateStatus(ctx context.Context, personaID string, status model.PersonaStatus) error
}

type IngestRunner interface {
	Run(ctx context.Context, persona *model.Persona, ctype model.CollectionType, onProgress ingest.ProgressFunc) (int, error)
}

type CacheReloader interface {
	Reload(personaID string)
}

type Runner struct {
	ledger    JobLedger
	personas  PersonaStore
	pipeline  IngestRunner
	reloader  CacheReloader
	softLimit time.Duration
}

func NewRunner(ledger JobLedger, personas PersonaStore, pipeline IngestRunner, reloader CacheReloader, softLimit time.Duration) *Runner {
	return &Runner{
		ledger:    ledger,
		personas:  personas,
		pipeline:  pipeline,
		reloader:  reloader,
		softLimit: softLimit,
	}
}

// Run claims the job, executes the pipeline and writes the terminal state.
// The claim is a CAS on status, so a job resurrected or double-dispatched
// is executed at most once.
func (r *Runner) Run(ctx context.Context, job *model.IngestionJob) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("job_id", job.ID),
		zap.String("persona", job.PersonaID),
		zap.String("collection", string(job.CollectionType)),
	)

	claimed, err := r.ledger.MarkProcessing(ctx, job.ID, time.Now().UnixMilli())
	if err != nil {
		logger.Error("claim job failed", zap.Error(err))
		return
	}
	if !claimed {
		logger.Warn("job not pending, skipping")
		return
	}

	count, runErr := r.execute(ctx, job)
	now := time.Now().UnixMilli()
	if runErr != nil {
		logger.Error("ingestion job failed", zap.Error(runErr))
		if _, err := r.ledger.MarkFailed(ctx, job.ID, runErr.Error(), now); err != nil {
			logger.Error("mark job failed error", zap.Error(err))
		}
	} else {
		logger.Info("ingestion job completed", zap.Int("vectors", count))
		if _, err := r.ledger.MarkCompleted(ctx, job.ID, count, now); err != nil {
			logger.Error("mark job completed error", zap.Error(err))
		}
	}
	r.reconcile(ctx, job.PersonaID)
}

// execute runs the pipeline under the soft time limit with panics turned
// into errors.
func (r *Runner) execute(ctx context.Context, job *model.IngestionJob) (count int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("ingestion panicked: %v", rec)
		}
	}()
	if r.softLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.softLimit)
		defer cancel()
	}
	persona, err := r.personas.Get(ctx, job.PersonaID)
	if err != nil {
		return 0, fmt.Errorf("load persona: %w", err)
	}
	onProgress := func(percent int) {
		_ = r.ledger.UpdateProgress(ctx, job.ID, percent)
	}
	return r.pipeline.Run(ctx, persona, job.CollectionType, onProgress)
}

// reconcile derives the persona status from its latest batch once a job
// lands: all completed makes the persona active and refreshes its
// retrievers, any failure marks it failed. Batches still in flight leave
// the status alone.
func (r *Runner) reconcile(ctx context.Context, personaID string) {
	logger := logutil.GetLogger(ctx).With(zap.String("persona", personaID))
	jobs, err := r.ledger.LatestBatch(ctx, personaID)
	if err != nil {
		logger.Error("load latest batch failed", zap.Error(err))
		return
	}
	if len(jobs) == 0 {
		return
	}
	allCompleted := true
	anyFailed := false
	for _, job := range jobs {
		if job.Status != model.JobStatusCompleted {
			allCompleted = false
		}
		if job.Status == model.JobStatusFailed {
			anyFailed = true
		}
	}
	switch {
	case allCompleted:
		if err := r.personas.UpdateStatus(ctx, personaID, model.PersonaStatusActive); err != nil {
			logger.Error("activate persona failed", zap.Error(err))
			return
		}
		if r.reloader != nil {
			r.reloader.Reload(personaID)
		}
		logger.Info("persona activated")
	case anyFailed:
		if err := r.personas.UpdateStatus(ctx, personaID, model.PersonaStatusFailed); err != nil {
			logger.Error("fail persona failed", zap.Error(err))
		}
	}
}
