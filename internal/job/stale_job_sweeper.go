// Package job holds the cron-scheduled maintenance jobs.
package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dmoraru/personas/internal/model"
)

type sweepLedger interface {
	SweepStale(ctx context.Context, startedBefore int64, completedAt int64) ([]string, error)
	LatestBatch(ctx context.Context, personaID string) ([]*model.IngestionJob, error)
}

type personaStatusStore interface {
	UpdateStatus(ctx context.Context, personaID string, status model.PersonaStatus) error
}

// StaleJobSweeper fails ingestion jobs stuck in processing past the hard
// time limit. Workers cannot be force-killed, so the sweeper is what keeps
// a wedged job from holding its persona's ingestion slot forever. After a
// sweep it settles each affected persona the same way the worker does when
// a job fails.
type StaleJobSweeper struct {
	jobs      sweepLedger
	personas  personaStatusStore
	hardLimit time.Duration
}

func NewStaleJobSweeper(jobs sweepLedger, personas personaStatusStore, hardLimit time.Duration) *StaleJobSweeper {
	return &StaleJobSweeper{jobs: jobs, personas: personas, hardLimit: hardLimit}
}

func (j *StaleJobSweeper) Name() string {
	return "stale_job_sweeper"
}

func (j *StaleJobSweeper) Run(ctx context.Context) error {
	if j.jobs == nil {
		return nil
	}
	now := time.Now()
	cutoff := now.Add(-j.hardLimit).UnixMilli()
	personaIDs, err := j.jobs.SweepStale(ctx, cutoff, now.UnixMilli())
	if err != nil {
		return err
	}
	if len(personaIDs) == 0 {
		return nil
	}
	logutil.GetLogger(ctx).Warn("swept stale ingestion jobs", zap.Strings("personas", personaIDs))
	for _, personaID := range personaIDs {
		j.settle(ctx, personaID)
	}
	return nil
}

// settle judges the persona's latest batch after a sweep. A batch with any
// failed job and no in-flight siblings marks the persona failed; anything
// still running is left for the worker's own reconcile.
func (j *StaleJobSweeper) settle(ctx context.Context, personaID string) {
	batch, err := j.jobs.LatestBatch(ctx, personaID)
	if err != nil {
		logutil.GetLogger(ctx).Error("load latest batch after sweep failed",
			zap.String("persona", personaID), zap.Error(err))
		return
	}
	anyFailed := false
	for _, job := range batch {
		if job.Status.Active() {
			return
		}
		if job.Status == model.JobStatusFailed {
			anyFailed = true
		}
	}
	if !anyFailed {
		return
	}
	if err := j.personas.UpdateStatus(ctx, personaID, model.PersonaStatusFailed); err != nil {
		logutil.GetLogger(ctx).Error("update persona status after sweep failed",
			zap.String("persona", personaID), zap.Error(err))
	}
}
