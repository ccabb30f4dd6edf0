package worker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dmoraru/personas/internal/model"
)

// Dispatcher feeds ingestion jobs to a bounded worker pool. The pool is
// shared process-wide, so total ingestion concurrency stays capped no
// matter how many batches are triggered.
type Dispatcher struct {
	pool     *ants.Pool
	runner   *Runner
	personas PersonaStore
}

func NewDispatcher(poolSize int, runner *Runner, personas PersonaStore) (*Dispatcher, error) {
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{pool: pool, runner: runner, personas: personas}, nil
}

// DispatchBatch moves the persona into ingesting and submits its jobs,
// profile first so the interpretive lens lands before the heavier corpora.
// Submission order only; workers may still finish in any order. A submit
// failure fails the persona and the remaining unsubmitted jobs.
func (d *Dispatcher) DispatchBatch(ctx context.Context, personaID string, jobs []*model.IngestionJob) error {
	if err := d.personas.UpdateStatus(ctx, personaID, model.PersonaStatusIngesting); err != nil {
		return err
	}
	ordered := make([]*model.IngestionJob, len(jobs))
	copy(ordered, jobs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return typeRank(ordered[i].CollectionType) < typeRank(ordered[j].CollectionType)
	})

	// Jobs run detached from the request that triggered them.
	runCtx := context.WithoutCancel(ctx)
	for i, job := range ordered {
		job := job
		if err := d.pool.Submit(func() {
			d.runner.Run(runCtx, job)
		}); err != nil {
			now := time.Now().UnixMilli()
			for _, rest := range ordered[i:] {
				if _, markErr := d.runner.ledger.MarkFailed(ctx, rest.ID, "dispatch failed: "+err.Error(), now); markErr != nil {
					logutil.GetLogger(ctx).Error("mark undispatched job failed", zap.String("job_id", rest.ID), zap.Error(markErr))
				}
			}
			if statusErr := d.personas.UpdateStatus(ctx, personaID, model.PersonaStatusFailed); statusErr != nil {
				logutil.GetLogger(ctx).Error("fail persona after dispatch error", zap.Error(statusErr))
			}
			return fmt.Errorf("dispatch ingestion job: %w", err)
		}
	}
	return nil
}

func (d *Dispatcher) Close() {
	d.pool.Release()
}

func typeRank(t model.CollectionType) int {
	for i, candidate := range model.AllCollectionTypes() {
		if candidate == t {
			return i
		}
	}
	return len(model.AllCollectionTypes())
}
