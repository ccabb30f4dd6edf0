package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmoraru/personas/internal/ingest"
	"github.com/dmoraru/personas/internal/model"
)

type fakeLedger struct {
	claimable   bool
	completed   []string
	failed      map[string]string
	progress    []int
	batch       []*model.IngestionJob
	completions int
}

func newFakeLedger(claimable bool) *fakeLedger {
	return &fakeLedger{claimable: claimable, failed: map[string]string{}}
}

func (f *fakeLedger) MarkProcessing(_ context.Context, _ string, _ int64) (bool, error) {
	return f.claimable, nil
}

func (f *fakeLedger) MarkCompleted(_ context.Context, jobID string, _ int, _ int64) (bool, error) {
	f.completed = append(f.completed, jobID)
	f.completions++
	return true, nil
}

func (f *fakeLedger) MarkFailed(_ context.Context, jobID string, errMessage string, _ int64) (bool, error) {
	f.failed[jobID] = errMessage
	return true, nil
}

func (f *fakeLedger) UpdateProgress(_ context.Context, _ string, progress int) error {
	f.progress = append(f.progress, progress)
	return nil
}

func (f *fakeLedger) LatestBatch(_ context.Context, _ string) ([]*model.IngestionJob, error) {
	return f.batch, nil
}

type fakePersonas struct {
	persona  *model.Persona
	statuses []model.PersonaStatus
}

func (f *fakePersonas) Get(_ context.Context, _ string) (*model.Persona, error) {
	if f.persona == nil {
		return nil, fmt.Errorf("no such persona")
	}
	return f.persona, nil
}

func (f *fakePersonas) UpdateStatus(_ context.Context, _ string, status model.PersonaStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

type fakePipeline struct {
	count  int
	err    error
	panics bool
}

func (f *fakePipeline) Run(_ context.Context, _ *model.Persona, _ model.CollectionType, onProgress ingest.ProgressFunc) (int, error) {
	if f.panics {
		panic("pipeline exploded")
	}
	if onProgress != nil {
		onProgress(90)
	}
	return f.count, f.err
}

type fakeReloader struct {
	reloaded []string
}

func (f *fakeReloader) Reload(personaID string) {
	f.reloaded = append(f.reloaded, personaID)
}

func job(id string, ctype model.CollectionType, status model.JobStatus) *model.IngestionJob {
	return &model.IngestionJob{ID: id, PersonaID: "eminescu", BatchID: "b1", CollectionType: ctype, Status: status}
}

func TestRunCompletesJob(t *testing.T) {
	ledger := newFakeLedger(true)
	ledger.batch = []*model.IngestionJob{job("j1", model.CollectionWorks, model.JobStatusProcessing)}
	personas := &fakePersonas{persona: &model.Persona{PersonaID: "eminescu"}}
	runner := NewRunner(ledger, personas, &fakePipeline{count: 42}, nil, time.Minute)

	runner.Run(context.Background(), job("j1", model.CollectionWorks, model.JobStatusPending))

	assert.Equal(t, []string{"j1"}, ledger.completed)
	assert.Empty(t, ledger.failed)
	assert.Equal(t, []int{90}, ledger.progress)
	assert.Equal(t, 1, ledger.completions)
}

func TestRunFailsJobOnPipelineError(t *testing.T) {
	ledger := newFakeLedger(true)
	personas := &fakePersonas{persona: &model.Persona{PersonaID: "eminescu"}}
	runner := NewRunner(ledger, personas, &fakePipeline{err: fmt.Errorf("embedding quota exceeded")}, nil, time.Minute)

	runner.Run(context.Background(), job("j1", model.CollectionWorks, model.JobStatusPending))

	assert.Empty(t, ledger.completed)
	assert.Contains(t, ledger.failed["j1"], "embedding quota exceeded")
}

func TestRunRecoversPanicIntoFailure(t *testing.T) {
	ledger := newFakeLedger(true)
	personas := &fakePersonas{persona: &model.Persona{PersonaID: "eminescu"}}
	runner := NewRunner(ledger, personas, &fakePipeline{panics: true}, nil, time.Minute)

	runner.Run(context.Background(), job("j1", model.CollectionQuotes, model.JobStatusPending))

	assert.Contains(t, ledger.failed["j1"], "pipeline exploded")
}

func TestRunSkipsUnclaimableJob(t *testing.T) {
	ledger := newFakeLedger(false)
	runner := NewRunner(ledger, &fakePersonas{}, &fakePipeline{}, nil, time.Minute)

	runner.Run(context.Background(), job("j1", model.CollectionWorks, model.JobStatusCompleted))

	assert.Empty(t, ledger.completed)
	assert.Empty(t, ledger.failed)
}

func TestRunFailsWhenPersonaMissing(t *testing.T) {
	ledger := newFakeLedger(true)
	runner := NewRunner(ledger, &fakePersonas{}, &fakePipeline{}, nil, time.Minute)

	runner.Run(context.Background(), job("j1", model.CollectionWorks, model.JobStatusPending))

	assert.Contains(t, ledger.failed["j1"], "no such persona")
}

func TestReconcileAllCompletedActivatesAndReloads(t *testing.T) {
	ledger := newFakeLedger(true)
	ledger.batch = []*model.IngestionJob{
		job("j1", model.CollectionProfile, model.JobStatusCompleted),
		job("j2", model.CollectionWorks, model.JobStatusCompleted),
		job("j3", model.CollectionQuotes, model.JobStatusCompleted),
	}
	personas := &fakePersonas{persona: &model.Persona{PersonaID: "eminescu"}}
	reloader := &fakeReloader{}
	runner := NewRunner(ledger, personas, &fakePipeline{}, reloader, time.Minute)

	runner.reconcile(context.Background(), "eminescu")

	require.Equal(t, []model.PersonaStatus{model.PersonaStatusActive}, personas.statuses)
	assert.Equal(t, []string{"eminescu"}, reloader.reloaded)
}

func TestReconcileAnyFailedFailsPersona(t *testing.T) {
	ledger := newFakeLedger(true)
	ledger.batch = []*model.IngestionJob{
		job("j1", model.CollectionProfile, model.JobStatusCompleted),
		job("j2", model.CollectionWorks, model.JobStatusFailed),
		job("j3", model.CollectionQuotes, model.JobStatusCompleted),
	}
	personas := &fakePersonas{persona: &model.Persona{PersonaID: "eminescu"}}
	reloader := &fakeReloader{}
	runner := NewRunner(ledger, personas, &fakePipeline{}, reloader, time.Minute)

	runner.reconcile(context.Background(), "eminescu")

	assert.Equal(t, []model.PersonaStatus{model.PersonaStatusFailed}, personas.statuses)
	assert.Empty(t, reloader.reloaded)
}

func TestReconcileInFlightBatchLeavesStatus(t *testing.T) {
	ledger := newFakeLedger(true)
	ledger.batch = []*model.IngestionJob{
		job("j1", model.CollectionProfile, model.JobStatusCompleted),
		job("j2", model.CollectionWorks, model.JobStatusProcessing),
		job("j3", model.CollectionQuotes, model.JobStatusPending),
	}
	personas := &fakePersonas{persona: &model.Persona{PersonaID: "eminescu"}}
	runner := NewRunner(ledger, personas, &fakePipeline{}, nil, time.Minute)

	runner.reconcile(context.Background(), "eminescu")

	assert.Empty(t, personas.statuses)
}
