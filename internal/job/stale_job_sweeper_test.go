package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmoraru/personas/internal/model"
)

type fakeSweepLedger struct {
	sweptPersonas []string
	batches       map[string][]*model.IngestionJob
}

func (f *fakeSweepLedger) SweepStale(ctx context.Context, startedBefore int64, completedAt int64) ([]string, error) {
	return f.sweptPersonas, nil
}

func (f *fakeSweepLedger) LatestBatch(ctx context.Context, personaID string) ([]*model.IngestionJob, error) {
	return f.batches[personaID], nil
}

type fakeStatusStore struct {
	statuses map[string]model.PersonaStatus
}

func (f *fakeStatusStore) UpdateStatus(ctx context.Context, personaID string, status model.PersonaStatus) error {
	if f.statuses == nil {
		f.statuses = make(map[string]model.PersonaStatus)
	}
	f.statuses[personaID] = status
	return nil
}

func TestStaleJobSweeper_MarksPersonaFailed(t *testing.T) {
	ledger := &fakeSweepLedger{
		sweptPersonas: []string{"eminescu"},
		batches: map[string][]*model.IngestionJob{
			"eminescu": {
				{ID: "j1", PersonaID: "eminescu", Status: model.JobStatusCompleted},
				{ID: "j2", PersonaID: "eminescu", Status: model.JobStatusFailed},
			},
		},
	}
	store := &fakeStatusStore{}
	sweeper := NewStaleJobSweeper(ledger, store, time.Hour)

	require.NoError(t, sweeper.Run(context.Background()))
	require.Equal(t, model.PersonaStatusFailed, store.statuses["eminescu"])
}

func TestStaleJobSweeper_LeavesInFlightBatchAlone(t *testing.T) {
	ledger := &fakeSweepLedger{
		sweptPersonas: []string{"cioran"},
		batches: map[string][]*model.IngestionJob{
			"cioran": {
				{ID: "j1", PersonaID: "cioran", Status: model.JobStatusFailed},
				{ID: "j2", PersonaID: "cioran", Status: model.JobStatusProcessing},
			},
		},
	}
	store := &fakeStatusStore{}
	sweeper := NewStaleJobSweeper(ledger, store, time.Hour)

	require.NoError(t, sweeper.Run(context.Background()))
	require.NotContains(t, store.statuses, "cioran")
}

func TestStaleJobSweeper_NothingSwept(t *testing.T) {
	store := &fakeStatusStore{}
	sweeper := NewStaleJobSweeper(&fakeSweepLedger{}, store, time.Hour)

	require.NoError(t, sweeper.Run(context.Background()))
	require.Empty(t, store.statuses)
}
