package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmoraru/personas/internal/config"
	"github.com/dmoraru/personas/internal/model"
	appErr "github.com/dmoraru/personas/internal/pkg/errors"
	"github.com/dmoraru/personas/internal/repo"
)

type fakePersonaGetter struct {
	personas map[string]*model.Persona
	gets     int
}

func (f *fakePersonaGetter) Get(ctx context.Context, personaID string) (*model.Persona, error) {
	f.gets++
	persona, ok := f.personas[personaID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return persona, nil
}

type fakeSearcherStore struct{}

func (f *fakeSearcherStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*repo.ScoredChunk, error) {
	return nil, nil
}

type fakeQueryEmbedder struct{}

func (f *fakeQueryEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (f *fakeQueryEmbedder) ModelName() string {
	return "fake"
}

func newCacheFixture(t *testing.T) (*Cache, *fakePersonaGetter) {
	t.Helper()
	personas := &fakePersonaGetter{personas: map[string]*model.Persona{
		"eminescu": {PersonaID: "eminescu"},
		"cioran":   {PersonaID: "cioran"},
	}}
	cache, err := NewCache(personas, &fakeSearcherStore{}, &fakeQueryEmbedder{}, config.RetrievalConfig{
		Works:   config.CollectionDefaults{ChunkSize: 1024, ChunkOverlap: 128, TopK: 8},
		Quotes:  config.CollectionDefaults{ChunkSize: 512, ChunkOverlap: 64, TopK: 10},
		Profile: config.CollectionDefaults{ChunkSize: 2048, ChunkOverlap: 256, TopK: 5},
	})
	require.NoError(t, err)
	return cache, personas
}

func TestCacheGet_ReturnsSameHandle(t *testing.T) {
	cache, personas := newCacheFixture(t)
	ctx := context.Background()

	first, err := cache.Get(ctx, "eminescu", model.CollectionWorks)
	require.NoError(t, err)
	second, err := cache.Get(ctx, "eminescu", model.CollectionWorks)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, personas.gets)

	other, err := cache.Get(ctx, "eminescu", model.CollectionQuotes)
	require.NoError(t, err)
	require.NotSame(t, first, other)
}

func TestCacheReload_EvictsOnlyThatPersona(t *testing.T) {
	cache, _ := newCacheFixture(t)
	ctx := context.Background()

	eminescu, err := cache.Get(ctx, "eminescu", model.CollectionWorks)
	require.NoError(t, err)
	cioran, err := cache.Get(ctx, "cioran", model.CollectionWorks)
	require.NoError(t, err)

	cache.Reload("eminescu")

	rebuilt, err := cache.Get(ctx, "eminescu", model.CollectionWorks)
	require.NoError(t, err)
	require.NotSame(t, eminescu, rebuilt)

	kept, err := cache.Get(ctx, "cioran", model.CollectionWorks)
	require.NoError(t, err)
	require.Same(t, cioran, kept)
}

func TestCacheGet_UnknownPersona(t *testing.T) {
	cache, _ := newCacheFixture(t)

	_, err := cache.Get(context.Background(), "nobody", model.CollectionWorks)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
