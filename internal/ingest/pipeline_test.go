package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmoraru/personas/internal/config"
	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/repo"
)

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) ModelName() string {
	return "fake-embed"
}

type fakeVectorStore struct {
	collections map[string][]*repo.VectorChunk
	deleted     []string
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{collections: map[string][]*repo.VectorChunk{}}
}

func (f *fakeVectorStore) Upsert(_ context.Context, collection string, chunks []*repo.VectorChunk) error {
	f.collections[collection] = append(f.collections[collection], chunks...)
	return nil
}

func (f *fakeVectorStore) DeleteCollection(_ context.Context, collection string) error {
	f.deleted = append(f.deleted, collection)
	delete(f.collections, collection)
	return nil
}

func testPersona() *model.Persona {
	return &model.Persona{PersonaID: "eminescu", DisplayName: "Mihai Eminescu"}
}

func testDefaults() config.RetrievalConfig {
	return config.RetrievalConfig{
		Works:   config.CollectionDefaults{ChunkSize: 1024, ChunkOverlap: 128, TopK: 8},
		Quotes:  config.CollectionDefaults{ChunkSize: 512, ChunkOverlap: 64, TopK: 10},
		Profile: config.CollectionDefaults{ChunkSize: 2048, ChunkOverlap: 256, TopK: 5},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunWorks(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "eminescu", "works", "luceafarul.txt"),
		"A fost odata ca-n povesti. A fost ca niciodata.")
	writeFile(t, filepath.Join(dataDir, "eminescu", "works", "scrisoarea.md"),
		"# Scrisoarea III\n\nUn sultan dintre aceia ce domnesc peste vreo limba.")
	writeFile(t, filepath.Join(dataDir, "eminescu", "works", "ignored.pdf"), "binary")

	store := newFakeVectorStore()
	embedder := &fakeEmbedder{}
	p := NewPipeline(store, embedder, nil, dataDir, testDefaults())

	count, err := p.Run(context.Background(), testPersona(), model.CollectionWorks, nil)
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	chunks := store.collections["eminescu_works"]
	require.Len(t, chunks, count)
	assert.Equal(t, count, embedder.calls)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Embedding)
		assert.Equal(t, "eminescu", chunk.Metadata["persona_id"])
		assert.Equal(t, "literary_work", chunk.Metadata["source_type"])
	}
	// markdown heading syntax must not leak into chunk text
	for _, chunk := range chunks {
		assert.NotContains(t, chunk.Content, "# Scrisoarea")
	}
}

func TestRunQuotesOneDocPerLine(t *testing.T) {
	dataDir := t.TempDir()
	uploaded := `{"text":"Ce e val, ca valul trece."}
{"text":"Nu spera si nu ai teama."}
`
	writeFile(t, filepath.Join(dataDir, "eminescu", "quotes", "uploaded.jsonl"), uploaded)

	store := newFakeVectorStore()
	p := NewPipeline(store, &fakeEmbedder{}, nil, dataDir, testDefaults())

	count, err := p.Run(context.Background(), testPersona(), model.CollectionQuotes, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	chunks := store.collections["eminescu_quotes"]
	require.Len(t, chunks, 2)
	assert.Equal(t, "uploaded.jsonl", chunks[0].Metadata["source_file"])
	assert.Equal(t, "quote", chunks[1].Metadata["source_type"])
}

func TestRunQuotesMergesCuratedAndUploads(t *testing.T) {
	dataDir := t.TempDir()
	// one duplicate of a curated quote, one new quote
	uploaded := `{"text":"Nu spera si nu ai teama."}
{"text":"La steaua care-a rasarit."}
`
	writeFile(t, filepath.Join(dataDir, "eminescu", "quotes", "uploaded.jsonl"), uploaded)
	// a stale corpus from a previous run must not leak old entries
	writeFile(t, filepath.Join(dataDir, "eminescu", "quotes", "all_quotes.jsonl"),
		`{"text":"Veche si disparuta."}`+"\n")

	persona := testPersona()
	persona.RepresentativeQuotes = []string{
		"Traind in cercul vostru strimt.",
		"Nu spera si nu ai teama.",
	}

	store := newFakeVectorStore()
	p := NewPipeline(store, &fakeEmbedder{}, nil, dataDir, testDefaults())

	count, err := p.Run(context.Background(), persona, model.CollectionQuotes, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	chunks := store.collections["eminescu_quotes"]
	require.Len(t, chunks, 3)
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Content)
	}
	assert.Contains(t, texts, "Traind in cercul vostru strimt.")
	assert.Contains(t, texts, "La steaua care-a rasarit.")
	assert.NotContains(t, texts, "Veche si disparuta.")
	assert.Equal(t, "curated", chunks[0].Metadata["source_type"])
	assert.Equal(t, "uploaded.jsonl", chunks[2].Metadata["source_file"])
}

func TestRunProfileTagsSummaryAndDocuments(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "eminescu", "profile", "profile.md"),
		"## Biografie\n\nPoet nascut la Botosani in 1850.")
	writeFile(t, filepath.Join(dataDir, "eminescu", "profile", "studiu.txt"),
		"Un studiu critic asupra operei.")

	store := newFakeVectorStore()
	p := NewPipeline(store, &fakeEmbedder{}, nil, dataDir, testDefaults())

	count, err := p.Run(context.Background(), testPersona(), model.CollectionProfile, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	byType := map[string]string{}
	for _, chunk := range store.collections["eminescu_profile"] {
		byType[chunk.Metadata["source_type"]] = chunk.Metadata["source_file"]
	}
	assert.Equal(t, "profile.md", byType["profile_summary"])
	assert.Equal(t, "studiu.txt", byType["profile_document"])
}

func TestRunAbsentDirIsNoOp(t *testing.T) {
	store := newFakeVectorStore()
	embedder := &fakeEmbedder{}
	p := NewPipeline(store, embedder, nil, t.TempDir(), testDefaults())

	count, err := p.Run(context.Background(), testPersona(), model.CollectionWorks, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, embedder.calls)
	// the stale collection is still cleared
	assert.Contains(t, store.deleted, "eminescu_works")
}

func TestRunEmbedFailureAborts(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "eminescu", "works", "a.txt"), "Un text oarecare.")

	store := newFakeVectorStore()
	p := NewPipeline(store, &fakeEmbedder{err: fmt.Errorf("quota exceeded")}, nil, dataDir, testDefaults())

	_, err := p.Run(context.Background(), testPersona(), model.CollectionWorks, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, store.collections["eminescu_works"])
}

func TestRunReportsProgress(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "eminescu", "works", "a.txt"), "Un text oarecare.")

	var milestones []int
	p := NewPipeline(newFakeVectorStore(), &fakeEmbedder{}, nil, dataDir, testDefaults())
	_, err := p.Run(context.Background(), testPersona(), model.CollectionWorks, func(percent int) {
		milestones = append(milestones, percent)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30, 80, 90}, milestones)
}

func TestCachedEmbedder(t *testing.T) {
	inner := &fakeEmbedder{}
	cache := &memCache{items: map[string][]float32{}}
	e := NewCachedEmbedder(inner, cache)

	first, err := e.Embed(context.Background(), "acelasi text", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "acelasi text", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "fake-embed", e.ModelName())
}

type memCache struct {
	items map[string][]float32
}

func (m *memCache) Get(_ context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	v, ok := m.items[modelName+taskType+contentHash]
	return v, ok, nil
}

func (m *memCache) Save(_ context.Context, item *model.EmbeddingCache) error {
	m.items[item.ModelName+item.TaskType+item.ContentHash] = item.Embedding
	return nil
}
