package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/repo"
)

type fakeRetriever struct {
	hits []*repo.ScoredChunk
	err  error
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string) ([]*repo.ScoredChunk, error) {
	return f.hits, f.err
}

type fakeSource struct {
	retrievers map[model.CollectionType]IRetriever
	errs       map[model.CollectionType]error
}

func (f *fakeSource) Get(_ context.Context, _ string, ctype model.CollectionType) (IRetriever, error) {
	if err := f.errs[ctype]; err != nil {
		return nil, err
	}
	return f.retrievers[ctype], nil
}

func hit(content, sourceFile string) *repo.ScoredChunk {
	return &repo.ScoredChunk{
		Content:  content,
		Metadata: map[string]string{"source_file": sourceFile},
	}
}

func TestSearchFansOutAllCollections(t *testing.T) {
	source := &fakeSource{retrievers: map[model.CollectionType]IRetriever{
		model.CollectionProfile: &fakeRetriever{hits: []*repo.ScoredChunk{hit("biografie", "profile.md")}},
		model.CollectionWorks:   &fakeRetriever{hits: []*repo.ScoredChunk{hit("vers", "luceafarul.txt")}},
		model.CollectionQuotes:  &fakeRetriever{hits: []*repo.ScoredChunk{hit("aforism", "all_quotes.jsonl")}},
	}}
	results := NewSearcher(source).Search(context.Background(), "eminescu", "dor")
	require.Len(t, results, 3)
	assert.Equal(t, []string{"biografie"}, results[model.CollectionProfile].Chunks)
	assert.Equal(t, []string{"vers"}, results[model.CollectionWorks].Chunks)
	assert.Equal(t, []string{"aforism"}, results[model.CollectionQuotes].Chunks)
	assert.Equal(t, []string{"luceafarul.txt"}, results[model.CollectionWorks].Sources)
}

func TestSearchCollectionFailureDegrades(t *testing.T) {
	source := &fakeSource{
		retrievers: map[model.CollectionType]IRetriever{
			model.CollectionProfile: &fakeRetriever{err: fmt.Errorf("collection lost")},
			model.CollectionWorks:   &fakeRetriever{hits: []*repo.ScoredChunk{hit("vers", "poezii.txt")}},
			model.CollectionQuotes:  &fakeRetriever{hits: nil},
		},
	}
	results := NewSearcher(source).Search(context.Background(), "cioran", "timp")
	assert.Empty(t, results[model.CollectionProfile].Chunks)
	assert.Equal(t, []string{"vers"}, results[model.CollectionWorks].Chunks)
	assert.Empty(t, results[model.CollectionQuotes].Chunks)
}

func TestSearchRetrieverSourceErrorDegrades(t *testing.T) {
	source := &fakeSource{
		retrievers: map[model.CollectionType]IRetriever{
			model.CollectionWorks: &fakeRetriever{hits: []*repo.ScoredChunk{hit("text", "a.txt")}},
		},
		errs: map[model.CollectionType]error{
			model.CollectionProfile: fmt.Errorf("persona missing"),
			model.CollectionQuotes:  fmt.Errorf("persona missing"),
		},
	}
	results := NewSearcher(source).Search(context.Background(), "x", "q")
	assert.Empty(t, results[model.CollectionProfile].Chunks)
	assert.Len(t, results[model.CollectionWorks].Chunks, 1)
}

func TestSearchTruncationPerCollection(t *testing.T) {
	long := strings.Repeat("a", 2000)
	source := &fakeSource{retrievers: map[model.CollectionType]IRetriever{
		model.CollectionProfile: &fakeRetriever{hits: []*repo.ScoredChunk{hit(long, "p.md")}},
		model.CollectionWorks:   &fakeRetriever{hits: []*repo.ScoredChunk{hit(long, "w.txt")}},
		model.CollectionQuotes:  &fakeRetriever{hits: []*repo.ScoredChunk{hit(long, "q.jsonl")}},
	}}
	results := NewSearcher(source).Search(context.Background(), "eliade", "mit")
	assert.Len(t, results[model.CollectionProfile].Chunks[0], 1200)
	assert.Len(t, results[model.CollectionWorks].Chunks[0], 600)
	assert.Len(t, results[model.CollectionQuotes].Chunks[0], 2000)
}

func TestSearchSourceFallbacks(t *testing.T) {
	source := &fakeSource{retrievers: map[model.CollectionType]IRetriever{
		model.CollectionProfile: &fakeRetriever{},
		model.CollectionQuotes:  &fakeRetriever{},
		model.CollectionWorks: &fakeRetriever{hits: []*repo.ScoredChunk{
			{Content: "a", Metadata: map[string]string{"file_name": "upload.txt"}},
			{Content: "b", Metadata: map[string]string{}},
			{Content: "c", Metadata: map[string]string{"source_file": "real.txt", "file_name": "ignored.txt"}},
		}},
	}}
	results := NewSearcher(source).Search(context.Background(), "x", "q")
	assert.Equal(t, []string{"upload.txt", "unknown", "real.txt"}, results[model.CollectionWorks].Sources)
}
