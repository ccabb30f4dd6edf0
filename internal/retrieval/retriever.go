// Package retrieval answers queries against the per-persona vector
// collections. Retrievers are cheap handles binding a collection to its
// resolved top_k; the cache keeps one per (persona, collection type).
package retrieval

import (
	"context"
	"fmt"

	"github.com/dmoraru/personas/internal/ai"
	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/repo"
)

const queryTaskType = "RETRIEVAL_QUERY"

type IRetriever interface {
	Retrieve(ctx context.Context, query string) ([]*repo.ScoredChunk, error)
}

type VectorSearcher interface {
	Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*repo.ScoredChunk, error)
}

type Retriever struct {
	vectors    VectorSearcher
	embedder   ai.IEmbedder
	collection string
	topK       int
}

func NewRetriever(vectors VectorSearcher, embedder ai.IEmbedder, personaID string, ctype model.CollectionType, topK int) *Retriever {
	return &Retriever{
		vectors:    vectors,
		embedder:   embedder,
		collection: model.CollectionName(personaID, ctype),
		topK:       topK,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]*repo.ScoredChunk, error) {
	embedding, err := r.embedder.Embed(ctx, query, queryTaskType)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.vectors.Search(ctx, r.collection, embedding, r.topK)
}
