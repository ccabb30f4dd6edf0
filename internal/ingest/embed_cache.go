package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dmoraru/personas/internal/ai"
	"github.com/dmoraru/personas/internal/model"
)

type EmbeddingCacheStore interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCache) error
}

// CachedEmbedder fronts an embedder with the persistent embedding cache, so
// re-ingesting unchanged text never re-pays the provider call. Cache errors
// are swallowed: the cache is an optimization, not a dependency.
type CachedEmbedder struct {
	inner ai.IEmbedder
	cache EmbeddingCacheStore
}

func NewCachedEmbedder(inner ai.IEmbedder, cache EmbeddingCacheStore) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	hash := contentHash(text)
	if e.cache != nil {
		if embedding, ok, err := e.cache.Get(ctx, e.inner.ModelName(), taskType, hash); err == nil && ok {
			return embedding, nil
		}
	}
	embedding, err := e.inner.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		_ = e.cache.Save(ctx, &model.EmbeddingCache{
			ModelName:   e.inner.ModelName(),
			TaskType:    taskType,
			ContentHash: hash,
			Embedding:   embedding,
			Ctime:       time.Now().UnixMilli(),
		})
	}
	return embedding, nil
}

func (e *CachedEmbedder) ModelName() string {
	return e.inner.ModelName()
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
