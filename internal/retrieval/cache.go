package retrieval

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dmoraru/personas/internal/ai"
	"github.com/dmoraru/personas/internal/config"
	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/policy"
)

const defaultCacheSize = 64

type PersonaGetter interface {
	Get(ctx context.Context, personaID string) (*model.Persona, error)
}

// Cache hands out retrievers keyed by (persona, collection type). A cached
// retriever carries the top_k resolved at construction time, so Reload must
// be called after override edits or re-ingestion.
type Cache struct {
	items    *lru.Cache[string, IRetriever]
	personas PersonaGetter
	vectors  VectorSearcher
	embedder ai.IEmbedder
	defaults config.RetrievalConfig
}

func NewCache(personas PersonaGetter, vectors VectorSearcher, embedder ai.IEmbedder, defaults config.RetrievalConfig) (*Cache, error) {
	items, err := lru.New[string, IRetriever](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Cache{
		items:    items,
		personas: personas,
		vectors:  vectors,
		embedder: embedder,
		defaults: defaults,
	}, nil
}

func (c *Cache) Get(ctx context.Context, personaID string, ctype model.CollectionType) (IRetriever, error) {
	key := cacheKey(personaID, ctype)
	if item, ok := c.items.Get(key); ok {
		return item, nil
	}
	persona, err := c.personas.Get(ctx, personaID)
	if err != nil {
		return nil, err
	}
	resolved := policy.Resolve(persona, ctype, c.defaults)
	retriever := NewRetriever(c.vectors, c.embedder, personaID, ctype, resolved.TopK)
	c.items.Add(key, retriever)
	return retriever, nil
}

// Reload evicts the persona's retrievers so the next query sees fresh
// policy and collection state.
func (c *Cache) Reload(personaID string) {
	for _, ctype := range model.AllCollectionTypes() {
		c.items.Remove(cacheKey(personaID, ctype))
	}
}

func cacheKey(personaID string, ctype model.CollectionType) string {
	return personaID + "|" + string(ctype)
}
