package retrieval

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dmoraru/personas/internal/model"
)

// truncation limit per collection type, in runes. Zero means unlimited;
// quotes are short and quoted verbatim, so they never get cut.
var truncateLimits = map[model.CollectionType]int{
	model.CollectionProfile: 1200,
	model.CollectionWorks:   600,
	model.CollectionQuotes:  0,
}

type CollectionResult struct {
	Chunks  []string
	Sources []string
}

type Results map[model.CollectionType]CollectionResult

type RetrieverSource interface {
	Get(ctx context.Context, personaID string, ctype model.CollectionType) (IRetriever, error)
}

// Searcher fans one query out across a persona's three collections in
// parallel. A collection that errors degrades to an empty result rather
// than failing the query; partial context beats no answer.
type Searcher struct {
	source RetrieverSource
}

func NewSearcher(source RetrieverSource) *Searcher {
	return &Searcher{source: source}
}

func (s *Searcher) Search(ctx context.Context, personaID string, query string) Results {
	results := make(Results, 3)
	var eg errgroup.Group
	resultSlots := make([]CollectionResult, 3)
	types := model.AllCollectionTypes()
	for i, ctype := range types {
		i, ctype := i, ctype
		eg.Go(func() error {
			resultSlots[i] = s.searchOne(ctx, personaID, ctype, query)
			return nil
		})
	}
	_ = eg.Wait()
	for i, ctype := range types {
		results[ctype] = resultSlots[i]
	}
	return results
}

func (s *Searcher) searchOne(ctx context.Context, personaID string, ctype model.CollectionType, query string) CollectionResult {
	retriever, err := s.source.Get(ctx, personaID, ctype)
	if err != nil {
		logutil.GetLogger(ctx).Warn("retriever unavailable",
			zap.String("persona", personaID), zap.String("collection", string(ctype)), zap.Error(err))
		return CollectionResult{}
	}
	hits, err := retriever.Retrieve(ctx, query)
	if err != nil {
		logutil.GetLogger(ctx).Warn("collection search failed",
			zap.String("persona", personaID), zap.String("collection", string(ctype)), zap.Error(err))
		return CollectionResult{}
	}
	limit := truncateLimits[ctype]
	var result CollectionResult
	seen := make(map[string]bool)
	for _, hit := range hits {
		content := hit.Content
		if limit > 0 {
			runes := []rune(content)
			if len(runes) > limit {
				content = string(runes[:limit])
			}
		}
		result.Chunks = append(result.Chunks, content)
		source := chunkSource(hit.Metadata)
		if !seen[source] {
			seen[source] = true
			result.Sources = append(result.Sources, source)
		}
	}
	return result
}

func chunkSource(metadata map[string]string) string {
	if v := metadata["source_file"]; v != "" {
		return v
	}
	if v := metadata["file_name"]; v != "" {
		return v
	}
	return "unknown"
}
