package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dmoraru/personas/internal/ai"
	"github.com/dmoraru/personas/internal/chunker"
	"github.com/dmoraru/personas/internal/config"
	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/policy"
	"github.com/dmoraru/personas/internal/quotes"
	"github.com/dmoraru/personas/internal/repo"
)

const documentTaskType = "RETRIEVAL_DOCUMENT"

type VectorStore interface {
	Upsert(ctx context.Context, collection string, chunks []*repo.VectorChunk) error
	DeleteCollection(ctx context.Context, collection string) error
}

// ProgressFunc receives coarse percentage milestones during a run.
type ProgressFunc func(percent int)

// Pipeline rebuilds one (persona, collection type) vector collection from
// the raw files in the data tree.
type Pipeline struct {
	vectors  VectorStore
	embedder ai.IEmbedder
	pool     *ants.Pool
	dataDir  string
	defaults config.RetrievalConfig
}

func NewPipeline(vectors VectorStore, embedder ai.IEmbedder, pool *ants.Pool, dataDir string, defaults config.RetrievalConfig) *Pipeline {
	return &Pipeline{
		vectors:  vectors,
		embedder: embedder,
		pool:     pool,
		dataDir:  dataDir,
		defaults: defaults,
	}
}

// Run loads, chunks, embeds and stores one collection, returning the number
// of vectors written. An absent source directory yields zero without error;
// any read or embedding failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, persona *model.Persona, ctype model.CollectionType, onProgress ProgressFunc) (int, error) {
	report := func(percent int) {
		if onProgress != nil {
			onProgress(percent)
		}
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("persona", persona.PersonaID),
		zap.String("collection", string(ctype)),
	)

	docs, err := p.load(persona, ctype)
	if err != nil {
		return 0, err
	}
	report(10)
	collection := model.CollectionName(persona.PersonaID, ctype)
	if len(docs) == 0 {
		logger.Info("no source documents, skipping collection")
		if err := p.vectors.DeleteCollection(ctx, collection); err != nil {
			return 0, err
		}
		return 0, nil
	}

	resolved := policy.Resolve(persona, ctype, p.defaults)
	splitter := chunker.NewSentenceSplitter(resolved.ChunkSize, resolved.ChunkOverlap)
	var pending []*repo.VectorChunk
	for _, doc := range docs {
		for _, piece := range splitter.Split(doc.Text) {
			pending = append(pending, &repo.VectorChunk{
				ChunkID:  uuid.NewString(),
				Content:  piece,
				Metadata: doc.Metadata,
			})
		}
	}
	report(30)
	logger.Info("chunking done", zap.Int("documents", len(docs)), zap.Int("chunks", len(pending)))

	if err := p.embedAll(ctx, pending); err != nil {
		return 0, err
	}
	report(80)

	// Rebuild the collection atomically from the collection's point of
	// view: drop everything, then write the fresh set.
	if err := p.vectors.DeleteCollection(ctx, collection); err != nil {
		return 0, err
	}
	if err := p.vectors.Upsert(ctx, collection, pending); err != nil {
		return 0, err
	}
	report(90)
	logger.Info("collection rebuilt", zap.Int("vectors", len(pending)))
	return len(pending), nil
}

func (p *Pipeline) load(persona *model.Persona, ctype model.CollectionType) ([]Document, error) {
	base := filepath.Join(p.dataDir, persona.PersonaID)
	switch ctype {
	case model.CollectionWorks:
		return LoadWorks(filepath.Join(base, "works"), persona)
	case model.CollectionQuotes:
		// Merge curated and uploaded quotes first, so uploads landed since
		// the last run make it into the corpus without a reseed.
		quotesDir := filepath.Join(base, "quotes")
		if _, err := quotes.Build(quotesDir, persona.RepresentativeQuotes, persona.PersonaID); err != nil {
			return nil, fmt.Errorf("rebuild quotes corpus: %w", err)
		}
		return LoadQuotes(filepath.Join(quotesDir, quotes.CorpusFileName), persona)
	case model.CollectionProfile:
		return LoadProfile(filepath.Join(base, "profile"), persona)
	}
	return nil, fmt.Errorf("unknown collection type: %s", ctype)
}

// embedAll fills chunk embeddings concurrently on the shared worker pool.
func (p *Pipeline) embedAll(ctx context.Context, pending []*repo.VectorChunk) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, chunk := range pending {
		chunk := chunk
		mu.Lock()
		failed := firstErr != nil
		mu.Unlock()
		if failed {
			break
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			embedding, err := p.embedder.Embed(ctx, chunk.Content, documentTaskType)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			chunk.Embedding = embedding
		}
		if p.pool != nil {
			if err := p.pool.Submit(task); err != nil {
				wg.Done()
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				break
			}
		} else {
			task()
		}
	}
	wg.Wait()
	if firstErr != nil {
		return fmt.Errorf("embed chunks: %w", firstErr)
	}
	return nil
}
