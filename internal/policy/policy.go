// Package policy resolves effective chunking and retrieval parameters for a
// (persona, collection type) pair. Persona overrides win over the
// process-wide defaults; defaults always exist, so resolution cannot fail.
package policy

import (
	"github.com/dmoraru/personas/internal/config"
	"github.com/dmoraru/personas/internal/model"
)

type ChunkPolicy struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

// Resolve is a pure function and must be called fresh on every ingestion or
// retriever setup, so override edits on draft personas take effect without a
// restart.
func Resolve(p *model.Persona, t model.CollectionType, defaults config.RetrievalConfig) ChunkPolicy {
	base := defaults.For(t)
	out := ChunkPolicy{
		ChunkSize:    base.ChunkSize,
		ChunkOverlap: base.ChunkOverlap,
		TopK:         base.TopK,
	}
	override := p.Override(t)
	if override.ChunkSize != nil {
		out.ChunkSize = *override.ChunkSize
	}
	if override.ChunkOverlap != nil {
		out.ChunkOverlap = *override.ChunkOverlap
	}
	if override.TopK != nil {
		out.TopK = *override.TopK
	}
	return out
}
