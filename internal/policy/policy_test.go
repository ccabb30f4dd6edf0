package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmoraru/personas/internal/config"
	"github.com/dmoraru/personas/internal/model"
)

func testDefaults() config.RetrievalConfig {
	return config.RetrievalConfig{
		Works:   config.CollectionDefaults{ChunkSize: 1024, ChunkOverlap: 128, TopK: 8},
		Quotes:  config.CollectionDefaults{ChunkSize: 512, ChunkOverlap: 64, TopK: 10},
		Profile: config.CollectionDefaults{ChunkSize: 2048, ChunkOverlap: 256, TopK: 5},
	}
}

func intPtr(v int) *int {
	return &v
}

func TestResolveDefaults(t *testing.T) {
	defaults := testDefaults()
	persona := &model.Persona{PersonaID: "eminescu"}

	tests := []struct {
		ctype model.CollectionType
		want  ChunkPolicy
	}{
		{model.CollectionWorks, ChunkPolicy{ChunkSize: 1024, ChunkOverlap: 128, TopK: 8}},
		{model.CollectionQuotes, ChunkPolicy{ChunkSize: 512, ChunkOverlap: 64, TopK: 10}},
		{model.CollectionProfile, ChunkPolicy{ChunkSize: 2048, ChunkOverlap: 256, TopK: 5}},
	}
	for _, tt := range tests {
		t.Run(string(tt.ctype), func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(persona, tt.ctype, defaults))
		})
	}
}

func TestResolveOverridesWinPerParameter(t *testing.T) {
	defaults := testDefaults()
	for _, ctype := range model.AllCollectionTypes() {
		t.Run(string(ctype)+"_chunk_size", func(t *testing.T) {
			persona := &model.Persona{
				PersonaID: "caragiale",
				Overrides: map[model.CollectionType]model.RetrievalOverride{
					ctype: {ChunkSize: intPtr(777)},
				},
			}
			got := Resolve(persona, ctype, defaults)
			assert.Equal(t, 777, got.ChunkSize)
			assert.Equal(t, defaults.For(ctype).ChunkOverlap, got.ChunkOverlap)
			assert.Equal(t, defaults.For(ctype).TopK, got.TopK)
		})
		t.Run(string(ctype)+"_chunk_overlap", func(t *testing.T) {
			persona := &model.Persona{
				PersonaID: "caragiale",
				Overrides: map[model.CollectionType]model.RetrievalOverride{
					ctype: {ChunkOverlap: intPtr(33)},
				},
			}
			got := Resolve(persona, ctype, defaults)
			assert.Equal(t, 33, got.ChunkOverlap)
			assert.Equal(t, defaults.For(ctype).ChunkSize, got.ChunkSize)
		})
		t.Run(string(ctype)+"_top_k", func(t *testing.T) {
			persona := &model.Persona{
				PersonaID: "caragiale",
				Overrides: map[model.CollectionType]model.RetrievalOverride{
					ctype: {TopK: intPtr(3)},
				},
			}
			got := Resolve(persona, ctype, defaults)
			assert.Equal(t, 3, got.TopK)
			assert.Equal(t, defaults.For(ctype).ChunkOverlap, got.ChunkOverlap)
		})
	}
}

func TestResolveOverrideForOtherTypeIgnored(t *testing.T) {
	defaults := testDefaults()
	persona := &model.Persona{
		PersonaID: "eliade",
		Overrides: map[model.CollectionType]model.RetrievalOverride{
			model.CollectionWorks: {TopK: intPtr(2), ChunkSize: intPtr(100)},
		},
	}
	got := Resolve(persona, model.CollectionQuotes, defaults)
	assert.Equal(t, ChunkPolicy{ChunkSize: 512, ChunkOverlap: 64, TopK: 10}, got)
}
