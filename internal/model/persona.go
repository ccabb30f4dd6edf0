package model

type PersonaStatus string

const (
	PersonaStatusDraft     PersonaStatus = "draft"
	PersonaStatusIngesting PersonaStatus = "ingesting"
	PersonaStatusActive    PersonaStatus = "active"
	PersonaStatusFailed    PersonaStatus = "failed"
)

// RetrievalOverride carries per-persona tuning for one collection type.
// Nil fields inherit the process-wide defaults.
type RetrievalOverride struct {
	TopK         *int `json:"top_k,omitempty"`
	ChunkSize    *int `json:"chunk_size,omitempty"`
	ChunkOverlap *int `json:"chunk_overlap,omitempty"`
}

type Persona struct {
	ID          string `json:"id"`
	PersonaID   string `json:"persona_id"`
	DisplayName string `json:"display_name"`
	BirthYear   int    `json:"birth_year"`
	DeathYear   *int   `json:"death_year,omitempty"`
	Description string `json:"description"`

	SpeakingStyle        string   `json:"speaking_style"`
	KeyThemes            string   `json:"key_themes"`
	VoicePrompt          string   `json:"voice_prompt"`
	RepresentativeQuotes []string `json:"representative_quotes"`
	Color                string   `json:"color"`

	Overrides map[CollectionType]RetrievalOverride `json:"overrides,omitempty"`

	Status PersonaStatus `json:"status"`
	Ctime  int64         `json:"ctime"`
	Mtime  int64         `json:"mtime"`
}

// Override returns the persona's tuning for one collection type; the zero
// value means "inherit everything".
func (p *Persona) Override(t CollectionType) RetrievalOverride {
	if p == nil || p.Overrides == nil {
		return RetrievalOverride{}
	}
	return p.Overrides[t]
}
