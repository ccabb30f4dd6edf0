package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dmoraru/personas/internal/ai"
	"github.com/dmoraru/personas/internal/composer"
	appErr "github.com/dmoraru/personas/internal/pkg/errors"
	"github.com/dmoraru/personas/internal/repo"
	"github.com/dmoraru/personas/internal/retrieval"
)

const answerCacheSize = 10000

type QueryAnswer struct {
	Persona string   `json:"persona"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
	Found   bool     `json:"found"`
}

type QueryService struct {
	personas    *repo.PersonaRepo
	searcher    *retrieval.Searcher
	synthesizer *ai.Synthesizer
	answers     *expirable.LRU[string, *QueryAnswer]
}

func NewQueryService(personas *repo.PersonaRepo, searcher *retrieval.Searcher, synthesizer *ai.Synthesizer, answerTTL time.Duration) *QueryService {
	return &QueryService{
		personas:    personas,
		searcher:    searcher,
		synthesizer: synthesizer,
		answers:     expirable.NewLRU[string, *QueryAnswer](answerCacheSize, nil, answerTTL),
	}
}

// Ask answers one question in the persona's voice. An unknown slug is
// reported together with the valid ones, mirroring what a caller typing a
// slug by hand needs to see.
func (s *QueryService) Ask(ctx context.Context, personaSlug string, query string) (*QueryAnswer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", appErr.ErrInvalid)
	}
	persona, err := s.personas.Get(ctx, personaSlug)
	if appErr.IsNotFound(err) {
		slugs, listErr := s.personas.ListIDs(ctx)
		if listErr != nil {
			return nil, listErr
		}
		return nil, fmt.Errorf("%w: unknown persona %q, valid personas: %s",
			appErr.ErrNotFound, personaSlug, strings.Join(slugs, ", "))
	}
	if err != nil {
		return nil, err
	}

	key := answerKey(personaSlug, query)
	if cached, ok := s.answers.Get(key); ok {
		return cached, nil
	}

	results := s.searcher.Search(ctx, persona.PersonaID, query)
	assembled := composer.Assemble(persona.DisplayName, results)
	if !assembled.Found {
		logutil.GetLogger(ctx).Info("no relevant context found",
			zap.String("persona", personaSlug), zap.String("query", query))
		return &QueryAnswer{
			Persona: personaSlug,
			Answer:  composer.Sentinel(persona.DisplayName),
			Found:   false,
		}, nil
	}

	answerText := s.synthesizer.Synthesize(ctx, query, assembled.Context,
		composer.SourceList(assembled.Sources), persona.VoicePrompt, persona.DisplayName)
	answer := &QueryAnswer{
		Persona: personaSlug,
		Answer:  answerText,
		Sources: assembled.Sources,
		Found:   true,
	}
	s.answers.Add(key, answer)
	return answer, nil
}

// InvalidateAnswers drops every cached answer. Called on re-ingestion;
// entries are not per-persona keyed for lookup, a full purge is simpler
// and rare.
func (s *QueryService) InvalidateAnswers() {
	s.answers.Purge()
}

func answerKey(personaSlug string, query string) string {
	sum := sha256.Sum256([]byte(personaSlug + "\x00" + query))
	return hex.EncodeToString(sum[:])
}
