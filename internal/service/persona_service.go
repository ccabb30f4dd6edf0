package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dmoraru/personas/internal/model"
	appErr "github.com/dmoraru/personas/internal/pkg/errors"
	"github.com/dmoraru/personas/internal/repo"
	"github.com/dmoraru/personas/internal/retrieval"
)

var slugPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

type CreatePersonaRequest struct {
	PersonaID            string                                           `json:"persona_id"`
	DisplayName          string                                           `json:"display_name"`
	BirthYear            int                                              `json:"birth_year"`
	DeathYear            *int                                             `json:"death_year"`
	Description          string                                           `json:"description"`
	SpeakingStyle        string                                           `json:"speaking_style"`
	KeyThemes            string                                           `json:"key_themes"`
	VoicePrompt          string                                           `json:"voice_prompt"`
	RepresentativeQuotes []string                                         `json:"representative_quotes"`
	Color                string                                           `json:"color"`
	Overrides            map[model.CollectionType]model.RetrievalOverride `json:"overrides"`
}

type PersonaService struct {
	personas *repo.PersonaRepo
	sources  *repo.DataSourceRepo
	vectors  *repo.VectorRepo
	cache    *retrieval.Cache
	dataDir  string
}

func NewPersonaService(personas *repo.PersonaRepo, sources *repo.DataSourceRepo, vectors *repo.VectorRepo, cache *retrieval.Cache, dataDir string) *PersonaService {
	return &PersonaService{
		personas: personas,
		sources:  sources,
		vectors:  vectors,
		cache:    cache,
		dataDir:  dataDir,
	}
}

func (s *PersonaService) Create(ctx context.Context, req *CreatePersonaRequest) (*model.Persona, error) {
	if !slugPattern.MatchString(req.PersonaID) {
		return nil, fmt.Errorf("%w: persona_id must match %s", appErr.ErrInvalid, slugPattern.String())
	}
	if req.DisplayName == "" {
		return nil, fmt.Errorf("%w: display_name is required", appErr.ErrInvalid)
	}
	color := req.Color
	if color == "" {
		color = "#666666"
	}
	now := time.Now().UnixMilli()
	persona := &model.Persona{
		ID:                   newID(),
		PersonaID:            req.PersonaID,
		DisplayName:          req.DisplayName,
		BirthYear:            req.BirthYear,
		DeathYear:            req.DeathYear,
		Description:          req.Description,
		SpeakingStyle:        req.SpeakingStyle,
		KeyThemes:            req.KeyThemes,
		VoicePrompt:          req.VoicePrompt,
		RepresentativeQuotes: req.RepresentativeQuotes,
		Color:                color,
		Overrides:            req.Overrides,
		Status:               model.PersonaStatusDraft,
		Ctime:                now,
		Mtime:                now,
	}
	if err := s.personas.Create(ctx, persona); err != nil {
		return nil, err
	}
	if err := s.ensureDataDirs(persona.PersonaID); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("persona created", zap.String("persona", persona.PersonaID))
	return persona, nil
}

func (s *PersonaService) Get(ctx context.Context, personaID string) (*model.Persona, error) {
	return s.personas.Get(ctx, personaID)
}

func (s *PersonaService) List(ctx context.Context, status string) ([]*model.Persona, error) {
	return s.personas.List(ctx, status)
}

// Update edits persona fields including overrides, then drops the cached
// retrievers so the new policy takes effect on the next query.
func (s *PersonaService) Update(ctx context.Context, persona *model.Persona) error {
	if err := s.personas.Update(ctx, persona); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Reload(persona.PersonaID)
	}
	return nil
}

// Delete removes the persona row (jobs and sources cascade), its three
// vector collections and its cached retrievers. Collection deletes are
// idempotent, so partial earlier deletes do not block a retry.
func (s *PersonaService) Delete(ctx context.Context, personaID string) error {
	if _, err := s.personas.Get(ctx, personaID); err != nil {
		return err
	}
	for _, ctype := range model.AllCollectionTypes() {
		if err := s.vectors.DeleteCollection(ctx, model.CollectionName(personaID, ctype)); err != nil {
			return err
		}
	}
	if err := s.personas.Delete(ctx, personaID); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Reload(personaID)
	}
	if err := os.RemoveAll(filepath.Join(s.dataDir, personaID)); err != nil {
		logutil.GetLogger(ctx).Warn("remove persona data dir failed", zap.String("persona", personaID), zap.Error(err))
	}
	logutil.GetLogger(ctx).Info("persona deleted", zap.String("persona", personaID))
	return nil
}

func (s *PersonaService) ListSlugs(ctx context.Context) ([]string, error) {
	return s.personas.ListIDs(ctx)
}

func (s *PersonaService) ensureDataDirs(personaID string) error {
	for _, sub := range []string{"works", "quotes", "profile"} {
		if err := os.MkdirAll(filepath.Join(s.dataDir, personaID, sub), 0o755); err != nil {
			return err
		}
	}
	return nil
}
