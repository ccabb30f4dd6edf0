package seed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dmoraru/personas/internal/model"
	appErr "github.com/dmoraru/personas/internal/pkg/errors"
	"github.com/dmoraru/personas/internal/quotes"
	"github.com/dmoraru/personas/internal/repo"
)

// Run installs every built-in persona that does not exist yet: the database
// row, the data directory tree, the built-in profile document and the
// merged quotes corpus. Existing personas are left untouched, so Run is
// safe to repeat on every deploy.
func Run(ctx context.Context, personas *repo.PersonaRepo, dataDir string) error {
	logger := logutil.GetLogger(ctx)
	for _, persona := range Builtin() {
		if _, err := personas.Get(ctx, persona.PersonaID); err == nil {
			logger.Info("persona already seeded", zap.String("persona", persona.PersonaID))
			continue
		} else if !appErr.IsNotFound(err) {
			return err
		}

		now := time.Now().UnixMilli()
		persona.ID = persona.PersonaID
		persona.Status = model.PersonaStatusDraft
		persona.Ctime = now
		persona.Mtime = now
		if err := personas.Create(ctx, persona); err != nil {
			return fmt.Errorf("seed persona %s: %w", persona.PersonaID, err)
		}
		if err := seedDataTree(dataDir, persona); err != nil {
			return fmt.Errorf("seed data tree for %s: %w", persona.PersonaID, err)
		}
		logger.Info("persona seeded", zap.String("persona", persona.PersonaID))
	}
	return nil
}

func seedDataTree(dataDir string, persona *model.Persona) error {
	base := filepath.Join(dataDir, persona.PersonaID)
	for _, sub := range []string{"works", "quotes", "profile"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
			return err
		}
	}
	profilePath := filepath.Join(base, "profile", "profile.md")
	if _, err := os.Stat(profilePath); os.IsNotExist(err) {
		if err := os.WriteFile(profilePath, []byte(profileDocument(persona)), 0o644); err != nil {
			return err
		}
	}
	if _, err := quotes.Build(filepath.Join(base, "quotes"), persona.RepresentativeQuotes, persona.PersonaID); err != nil {
		return err
	}
	return nil
}

// profileDocument renders the built-in biographical summary that anchors
// the profile collection before any uploads arrive.
func profileDocument(p *model.Persona) string {
	years := fmt.Sprintf("%d", p.BirthYear)
	if p.DeathYear != nil {
		years = fmt.Sprintf("%d-%d", p.BirthYear, *p.DeathYear)
	}
	return fmt.Sprintf(`# %s (%s)

%s

## Stilul de Comunicare

%s

## Teme Fundamentale

%s
`, p.DisplayName, years, p.Description, p.SpeakingStyle, p.KeyThemes)
}
