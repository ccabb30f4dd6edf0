package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/pkg/dbutil"
	appErr "github.com/dmoraru/personas/internal/pkg/errors"
)

type PersonaRepo struct {
	db *sql.DB
}

func NewPersonaRepo(db *sql.DB) *PersonaRepo {
	return &PersonaRepo{db: db}
}

func (r *PersonaRepo) Create(ctx context.Context, p *model.Persona) error {
	quotesJSON, err := json.Marshal(p.RepresentativeQuotes)
	if err != nil {
		return err
	}
	overridesJSON, err := json.Marshal(p.Overrides)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO personas (id, persona_id, display_name, birth_year, death_year, description,
			speaking_style, key_themes, voice_prompt, representative_quotes, color,
			overrides, status, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.PersonaID,
		p.DisplayName,
		p.BirthYear,
		p.DeathYear,
		p.Description,
		p.SpeakingStyle,
		p.KeyThemes,
		p.VoicePrompt,
		string(quotesJSON),
		p.Color,
		string(overridesJSON),
		p.Status,
		p.Ctime,
		p.Mtime,
	)
	if dbutil.IsUniqueViolation(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *PersonaRepo) Get(ctx context.Context, personaID string) (*model.Persona, error) {
	const query = `
		SELECT id, persona_id, display_name, birth_year, death_year, description,
			speaking_style, key_themes, voice_prompt, representative_quotes, color,
			overrides, status, ctime, mtime
		FROM personas
		WHERE persona_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, personaID)
	p, err := scanPersona(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return p, err
}

func (r *PersonaRepo) List(ctx context.Context, status string) ([]*model.Persona, error) {
	where := map[string]interface{}{
		"_orderby": "persona_id asc",
	}
	if status != "" {
		where["status"] = status
	}
	sqlStr, args, err := builder.BuildSelect("personas", where, personaFieldList())
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PersonaRepo) Update(ctx context.Context, p *model.Persona) error {
	quotesJSON, err := json.Marshal(p.RepresentativeQuotes)
	if err != nil {
		return err
	}
	overridesJSON, err := json.Marshal(p.Overrides)
	if err != nil {
		return err
	}
	const query = `
		UPDATE personas
		SET display_name = $1, birth_year = $2, death_year = $3, description = $4,
			speaking_style = $5, key_themes = $6, voice_prompt = $7,
			representative_quotes = $8, color = $9, overrides = $10, mtime = $11
		WHERE persona_id = $12
	`
	res, err := r.db.ExecContext(ctx, query,
		p.DisplayName,
		p.BirthYear,
		p.DeathYear,
		p.Description,
		p.SpeakingStyle,
		p.KeyThemes,
		p.VoicePrompt,
		string(quotesJSON),
		p.Color,
		string(overridesJSON),
		time.Now().UnixMilli(),
		p.PersonaID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PersonaRepo) UpdateStatus(ctx context.Context, personaID string, status model.PersonaStatus) error {
	const query = `UPDATE personas SET status = $1, mtime = $2 WHERE persona_id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UnixMilli(), personaID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PersonaRepo) Delete(ctx context.Context, personaID string) error {
	const query = `DELETE FROM personas WHERE persona_id = $1`
	res, err := r.db.ExecContext(ctx, query, personaID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PersonaRepo) ListIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT persona_id FROM personas ORDER BY persona_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPersona(row rowScanner) (*model.Persona, error) {
	var p model.Persona
	var quotesJSON, overridesJSON string
	if err := row.Scan(
		&p.ID,
		&p.PersonaID,
		&p.DisplayName,
		&p.BirthYear,
		&p.DeathYear,
		&p.Description,
		&p.SpeakingStyle,
		&p.KeyThemes,
		&p.VoicePrompt,
		&quotesJSON,
		&p.Color,
		&overridesJSON,
		&p.Status,
		&p.Ctime,
		&p.Mtime,
	); err != nil {
		return nil, err
	}
	if quotesJSON != "" {
		_ = json.Unmarshal([]byte(quotesJSON), &p.RepresentativeQuotes)
	}
	if overridesJSON != "" {
		_ = json.Unmarshal([]byte(overridesJSON), &p.Overrides)
	}
	return &p, nil
}

func personaFieldList() []string {
	return []string{
		"id", "persona_id", "display_name", "birth_year", "death_year", "description",
		"speaking_style", "key_themes", "voice_prompt", "representative_quotes", "color",
		"overrides", "status", "ctime", "mtime",
	}
}
