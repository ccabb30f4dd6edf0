package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/pkg/dbutil"
)

type DataSourceRepo struct {
	db *sql.DB
}

func NewDataSourceRepo(db *sql.DB) *DataSourceRepo {
	return &DataSourceRepo{db: db}
}

func (r *DataSourceRepo) Create(ctx context.Context, ds *model.DataSource) error {
	const query = `
		INSERT INTO data_sources (id, persona_id, collection_type, file_name, file_path, file_size_bytes, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		ds.ID,
		ds.PersonaID,
		ds.CollectionType,
		ds.FileName,
		ds.FilePath,
		ds.FileSizeBytes,
		ds.Ctime,
	)
	return err
}

func (r *DataSourceRepo) List(ctx context.Context, personaID string, collectionType string) ([]*model.DataSource, error) {
	where := map[string]interface{}{
		"persona_id": personaID,
		"_orderby":   "ctime desc",
	}
	if collectionType != "" {
		where["collection_type"] = collectionType
	}
	fields := []string{"id", "persona_id", "collection_type", "file_name", "file_path", "file_size_bytes", "ctime"}
	sqlStr, args, err := builder.BuildSelect("data_sources", where, fields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.DataSource
	for rows.Next() {
		var ds model.DataSource
		if err := rows.Scan(
			&ds.ID,
			&ds.PersonaID,
			&ds.CollectionType,
			&ds.FileName,
			&ds.FilePath,
			&ds.FileSizeBytes,
			&ds.Ctime,
		); err != nil {
			return nil, err
		}
		out = append(out, &ds)
	}
	return out, rows.Err()
}

func (r *DataSourceRepo) DeleteByPersona(ctx context.Context, personaID string) error {
	const query = `DELETE FROM data_sources WHERE persona_id = $1`
	_, err := r.db.ExecContext(ctx, query, personaID)
	return err
}
