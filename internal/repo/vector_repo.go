package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pgvector/pgvector-go"
)

// VectorChunk is one embedded document fragment inside a named collection.
type VectorChunk struct {
	ChunkID   string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// ScoredChunk is a search hit. Score is cosine similarity in [0, 1]-ish
// space (1 - cosine distance), higher is closer.
type ScoredChunk struct {
	Content  string
	Metadata map[string]string
	Score    float64
}

// VectorRepo stores all collections in a single pgvector table, namespaced
// by the collection column. Collections exist implicitly: they appear with
// their first upsert and vanish with DeleteCollection.
type VectorRepo struct {
	db *sql.DB
}

func NewVectorRepo(db *sql.DB) *VectorRepo {
	return &VectorRepo{db: db}
}

func (r *VectorRepo) Upsert(ctx context.Context, collection string, chunks []*VectorChunk) error {
	const query = `
		INSERT INTO vector_chunks (collection, chunk_id, content, metadata, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (collection, chunk_id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		metaJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, query,
			collection,
			chunk.ChunkID,
			chunk.Content,
			string(metaJSON),
			pgvector.NewVector(chunk.Embedding),
			nowMilli(),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Search returns the topK nearest chunks by cosine distance, best first.
func (r *VectorRepo) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*ScoredChunk, error) {
	const query = `
		SELECT content, metadata, 1 - (embedding <=> $1) AS score
		FROM vector_chunks
		WHERE collection = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), collection, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ScoredChunk
	for rows.Next() {
		var item ScoredChunk
		var metaJSON string
		if err := rows.Scan(&item.Content, &metaJSON, &item.Score); err != nil {
			return nil, err
		}
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &item.Metadata)
		}
		out = append(out, &item)
	}
	return out, rows.Err()
}

func (r *VectorRepo) Count(ctx context.Context, collection string) (int, error) {
	const query = `SELECT COUNT(*) FROM vector_chunks WHERE collection = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, collection).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteCollection drops every chunk of a collection. Deleting a collection
// that does not exist is a no-op.
func (r *VectorRepo) DeleteCollection(ctx context.Context, collection string) error {
	const query = `DELETE FROM vector_chunks WHERE collection = $1`
	_, err := r.db.ExecContext(ctx, query, collection)
	return err
}
