package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/dmoraru/personas/internal/model"
	"github.com/dmoraru/personas/internal/pkg/dbutil"
	appErr "github.com/dmoraru/personas/internal/pkg/errors"
)

type IngestionJobRepo struct {
	db *sql.DB
}

func NewIngestionJobRepo(db *sql.DB) *IngestionJobRepo {
	return &IngestionJobRepo{db: db}
}

// CountActive returns the number of pending or processing jobs a persona
// holds. Anything above zero blocks a new batch.
func (r *IngestionJobRepo) CountActive(ctx context.Context, personaID string) (int, error) {
	const query = `
		SELECT COUNT(*) FROM ingestion_jobs
		WHERE persona_id = $1 AND status IN ('pending', 'processing')
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, personaID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CreateBatch inserts all jobs of one trigger in a single transaction, so a
// batch is either fully visible in the ledger or not at all. The partial
// unique index on active (persona, collection type) pairs turns a lost
// trigger race into ErrConflict here.
func (r *IngestionJobRepo) CreateBatch(ctx context.Context, jobs []*model.IngestionJob) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO ingestion_jobs (id, persona_id, batch_id, collection_type, status, progress, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, job := range jobs {
		if _, err := tx.ExecContext(ctx, query,
			job.ID,
			job.PersonaID,
			job.BatchID,
			job.CollectionType,
			job.Status,
			job.Progress,
			job.Ctime,
		); err != nil {
			_ = tx.Rollback()
			if dbutil.IsUniqueViolation(err) {
				return appErr.ErrConflict
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		if dbutil.IsUniqueViolation(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *IngestionJobRepo) Get(ctx context.Context, jobID string) (*model.IngestionJob, error) {
	const query = `
		SELECT id, persona_id, batch_id, collection_type, status, progress,
			total_vectors, error_message, started_at, completed_at, ctime
		FROM ingestion_jobs
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, jobID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return job, err
}

// MarkProcessing claims a pending job. The status guard makes the claim
// exclusive: a second claimer sees zero rows affected.
func (r *IngestionJobRepo) MarkProcessing(ctx context.Context, jobID string, startedAt int64) (bool, error) {
	const query = `
		UPDATE ingestion_jobs
		SET status = 'processing', started_at = $1
		WHERE id = $2 AND status = 'pending'
	`
	res, err := r.db.ExecContext(ctx, query, startedAt, jobID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkCompleted finalizes a processing job. The status guard enforces
// exactly-once completion against the sweeper racing a slow worker.
func (r *IngestionJobRepo) MarkCompleted(ctx context.Context, jobID string, totalVectors int, completedAt int64) (bool, error) {
	const query = `
		UPDATE ingestion_jobs
		SET status = 'completed', progress = 100, total_vectors = $1, completed_at = $2
		WHERE id = $3 AND status = 'processing'
	`
	res, err := r.db.ExecContext(ctx, query, totalVectors, completedAt, jobID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *IngestionJobRepo) MarkFailed(ctx context.Context, jobID string, errMessage string, completedAt int64) (bool, error) {
	const query = `
		UPDATE ingestion_jobs
		SET status = 'failed', error_message = $1, completed_at = $2
		WHERE id = $3 AND status IN ('pending', 'processing')
	`
	res, err := r.db.ExecContext(ctx, query, errMessage, completedAt, jobID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *IngestionJobRepo) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	const query = `UPDATE ingestion_jobs SET progress = $1 WHERE id = $2 AND status = 'processing'`
	_, err := r.db.ExecContext(ctx, query, progress, jobID)
	return err
}

// LatestBatch returns the jobs of the persona's most recent batch, ordered
// by collection type for stable output.
func (r *IngestionJobRepo) LatestBatch(ctx context.Context, personaID string) ([]*model.IngestionJob, error) {
	const query = `
		SELECT id, persona_id, batch_id, collection_type, status, progress,
			total_vectors, error_message, started_at, completed_at, ctime
		FROM ingestion_jobs
		WHERE persona_id = $1 AND batch_id = (
			SELECT batch_id FROM ingestion_jobs
			WHERE persona_id = $1
			ORDER BY ctime DESC LIMIT 1
		)
		ORDER BY collection_type
	`
	rows, err := r.db.QueryContext(ctx, query, personaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []*model.IngestionJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ResetFailed flips the given failed jobs back to pending for re-dispatch.
// Only failed rows move; completed siblings keep their results.
func (r *IngestionJobRepo) ResetFailed(ctx context.Context, jobIDs []string) (int64, error) {
	const query = `
		UPDATE ingestion_jobs
		SET status = 'pending', progress = 0, error_message = NULL,
			started_at = NULL, completed_at = NULL, total_vectors = NULL
		WHERE id = ANY($1) AND status = 'failed'
	`
	res, err := r.db.ExecContext(ctx, query, pq.Array(jobIDs))
	if err != nil {
		if dbutil.IsUniqueViolation(err) {
			return 0, appErr.ErrConflict
		}
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTerminal clears a persona's job history. Active jobs are never
// touched, the ledger keeps its exclusivity guarantee.
func (r *IngestionJobRepo) DeleteTerminal(ctx context.Context, personaID string) (int64, error) {
	const query = `
		DELETE FROM ingestion_jobs
		WHERE persona_id = $1 AND status IN ('completed', 'failed')
	`
	res, err := r.db.ExecContext(ctx, query, personaID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SweepStale fails jobs stuck in processing past the hard time limit and
// returns the distinct personas that lost a job, so the caller can settle
// their status.
func (r *IngestionJobRepo) SweepStale(ctx context.Context, startedBefore int64, completedAt int64) ([]string, error) {
	const query = `
		UPDATE ingestion_jobs
		SET status = 'failed', error_message = 'ingestion exceeded hard time limit', completed_at = $1
		WHERE status = 'processing' AND started_at < $2
		RETURNING persona_id
	`
	rows, err := r.db.QueryContext(ctx, query, completedAt, startedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seen := make(map[string]bool)
	var personaIDs []string
	for rows.Next() {
		var personaID string
		if err := rows.Scan(&personaID); err != nil {
			return nil, err
		}
		if !seen[personaID] {
			seen[personaID] = true
			personaIDs = append(personaIDs, personaID)
		}
	}
	return personaIDs, rows.Err()
}

func scanJob(row rowScanner) (*model.IngestionJob, error) {
	var job model.IngestionJob
	if err := row.Scan(
		&job.ID,
		&job.PersonaID,
		&job.BatchID,
		&job.CollectionType,
		&job.Status,
		&job.Progress,
		&job.TotalVectors,
		&job.ErrorMessage,
		&job.StartedAt,
		&job.CompletedAt,
		&job.Ctime,
	); err != nil {
		return nil, err
	}
	return &job, nil
}
