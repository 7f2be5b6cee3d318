package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

// JobDBStorage implements store.JobStore on the album_jobs table.
type JobDBStorage struct {
	conn pgxIConn
}

var _ store.JobStore = (*JobDBStorage)(nil)

func NewJobDBStorage(conn pgxIConn) *JobDBStorage {
	return &JobDBStorage{conn: conn}
}

func (s *JobDBStorage) CreateJob(ctx context.Context, job store.Job) error {
	if job.Status == "" {
		job.Status = store.JobQueued
	}
	_, err := s.conn.Exec(ctx, createJobSQL, job.CorrelationID, job.LibraryID, job.AlbumKey, string(job.Status))
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *JobDBStorage) UpdateJob(
	ctx context.Context,
	correlationID string,
	status store.JobStatus,
	albums int,
	errMsg string,
) error {
	tag, err := s.conn.Exec(ctx, updateJobSQL, correlationID, string(status), albums, errMsg)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrJobNotFound
	}
	return nil
}

func (s *JobDBStorage) GetJob(ctx context.Context, correlationID string) (store.Job, error) {
	var (
		job    store.Job
		status string
	)
	err := s.conn.QueryRow(ctx, getJobSQL, correlationID).Scan(
		&job.CorrelationID,
		&job.LibraryID,
		&job.AlbumKey,
		&status,
		&job.Albums,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return store.Job{}, store.ErrJobNotFound
	}
	if err != nil {
		return store.Job{}, fmt.Errorf("get job: %w", err)
	}
	job.Status = store.JobStatus(status)
	return job, nil
}

const createJobSQL = `
INSERT INTO album_jobs (correlation_id, library_id, album_key, status)
VALUES ($1, $2, $3, $4)
ON CONFLICT (correlation_id) DO NOTHING;
`

const updateJobSQL = `
UPDATE album_jobs
SET status = $2, albums = $3, error = $4, updated_at = now()
WHERE correlation_id = $1;
`

const getJobSQL = `
SELECT correlation_id, library_id, album_key, status, albums, error, created_at, updated_at
FROM album_jobs
WHERE correlation_id = $1;
`
