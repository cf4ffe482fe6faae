package integration

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// Repository persists integrations and the sync job queue. Job claims are
// status-guarded updates so concurrent workers never process the same row.
type Repository interface {
	InsertIntegration(ctx context.Context, in Integration) (Integration, error)
	ListIntegrations(ctx context.Context, tenantID int64) ([]Integration, error)
	GetIntegration(ctx context.Context, tenantID, id int64) (Integration, error)

	InsertJob(ctx context.Context, job SyncJob) (SyncJob, error)
	ListJobs(ctx context.Context, tenantID int64, limit, offset int) ([]SyncJob, error)
	ClaimPendingJob(ctx context.Context, before time.Time) (SyncJob, error)
	MarkJobSuccess(ctx context.Context, id int64) error
	RequeueJob(ctx context.Context, id int64, lastError string) (SyncJob, error)
	ResetStuckJobs(ctx context.Context, stuckSince time.Time) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const integrationColumns = `id, tenant_id, provider, access_token, COALESCE(refresh_token, ''),
COALESCE(token_expires_at, 'epoch'::timestamptz), active, created_at, updated_at`

const jobColumns = `id, tenant_id, integration_id, kind, resource_id, status,
attempts, max_attempts, COALESCE(last_error, ''), created_at, updated_at`

func (r *repository) InsertIntegration(ctx context.Context, in Integration) (Integration, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO integrations
(tenant_id, provider, access_token, refresh_token, token_expires_at, active)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, 'epoch'::timestamptz), TRUE)
RETURNING `+integrationColumns,
		in.TenantID, string(in.Provider), in.AccessToken, in.RefreshToken, in.TokenExpiresAt)
	return scanIntegration(row)
}

func (r *repository) ListIntegrations(ctx context.Context, tenantID int64) ([]Integration, error) {
	rows, err := r.db.Query(ctx, `SELECT `+integrationColumns+` FROM integrations
WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var integrations []Integration
	for rows.Next() {
		in, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		integrations = append(integrations, in)
	}
	return integrations, rows.Err()
}

func (r *repository) GetIntegration(ctx context.Context, tenantID, id int64) (Integration, error) {
	row := r.db.QueryRow(ctx, `SELECT `+integrationColumns+` FROM integrations
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanIntegration(row)
}

func (r *repository) InsertJob(ctx context.Context, job SyncJob) (SyncJob, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO sync_jobs
(tenant_id, integration_id, kind, resource_id, status, attempts, max_attempts)
VALUES ($1, $2, $3, $4, 'pending', 0, $5)
RETURNING `+jobColumns,
		job.TenantID, job.IntegrationID, string(job.Kind), job.ResourceID, job.MaxAttempts)
	return scanJob(row)
}

func (r *repository) ListJobs(ctx context.Context, tenantID int64, limit, offset int) ([]SyncJob, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT `+jobColumns+` FROM sync_jobs
WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []SyncJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ClaimPendingJob moves the oldest pending job to processing and returns it.
// SKIP LOCKED keeps concurrent workers off the same row. Only jobs last
// touched before the cutoff are eligible, so a job requeued during a sweep
// waits for the next one instead of being retried in a tight loop.
func (r *repository) ClaimPendingJob(ctx context.Context, before time.Time) (SyncJob, error) {
	row := r.db.QueryRow(ctx, `UPDATE sync_jobs SET status = 'processing', updated_at = NOW()
WHERE id = (
	SELECT id FROM sync_jobs WHERE status = 'pending' AND updated_at < $1
	ORDER BY created_at LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING `+jobColumns, before)
	job, err := scanJob(row)
	if errors.Is(err, httpx.ErrNotFound) {
		return SyncJob{}, ErrNoPendingJobs
	}
	return job, err
}

func (r *repository) MarkJobSuccess(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE sync_jobs SET status = 'success', last_error = NULL, updated_at = NOW()
WHERE id = $1`, id)
	return err
}

// RequeueJob increments attempts and puts the job back in pending, or parks
// it in dead once attempts reach max_attempts.
func (r *repository) RequeueJob(ctx context.Context, id int64, lastError string) (SyncJob, error) {
	row := r.db.QueryRow(ctx, `UPDATE sync_jobs SET
attempts = attempts + 1,
status = CASE WHEN attempts + 1 >= max_attempts THEN 'dead' ELSE 'pending' END,
last_error = $2,
updated_at = NOW()
WHERE id = $1
RETURNING `+jobColumns, id, lastError)
	return scanJob(row)
}

// ResetStuckJobs returns jobs stuck in processing since before stuckSince to
// pending and reports how many rows were touched.
func (r *repository) ResetStuckJobs(ctx context.Context, stuckSince time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE sync_jobs SET status = 'pending', updated_at = NOW()
WHERE status = 'processing' AND updated_at < $1`, stuckSince)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanIntegration(row pgx.Row) (Integration, error) {
	var in Integration
	err := row.Scan(&in.ID, &in.TenantID, &in.Provider, &in.AccessToken, &in.RefreshToken,
		&in.TokenExpiresAt, &in.Active, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Integration{}, httpx.ErrNotFound
		}
		return Integration{}, err
	}
	return in, nil
}

func scanJob(row pgx.Row) (SyncJob, error) {
	var j SyncJob
	err := row.Scan(&j.ID, &j.TenantID, &j.IntegrationID, &j.Kind, &j.ResourceID, &j.Status,
		&j.Attempts, &j.MaxAttempts, &j.LastError, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SyncJob{}, httpx.ErrNotFound
		}
		return SyncJob{}, err
	}
	return j, nil
}
