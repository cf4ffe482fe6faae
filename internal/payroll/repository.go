package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// Repository persists payroll periods. Status transitions are compare-and-swap
// operations: the expected states are part of the UPDATE predicate and a zero
// row count surfaces as a StateConflictError.
type Repository interface {
	Insert(ctx context.Context, tenantID int64, in CreatePeriodInput) (Period, error)
	List(ctx context.Context, tenantID int64, limit, offset int) ([]Period, error)
	Get(ctx context.Context, tenantID, id int64) (Period, error)
	RangeOverlaps(ctx context.Context, tenantID int64, start, end time.Time) (bool, error)
	LockedCovering(ctx context.Context, tenantID int64, date time.Time) (bool, error)
	Transition(ctx context.Context, tenantID, id int64, tr TransitionInput) (Period, error)
}

// TransitionInput describes a guarded status change.
type TransitionInput struct {
	Expected    []PeriodStatus
	Target      PeriodStatus
	ActorID     int64
	At          time.Time
	ExportError string
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, tenant_id, start_date, end_date, status, locked_at, locked_by,
exported_at, exported_by, COALESCE(last_export_error, ''), created_at, updated_at`

func (r *repository) Insert(ctx context.Context, tenantID int64, in CreatePeriodInput) (Period, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO payroll_periods (tenant_id, start_date, end_date, status)
VALUES ($1, $2, $3, 'open')
RETURNING `+periodColumns, tenantID, in.StartDate, in.EndDate)
	return scanPeriod(row)
}

func (r *repository) List(ctx context.Context, tenantID int64, limit, offset int) ([]Period, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM payroll_periods
WHERE tenant_id = $1 ORDER BY start_date DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Period, error) {
	row := r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM payroll_periods
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanPeriod(row)
}

func (r *repository) RangeOverlaps(ctx context.Context, tenantID int64, start, end time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM payroll_periods
WHERE tenant_id = $1 AND start_date <= $3 AND end_date >= $2)`, tenantID, start, end).Scan(&exists)
	return exists, err
}

// LockedCovering reports whether the date falls inside a locked or exported
// period. Time entries under such a period are immutable.
func (r *repository) LockedCovering(ctx context.Context, tenantID int64, date time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM payroll_periods
WHERE tenant_id = $1 AND status IN ('locked', 'exported')
AND $2 BETWEEN start_date AND end_date)`, tenantID, date).Scan(&exists)
	return exists, err
}

// Transition performs the status-guarded update. The WHERE clause carries the
// expected states so concurrent callers serialize on the row without explicit
// locking; losing callers get the period's actual state back in the error.
func (r *repository) Transition(ctx context.Context, tenantID, id int64, tr TransitionInput) (Period, error) {
	expected := make([]string, 0, len(tr.Expected))
	for _, s := range tr.Expected {
		expected = append(expected, string(s))
	}

	var (
		lockedAt, exportedAt     *time.Time
		lockedBy, exportedBy     *int64
		clearLock, clearExported bool
	)
	switch tr.Target {
	case StatusLocked:
		lockedAt, lockedBy = &tr.At, &tr.ActorID
	case StatusExported:
		exportedAt, exportedBy = &tr.At, &tr.ActorID
	case StatusOpen:
		clearLock, clearExported = true, true
	case StatusFailed:
		// keep lock audit fields, record the export error
	}

	row := r.db.QueryRow(ctx, `UPDATE payroll_periods SET
status = $3,
locked_at = CASE WHEN $4 THEN NULL ELSE COALESCE($5, locked_at) END,
locked_by = CASE WHEN $4 THEN NULL ELSE COALESCE($6, locked_by) END,
exported_at = CASE WHEN $7 THEN NULL ELSE COALESCE($8, exported_at) END,
exported_by = CASE WHEN $7 THEN NULL ELSE COALESCE($9, exported_by) END,
last_export_error = NULLIF($10, ''),
updated_at = NOW()
WHERE tenant_id = $1 AND id = $2 AND status = ANY($11)
RETURNING `+periodColumns,
		tenantID, id, string(tr.Target),
		clearLock, lockedAt, lockedBy,
		clearExported, exportedAt, exportedBy,
		tr.ExportError, expected)

	period, err := scanPeriod(row)
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, httpx.ErrNotFound) {
		return Period{}, err
	}

	// Zero rows: either a foreign/unknown period or a state conflict.
	current, getErr := r.Get(ctx, tenantID, id)
	if getErr != nil {
		return Period{}, getErr
	}
	return Period{}, &StateConflictError{PeriodID: id, Expected: tr.Expected, Actual: current.Status}
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.TenantID, &p.StartDate, &p.EndDate, &p.Status,
		&p.LockedAt, &p.LockedBy, &p.ExportedAt, &p.ExportedBy, &p.LastExportError,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, httpx.ErrNotFound
		}
		return Period{}, err
	}
	return p, nil
}
