package timeentry

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// EntryWithEmployee joins the employee display name in for payroll export.
type EntryWithEmployee struct {
	Entry
	EmployeeName string
}

// Repository persists time entries.
type Repository interface {
	Insert(ctx context.Context, tenantID int64, in WriteInput) (Entry, error)
	Update(ctx context.Context, tenantID, id int64, in WriteInput) (Entry, error)
	Get(ctx context.Context, tenantID, id int64) (Entry, error)
	ListRange(ctx context.Context, tenantID int64, start, end time.Time) ([]Entry, error)
	ListRangeWithEmployees(ctx context.Context, tenantID int64, start, end time.Time) ([]EntryWithEmployee, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, tenant_id, employee_id, project_id, entry_date, hours, COALESCE(note, ''), created_at, updated_at`

func (r *repository) Insert(ctx context.Context, tenantID int64, in WriteInput) (Entry, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO time_entries (tenant_id, employee_id, project_id, entry_date, hours, note)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
RETURNING `+entryColumns,
		tenantID, in.EmployeeID, in.ProjectID, in.EntryDate, in.Hours, in.Note)
	return scanEntry(row)
}

// Update replaces the whole record, matching the LWW whole-record semantics.
func (r *repository) Update(ctx context.Context, tenantID, id int64, in WriteInput) (Entry, error) {
	row := r.db.QueryRow(ctx, `UPDATE time_entries SET
employee_id = $3, project_id = $4, entry_date = $5, hours = $6, note = NULLIF($7, ''), updated_at = NOW()
WHERE tenant_id = $1 AND id = $2
RETURNING `+entryColumns,
		tenantID, id, in.EmployeeID, in.ProjectID, in.EntryDate, in.Hours, in.Note)
	return scanEntry(row)
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Entry, error) {
	row := r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM time_entries
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanEntry(row)
}

func (r *repository) ListRange(ctx context.Context, tenantID int64, start, end time.Time) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM time_entries
WHERE tenant_id = $1 AND entry_date BETWEEN $2 AND $3
ORDER BY entry_date, employee_id`, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) ListRangeWithEmployees(ctx context.Context, tenantID int64, start, end time.Time) ([]EntryWithEmployee, error) {
	rows, err := r.db.Query(ctx, `SELECT t.id, t.tenant_id, t.employee_id, t.project_id, t.entry_date, t.hours,
COALESCE(t.note, ''), t.created_at, t.updated_at, COALESCE(e.name, '')
FROM time_entries t
LEFT JOIN employees e ON e.id = t.employee_id AND e.tenant_id = t.tenant_id
WHERE t.tenant_id = $1 AND t.entry_date BETWEEN $2 AND $3
ORDER BY t.employee_id, t.entry_date`, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []EntryWithEmployee
	for rows.Next() {
		var e EntryWithEmployee
		if err := rows.Scan(&e.ID, &e.TenantID, &e.EmployeeID, &e.ProjectID, &e.EntryDate, &e.Hours,
			&e.Note, &e.CreatedAt, &e.UpdatedAt, &e.EmployeeName); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.TenantID, &e.EmployeeID, &e.ProjectID, &e.EntryDate, &e.Hours,
		&e.Note, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, httpx.ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}
