package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// Repository persists schedule slots.
type Repository interface {
	Insert(ctx context.Context, tenantID int64, in WriteInput) (Slot, error)
	Update(ctx context.Context, tenantID, id int64, in WriteInput) (Slot, error)
	Get(ctx context.Context, tenantID, id int64) (Slot, error)
	ListRange(ctx context.Context, tenantID int64, from, to time.Time) ([]Slot, error)
	Overlapping(ctx context.Context, tenantID, employeeID int64, start, end time.Time, excludeID int64) ([]Slot, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const slotColumns = `id, tenant_id, employee_id, COALESCE(project_id, 0), starts_at, ends_at,
kind, COALESCE(note, ''), created_at, updated_at`

func (r *repository) Insert(ctx context.Context, tenantID int64, in WriteInput) (Slot, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO schedule_slots
(tenant_id, employee_id, project_id, starts_at, ends_at, kind, note)
VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6, NULLIF($7, ''))
RETURNING `+slotColumns,
		tenantID, in.EmployeeID, in.ProjectID, in.StartsAt, in.EndsAt, string(in.Kind), in.Note)
	return scanSlot(row)
}

func (r *repository) Update(ctx context.Context, tenantID, id int64, in WriteInput) (Slot, error) {
	row := r.db.QueryRow(ctx, `UPDATE schedule_slots SET
employee_id = $3, project_id = NULLIF($4, 0), starts_at = $5, ends_at = $6,
kind = $7, note = NULLIF($8, ''), updated_at = NOW()
WHERE tenant_id = $1 AND id = $2
RETURNING `+slotColumns,
		tenantID, id, in.EmployeeID, in.ProjectID, in.StartsAt, in.EndsAt, string(in.Kind), in.Note)
	return scanSlot(row)
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Slot, error) {
	row := r.db.QueryRow(ctx, `SELECT `+slotColumns+` FROM schedule_slots
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanSlot(row)
}

func (r *repository) ListRange(ctx context.Context, tenantID int64, from, to time.Time) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `SELECT `+slotColumns+` FROM schedule_slots
WHERE tenant_id = $1 AND starts_at < $3 AND ends_at > $2
ORDER BY starts_at`, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

// Overlapping returns the employee's slots intersecting the half-open range
// [start, end). Back-to-back slots sharing a boundary instant do not overlap.
func (r *repository) Overlapping(ctx context.Context, tenantID, employeeID int64, start, end time.Time, excludeID int64) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `SELECT `+slotColumns+` FROM schedule_slots
WHERE tenant_id = $1 AND employee_id = $2
AND starts_at < $4 AND ends_at > $3
AND id <> $5
ORDER BY starts_at`, tenantID, employeeID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]Slot, error) {
	var slots []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func scanSlot(row pgx.Row) (Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.TenantID, &s.EmployeeID, &s.ProjectID,
		&s.StartsAt, &s.EndsAt, &s.Kind, &s.Note, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Slot{}, httpx.ErrNotFound
		}
		return Slot{}, err
	}
	return s, nil
}
