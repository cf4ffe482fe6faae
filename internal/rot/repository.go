package rot

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// Repository persists deductions. Status moves are compare-and-swap updates
// with the expected states in the WHERE clause.
type Repository interface {
	Insert(ctx context.Context, tenantID int64, d Deduction) (Deduction, error)
	List(ctx context.Context, tenantID int64, limit, offset int) ([]Deduction, error)
	Get(ctx context.Context, tenantID, id int64) (Deduction, error)
	SumForBuyerYear(ctx context.Context, tenantID int64, buyer string, kind Kind, year int) (decimal.Decimal, error)
	Transition(ctx context.Context, tenantID, id int64, expected []DeductionStatus, target DeductionStatus) (Deduction, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const deductionColumns = `id, tenant_id, invoice_id, invoice_date, kind, percent, labor_amount, material_amount,
deduction_amount, status, buyer_personal_number, COALESCE(property_designation, ''),
xml_payload, created_at, updated_at`

func (r *repository) Insert(ctx context.Context, tenantID int64, d Deduction) (Deduction, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO rot_deductions
(tenant_id, invoice_id, invoice_date, kind, percent, labor_amount, material_amount, deduction_amount,
status, buyer_personal_number, property_designation, xml_payload)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'draft', $9, NULLIF($10, ''), $11)
RETURNING `+deductionColumns,
		tenantID, d.InvoiceID, d.InvoiceDate, string(d.Kind), d.Percent,
		d.LaborAmount, d.MaterialAmount, d.DeductionAmount,
		d.BuyerPersonalNumber, d.PropertyDesignation, d.XMLPayload)
	return scanDeduction(row)
}

func (r *repository) List(ctx context.Context, tenantID int64, limit, offset int) ([]Deduction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT `+deductionColumns+` FROM rot_deductions
WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deductions []Deduction
	for rows.Next() {
		d, err := scanDeduction(rows)
		if err != nil {
			return nil, err
		}
		deductions = append(deductions, d)
	}
	return deductions, rows.Err()
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Deduction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+deductionColumns+` FROM rot_deductions
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanDeduction(row)
}

// SumForBuyerYear totals the buyer's deductions for the scheme in a calendar
// year, excluding rejected requests. The year is the invoice's, not the
// registration date's, so late-registered December invoices count against the
// cap of the year the work was billed in.
func (r *repository) SumForBuyerYear(ctx context.Context, tenantID int64, buyer string, kind Kind, year int) (decimal.Decimal, error) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(deduction_amount), 0) FROM rot_deductions
WHERE tenant_id = $1 AND buyer_personal_number = $2 AND kind = $3
AND status <> 'rejected' AND invoice_date >= $4 AND invoice_date < $5`,
		tenantID, buyer, string(kind), from, to).Scan(&total)
	return total, err
}

func (r *repository) Transition(ctx context.Context, tenantID, id int64, expected []DeductionStatus, target DeductionStatus) (Deduction, error) {
	states := make([]string, 0, len(expected))
	for _, s := range expected {
		states = append(states, string(s))
	}

	row := r.db.QueryRow(ctx, `UPDATE rot_deductions SET status = $3, updated_at = NOW()
WHERE tenant_id = $1 AND id = $2 AND status = ANY($4)
RETURNING `+deductionColumns, tenantID, id, string(target), states)

	d, err := scanDeduction(row)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, httpx.ErrNotFound) {
		return Deduction{}, err
	}

	current, getErr := r.Get(ctx, tenantID, id)
	if getErr != nil {
		return Deduction{}, getErr
	}
	return Deduction{}, &StateConflictError{DeductionID: id, Expected: expected, Actual: current.Status}
}

func scanDeduction(row pgx.Row) (Deduction, error) {
	var d Deduction
	err := row.Scan(&d.ID, &d.TenantID, &d.InvoiceID, &d.InvoiceDate, &d.Kind, &d.Percent,
		&d.LaborAmount, &d.MaterialAmount, &d.DeductionAmount, &d.Status,
		&d.BuyerPersonalNumber, &d.PropertyDesignation, &d.XMLPayload,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Deduction{}, httpx.ErrNotFound
		}
		return Deduction{}, err
	}
	return d, nil
}
