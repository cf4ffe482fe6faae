package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/byggbas/byggbas/internal/platform/db"
	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// Repository persists invoices, quotes and customers. Quote status moves are
// compare-and-swap updates; conversion runs in a transaction so the invoice
// insert and the status flip commit together.
type Repository interface {
	ListInvoices(ctx context.Context, tenantID int64, limit, offset int) ([]Invoice, error)
	GetInvoice(ctx context.Context, tenantID, id int64) (Invoice, error)

	InsertQuote(ctx context.Context, tenantID int64, q Quote) (Quote, error)
	ListQuotes(ctx context.Context, tenantID int64, limit, offset int) ([]Quote, error)
	GetQuote(ctx context.Context, tenantID, id int64) (Quote, error)
	TransitionQuote(ctx context.Context, tenantID, id int64, expected []QuoteStatus, target QuoteStatus) (Quote, error)
	ConvertQuote(ctx context.Context, tenantID, id int64, issueDate, dueDate time.Time) (Quote, Invoice, error)
	RevokeQuoteLink(ctx context.Context, tenantID, id int64) (Quote, error)

	GetCustomer(ctx context.Context, tenantID, id int64) (Customer, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const invoiceColumns = `id, tenant_id, customer_id, number, issue_date, due_date, currency,
subtotal, vat_amount, total, labor_amount, material_amount, status, created_at, updated_at`

const quoteColumns = `id, tenant_id, customer_id, number, status, valid_until,
subtotal, vat_amount, total, COALESCE(public_token, ''), COALESCE(invoice_id, 0),
created_at, updated_at`

func (r *repository) ListInvoices(ctx context.Context, tenantID int64, limit, offset int) ([]Invoice, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices
WHERE tenant_id = $1 ORDER BY issue_date DESC, id DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *repository) GetInvoice(ctx context.Context, tenantID, id int64) (Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanInvoice(row)
}

func (r *repository) InsertQuote(ctx context.Context, tenantID int64, q Quote) (Quote, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO quotes
(tenant_id, customer_id, number, status, valid_until, subtotal, vat_amount, total, public_token)
VALUES ($1, $2, 'OFF-' || LPAD(nextval('quote_numbers')::text, 5, '0'), $3, $4, $5, $6, $7, $8)
RETURNING `+quoteColumns,
		tenantID, q.CustomerID, string(q.Status), q.ValidUntil,
		q.Subtotal, q.VATAmount, q.Total, q.PublicToken)
	return scanQuote(row)
}

func (r *repository) ListQuotes(ctx context.Context, tenantID int64, limit, offset int) ([]Quote, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT `+quoteColumns+` FROM quotes
WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func (r *repository) GetQuote(ctx context.Context, tenantID, id int64) (Quote, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes
WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanQuote(row)
}

func (r *repository) TransitionQuote(ctx context.Context, tenantID, id int64, expected []QuoteStatus, target QuoteStatus) (Quote, error) {
	states := make([]string, 0, len(expected))
	for _, s := range expected {
		states = append(states, string(s))
	}

	row := r.db.QueryRow(ctx, `UPDATE quotes SET status = $3, updated_at = NOW()
WHERE tenant_id = $1 AND id = $2 AND status = ANY($4)
RETURNING `+quoteColumns, tenantID, id, string(target), states)

	q, err := scanQuote(row)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, httpx.ErrNotFound) {
		return Quote{}, err
	}

	current, getErr := r.GetQuote(ctx, tenantID, id)
	if getErr != nil {
		return Quote{}, getErr
	}
	return Quote{}, &StateConflictError{QuoteID: id, Expected: expected, Actual: current.Status}
}

// ConvertQuote flips an approved quote to converted and creates the invoice in
// the same transaction, copying the quote's totals. A second conversion
// attempt loses the CAS and gets a conflict.
func (r *repository) ConvertQuote(ctx context.Context, tenantID, id int64, issueDate, dueDate time.Time) (Quote, Invoice, error) {
	var (
		quote Quote
		inv   Invoice
	)
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `UPDATE quotes SET status = 'converted', updated_at = NOW()
WHERE tenant_id = $1 AND id = $2 AND status = 'approved'
RETURNING `+quoteColumns, tenantID, id)
		q, err := scanQuote(row)
		if err != nil {
			return err
		}

		row = tx.QueryRow(ctx, `INSERT INTO invoices
(tenant_id, customer_id, number, issue_date, due_date, currency, subtotal, vat_amount, total,
labor_amount, material_amount, status)
VALUES ($1, $2, 'INV-' || LPAD(nextval('invoice_numbers')::text, 5, '0'), $3, $4, 'SEK',
$5, $6, $7, $5, 0, 'draft')
RETURNING `+invoiceColumns,
			tenantID, q.CustomerID, issueDate, dueDate, q.Subtotal, q.VATAmount, q.Total)
		created, err := scanInvoice(row)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE quotes SET invoice_id = $3 WHERE tenant_id = $1 AND id = $2`,
			tenantID, id, created.ID)
		if err != nil {
			return err
		}
		q.InvoiceID = created.ID
		quote, inv = q, created
		return nil
	})
	if err == nil {
		return quote, inv, nil
	}
	if !errors.Is(err, httpx.ErrNotFound) {
		return Quote{}, Invoice{}, err
	}

	current, getErr := r.GetQuote(ctx, tenantID, id)
	if getErr != nil {
		return Quote{}, Invoice{}, getErr
	}
	return Quote{}, Invoice{}, &StateConflictError{QuoteID: id, Expected: []QuoteStatus{QuoteApproved}, Actual: current.Status}
}

func (r *repository) RevokeQuoteLink(ctx context.Context, tenantID, id int64) (Quote, error) {
	row := r.db.QueryRow(ctx, `UPDATE quotes SET public_token = NULL, updated_at = NOW()
WHERE tenant_id = $1 AND id = $2
RETURNING `+quoteColumns, tenantID, id)
	return scanQuote(row)
}

func (r *repository) GetCustomer(ctx context.Context, tenantID, id int64) (Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT id, tenant_id, name, COALESCE(org_number, ''), COALESCE(email, ''), created_at
FROM customers WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	var c Customer
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.OrgNumber, &c.Email, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, httpx.ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.CustomerID, &inv.Number,
		&inv.IssueDate, &inv.DueDate, &inv.Currency,
		&inv.Subtotal, &inv.VATAmount, &inv.Total,
		&inv.LaborAmount, &inv.MaterialAmount, &inv.Status,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, httpx.ErrNotFound
		}
		return Invoice{}, err
	}
	return inv, nil
}

func scanQuote(row pgx.Row) (Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.TenantID, &q.CustomerID, &q.Number, &q.Status,
		&q.ValidUntil, &q.Subtotal, &q.VATAmount, &q.Total,
		&q.PublicToken, &q.InvoiceID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, httpx.ErrNotFound
		}
		return Quote{}, err
	}
	return q, nil
}
