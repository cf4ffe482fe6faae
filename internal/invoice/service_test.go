package invoice

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/byggbas/byggbas/internal/platform/httpx"
	"github.com/byggbas/byggbas/internal/shared"
)

type memoryInvoiceRepo struct {
	quotes    map[int64]*Quote
	invoices  map[int64]*Invoice
	customers map[int64]*Customer
	nextQuote int64
	nextInv   int64
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{
		quotes:   make(map[int64]*Quote),
		invoices: make(map[int64]*Invoice),
		customers: map[int64]*Customer{
			7: {ID: 7, TenantID: 1, Name: "Bygg & Tak AB", OrgNumber: "556677-8899"},
		},
	}
}

func (r *memoryInvoiceRepo) ListInvoices(ctx context.Context, tenantID int64, limit, offset int) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if inv.TenantID == tenantID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r *memoryInvoiceRepo) GetInvoice(ctx context.Context, tenantID, id int64) (Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.TenantID != tenantID {
		return Invoice{}, httpx.ErrNotFound
	}
	return *inv, nil
}

func (r *memoryInvoiceRepo) InsertQuote(ctx context.Context, tenantID int64, q Quote) (Quote, error) {
	r.nextQuote++
	q.ID = r.nextQuote
	q.TenantID = tenantID
	q.Number = fmt.Sprintf("OFF-%05d", q.ID)
	r.quotes[q.ID] = &q
	return q, nil
}

func (r *memoryInvoiceRepo) ListQuotes(ctx context.Context, tenantID int64, limit, offset int) ([]Quote, error) {
	var out []Quote
	for _, q := range r.quotes {
		if q.TenantID == tenantID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *memoryInvoiceRepo) GetQuote(ctx context.Context, tenantID, id int64) (Quote, error) {
	q, ok := r.quotes[id]
	if !ok || q.TenantID != tenantID {
		return Quote{}, httpx.ErrNotFound
	}
	return *q, nil
}

func (r *memoryInvoiceRepo) TransitionQuote(ctx context.Context, tenantID, id int64, expected []QuoteStatus, target QuoteStatus) (Quote, error) {
	q, ok := r.quotes[id]
	if !ok || q.TenantID != tenantID {
		return Quote{}, httpx.ErrNotFound
	}
	for _, s := range expected {
		if q.Status == s {
			q.Status = target
			return *q, nil
		}
	}
	return Quote{}, &StateConflictError{QuoteID: id, Expected: expected, Actual: q.Status}
}

func (r *memoryInvoiceRepo) ConvertQuote(ctx context.Context, tenantID, id int64, issueDate, dueDate time.Time) (Quote, Invoice, error) {
	q, ok := r.quotes[id]
	if !ok || q.TenantID != tenantID {
		return Quote{}, Invoice{}, httpx.ErrNotFound
	}
	if q.Status != QuoteApproved {
		return Quote{}, Invoice{}, &StateConflictError{QuoteID: id, Expected: []QuoteStatus{QuoteApproved}, Actual: q.Status}
	}
	r.nextInv++
	inv := Invoice{
		ID: r.nextInv, TenantID: tenantID, CustomerID: q.CustomerID,
		Number:    fmt.Sprintf("INV-%05d", r.nextInv),
		IssueDate: issueDate, DueDate: dueDate, Currency: "SEK",
		Subtotal: q.Subtotal, VATAmount: q.VATAmount, Total: q.Total,
		LaborAmount: q.Subtotal, Status: InvoiceDraft,
	}
	r.invoices[inv.ID] = &inv
	q.Status = QuoteConverted
	q.InvoiceID = inv.ID
	return *q, inv, nil
}

func (r *memoryInvoiceRepo) RevokeQuoteLink(ctx context.Context, tenantID, id int64) (Quote, error) {
	q, ok := r.quotes[id]
	if !ok || q.TenantID != tenantID {
		return Quote{}, httpx.ErrNotFound
	}
	q.PublicToken = ""
	return *q, nil
}

func (r *memoryInvoiceRepo) GetCustomer(ctx context.Context, tenantID, id int64) (Customer, error) {
	c, ok := r.customers[id]
	if !ok || c.TenantID != tenantID {
		return Customer{}, httpx.ErrNotFound
	}
	return *c, nil
}

var caller = shared.Identity{TenantID: 1, UserID: 2, Role: shared.RoleMember}

func quoteInput() CreateQuoteInput {
	return CreateQuoteInput{
		CustomerID: 7,
		ValidUntil: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Subtotal:   decimal.RequireFromString("80000"),
		VATAmount:  decimal.RequireFromString("20000"),
	}
}

func TestCreateQuote(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), nil)

	q, err := svc.CreateQuote(context.Background(), caller, quoteInput())
	require.NoError(t, err)
	require.Equal(t, QuoteDraft, q.Status)
	require.Equal(t, "100000", q.Total.String())
	require.NotEmpty(t, q.PublicToken)
	require.NotEmpty(t, q.Number)
}

func TestCreateQuoteUnknownCustomer(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), nil)

	in := quoteInput()
	in.CustomerID = 99
	_, err := svc.CreateQuote(context.Background(), caller, in)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestConvertRequiresApproval(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), nil)

	q, err := svc.CreateQuote(context.Background(), caller, quoteInput())
	require.NoError(t, err)

	_, _, err = svc.Convert(context.Background(), caller, q.ID)
	require.ErrorIs(t, err, httpx.ErrStateConflict)

	_, err = svc.Approve(context.Background(), caller, q.ID)
	require.NoError(t, err)

	converted, inv, err := svc.Convert(context.Background(), caller, q.ID)
	require.NoError(t, err)
	require.Equal(t, QuoteConverted, converted.Status)
	require.Equal(t, inv.ID, converted.InvoiceID)
	require.Equal(t, q.Total.String(), inv.Total.String())
	require.Equal(t, InvoiceDraft, inv.Status)
}

func TestConvertTwiceConflicts(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), nil)

	q, err := svc.CreateQuote(context.Background(), caller, quoteInput())
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), caller, q.ID)
	require.NoError(t, err)
	_, _, err = svc.Convert(context.Background(), caller, q.ID)
	require.NoError(t, err)

	_, _, err = svc.Convert(context.Background(), caller, q.ID)
	require.ErrorIs(t, err, httpx.ErrStateConflict)
}

func TestDeclinedQuoteCannotBeApproved(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), nil)

	q, err := svc.CreateQuote(context.Background(), caller, quoteInput())
	require.NoError(t, err)
	_, err = svc.Decline(context.Background(), caller, q.ID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), caller, q.ID)
	require.ErrorIs(t, err, httpx.ErrStateConflict)
}

func TestDuplicateQuote(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), nil)

	q, err := svc.CreateQuote(context.Background(), caller, quoteInput())
	require.NoError(t, err)
	_, err = svc.Decline(context.Background(), caller, q.ID)
	require.NoError(t, err)

	dup, err := svc.Duplicate(context.Background(), caller, q.ID)
	require.NoError(t, err)
	require.NotEqual(t, q.ID, dup.ID)
	require.Equal(t, QuoteDraft, dup.Status)
	require.NotEqual(t, q.PublicToken, dup.PublicToken)
	require.Equal(t, q.Total.String(), dup.Total.String())
}

func TestRevokeLinkClearsToken(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), nil)

	q, err := svc.CreateQuote(context.Background(), caller, quoteInput())
	require.NoError(t, err)
	require.NotEmpty(t, q.PublicToken)

	revoked, err := svc.RevokeLink(context.Background(), caller, q.ID)
	require.NoError(t, err)
	require.Empty(t, revoked.PublicToken)
}

func TestCrossTenantQuoteHidden(t *testing.T) {
	svc := NewService(newMemoryInvoiceRepo(), nil)

	q, err := svc.CreateQuote(context.Background(), caller, quoteInput())
	require.NoError(t, err)

	foreign := shared.Identity{TenantID: 42, UserID: 1, Role: shared.RoleAdmin}
	_, err = svc.Approve(context.Background(), foreign, q.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
