package rot

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/byggbas/byggbas/internal/platform/httpx"
	"github.com/byggbas/byggbas/internal/shared"
)

type memoryDeductionRepo struct {
	deductions map[int64]*Deduction
	nextID     int64
}

func newMemoryDeductionRepo() *memoryDeductionRepo {
	return &memoryDeductionRepo{deductions: make(map[int64]*Deduction)}
}

func (r *memoryDeductionRepo) Insert(ctx context.Context, tenantID int64, d Deduction) (Deduction, error) {
	r.nextID++
	d.ID = r.nextID
	d.TenantID = tenantID
	d.Status = StatusDraft
	d.CreatedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	d.UpdatedAt = d.CreatedAt
	r.deductions[d.ID] = &d
	return d, nil
}

func (r *memoryDeductionRepo) List(ctx context.Context, tenantID int64, limit, offset int) ([]Deduction, error) {
	var out []Deduction
	for _, d := range r.deductions {
		if d.TenantID == tenantID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *memoryDeductionRepo) Get(ctx context.Context, tenantID, id int64) (Deduction, error) {
	d, ok := r.deductions[id]
	if !ok || d.TenantID != tenantID {
		return Deduction{}, httpx.ErrNotFound
	}
	return *d, nil
}

func (r *memoryDeductionRepo) SumForBuyerYear(ctx context.Context, tenantID int64, buyer string, kind Kind, year int) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, d := range r.deductions {
		if d.TenantID != tenantID || d.BuyerPersonalNumber != buyer || d.Kind != kind {
			continue
		}
		if d.Status == StatusRejected || d.InvoiceDate.Year() != year {
			continue
		}
		total = total.Add(d.DeductionAmount)
	}
	return total, nil
}

func (r *memoryDeductionRepo) Transition(ctx context.Context, tenantID, id int64, expected []DeductionStatus, target DeductionStatus) (Deduction, error) {
	d, ok := r.deductions[id]
	if !ok || d.TenantID != tenantID {
		return Deduction{}, httpx.ErrNotFound
	}
	for _, s := range expected {
		if d.Status == s {
			d.Status = target
			d.UpdatedAt = time.Now()
			return *d, nil
		}
	}
	return Deduction{}, &StateConflictError{DeductionID: id, Expected: expected, Actual: d.Status}
}

var caller = shared.Identity{TenantID: 1, UserID: 2, Role: shared.RoleMember}

func newTestService(repo Repository) *Service {
	return NewService(repo, DefaultRules(), nil).WithNow(func() time.Time {
		return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	})
}

func validInput() CreateDeductionInput {
	return CreateDeductionInput{
		InvoiceID:           1042,
		Kind:                KindROT,
		InvoiceDate:         time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		LaborAmount:         decimal.RequireFromString("10000"),
		MaterialAmount:      decimal.RequireFromString("2500"),
		BuyerPersonalNumber: "198001012345",
		PropertyDesignation: "Stockholm Takpannan 1:12",
	}
}

func TestCreateResolvesPercentFromInvoiceDate(t *testing.T) {
	svc := newTestService(newMemoryDeductionRepo())

	d, err := svc.Create(context.Background(), caller, validInput())
	require.NoError(t, err)
	require.Equal(t, int64(30), d.Percent)
	require.Equal(t, "3000.00", d.DeductionAmount.StringFixed(2))
	require.Equal(t, StatusDraft, d.Status)
	require.Contains(t, d.XMLPayload, "<BegartBelopp>3000.00</BegartBelopp>")

	in := validInput()
	in.InvoiceDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	d, err = svc.Create(context.Background(), caller, in)
	require.NoError(t, err)
	require.Equal(t, int64(50), d.Percent)
	require.Equal(t, "5000.00", d.DeductionAmount.StringFixed(2))
}

func TestCreateRequiresPropertyForRot(t *testing.T) {
	svc := newTestService(newMemoryDeductionRepo())

	in := validInput()
	in.PropertyDesignation = ""
	_, err := svc.Create(context.Background(), caller, in)
	require.ErrorIs(t, err, httpx.ErrValidation)

	// RUT has no property requirement.
	in.Kind = KindRUT
	_, err = svc.Create(context.Background(), caller, in)
	require.NoError(t, err)
}

func TestCreateEnforcesYearlyCeiling(t *testing.T) {
	repo := newMemoryDeductionRepo()
	svc := newTestService(repo)

	// 96000 labor at 50% puts the buyer at 48000 of the 50000 ROT cap.
	in := validInput()
	in.InvoiceDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in.LaborAmount = decimal.RequireFromString("96000")
	_, err := svc.Create(context.Background(), caller, in)
	require.NoError(t, err)

	// Another 5000 deduction would exceed the cap.
	in.LaborAmount = decimal.RequireFromString("10000")
	_, err = svc.Create(context.Background(), caller, in)
	require.ErrorIs(t, err, ErrCeilingExceeded)
	require.ErrorIs(t, err, httpx.ErrValidation)

	// A different buyer starts from zero.
	in.BuyerPersonalNumber = "199001019999"
	_, err = svc.Create(context.Background(), caller, in)
	require.NoError(t, err)
}

func TestCeilingCountsInvoiceYearNotRegistrationYear(t *testing.T) {
	repo := newMemoryDeductionRepo()
	// Registered in January 2026, well after the invoices were billed.
	svc := NewService(repo, DefaultRules(), nil).WithNow(func() time.Time {
		return time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	})

	in := validInput()
	in.InvoiceDate = time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	in.LaborAmount = decimal.RequireFromString("96000")
	_, err := svc.Create(context.Background(), caller, in)
	require.NoError(t, err)

	// A December 2025 invoice counts against the 2025 cap even though the
	// deduction is registered in 2026.
	in.InvoiceDate = time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)
	in.LaborAmount = decimal.RequireFromString("10000")
	_, err = svc.Create(context.Background(), caller, in)
	require.ErrorIs(t, err, ErrCeilingExceeded)

	// The same invoice dated in 2026 starts a fresh yearly cap.
	in.InvoiceDate = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	_, err = svc.Create(context.Background(), caller, in)
	require.NoError(t, err)
}

func TestQueueAndOutcomeFlow(t *testing.T) {
	repo := newMemoryDeductionRepo()
	svc := newTestService(repo)

	d, err := svc.Create(context.Background(), caller, validInput())
	require.NoError(t, err)

	queued, err := svc.Queue(context.Background(), caller, d.ID)
	require.NoError(t, err)
	require.Equal(t, StatusQueued, queued.Status)

	// Queueing twice conflicts.
	_, err = svc.Queue(context.Background(), caller, d.ID)
	require.ErrorIs(t, err, httpx.ErrStateConflict)

	// Cannot resolve before submission.
	_, err = svc.RecordOutcome(context.Background(), caller, d.ID, StatusAccepted)
	require.ErrorIs(t, err, httpx.ErrStateConflict)

	submitted, err := svc.RecordOutcome(context.Background(), caller, d.ID, StatusSubmitted)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, submitted.Status)

	accepted, err := svc.RecordOutcome(context.Background(), caller, d.ID, StatusAccepted)
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, accepted.Status)

	// Percent is untouched by the whole flow.
	require.Equal(t, d.Percent, accepted.Percent)
}

func TestCrossTenantDeductionHidden(t *testing.T) {
	repo := newMemoryDeductionRepo()
	svc := newTestService(repo)

	d, err := svc.Create(context.Background(), caller, validInput())
	require.NoError(t, err)

	foreign := shared.Identity{TenantID: 42, UserID: 1, Role: shared.RoleAdmin}
	_, err = svc.Get(context.Background(), foreign, d.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
	_, err = svc.Queue(context.Background(), foreign, d.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
