package rot

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// Kind identifies the household-service deduction scheme.
type Kind string

const (
	KindROT Kind = "ROT"
	KindRUT Kind = "RUT"
)

func (k Kind) Valid() bool {
	return k == KindROT || k == KindRUT
}

// DeductionStatus tracks a deduction through the Skatteverket request flow.
type DeductionStatus string

const (
	StatusDraft     DeductionStatus = "draft"
	StatusQueued    DeductionStatus = "queued"
	StatusSubmitted DeductionStatus = "submitted"
	StatusAccepted  DeductionStatus = "accepted"
	StatusRejected  DeductionStatus = "rejected"
)

// Deduction is a ROT/RUT tax deduction request tied to an invoice.
type Deduction struct {
	ID                  int64           `json:"id"`
	TenantID            int64           `json:"tenant_id"`
	InvoiceID           int64           `json:"invoice_id"`
	InvoiceDate         time.Time       `json:"invoice_date"`
	Kind                Kind            `json:"kind"`
	Percent             int64           `json:"percent"`
	LaborAmount         decimal.Decimal `json:"labor_amount_sek"`
	MaterialAmount      decimal.Decimal `json:"material_amount_sek"`
	DeductionAmount     decimal.Decimal `json:"deduction_amount_sek"`
	Status              DeductionStatus `json:"status"`
	BuyerPersonalNumber string          `json:"buyer_personal_number"`
	PropertyDesignation string          `json:"property_designation,omitempty"`
	XMLPayload          string          `json:"-"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// CreateDeductionInput carries the fields needed to register a deduction.
// InvoiceDate determines which percentage rule applies; the resolved percent
// is stored on the row and never changes afterwards.
type CreateDeductionInput struct {
	InvoiceID           int64
	Kind                Kind
	InvoiceDate         time.Time
	LaborAmount         decimal.Decimal
	MaterialAmount      decimal.Decimal
	BuyerPersonalNumber string
	PropertyDesignation string
}

func (in CreateDeductionInput) Validate() error {
	if !in.Kind.Valid() {
		return fmt.Errorf("rot: kind must be ROT or RUT: %w", httpx.ErrValidation)
	}
	if in.InvoiceID == 0 {
		return fmt.Errorf("rot: invoice_id is required: %w", httpx.ErrValidation)
	}
	if in.InvoiceDate.IsZero() {
		return fmt.Errorf("rot: invoice_date is required: %w", httpx.ErrValidation)
	}
	if !in.LaborAmount.IsPositive() {
		return fmt.Errorf("rot: labor amount must be positive: %w", httpx.ErrValidation)
	}
	if in.MaterialAmount.IsNegative() {
		return fmt.Errorf("rot: material amount cannot be negative: %w", httpx.ErrValidation)
	}
	if in.BuyerPersonalNumber == "" {
		return fmt.Errorf("rot: buyer personal number is required: %w", httpx.ErrValidation)
	}
	if in.Kind == KindROT && in.PropertyDesignation == "" {
		return fmt.Errorf("rot: property designation is required for ROT: %w", httpx.ErrValidation)
	}
	return nil
}

// ErrCeilingExceeded signals the buyer's yearly deduction cap would be passed.
var ErrCeilingExceeded = fmt.Errorf("rot: yearly deduction ceiling exceeded: %w", httpx.ErrValidation)

// StateConflictError reports a status transition rejected by the guarded
// update; Actual carries the status found on the row.
type StateConflictError struct {
	DeductionID int64
	Expected    []DeductionStatus
	Actual      DeductionStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("rot: deduction %d is %s, expected %v", e.DeductionID, e.Actual, e.Expected)
}

func (e *StateConflictError) Is(target error) bool {
	return target == httpx.ErrStateConflict
}

var errUnknownOutcome = fmt.Errorf("rot: unknown outcome status: %w", httpx.ErrValidation)
