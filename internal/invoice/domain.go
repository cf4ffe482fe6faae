package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// InvoiceStatus tracks the billing lifecycle.
type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "draft"
	InvoiceSent  InvoiceStatus = "sent"
	InvoicePaid  InvoiceStatus = "paid"
	InvoiceVoid  InvoiceStatus = "void"
)

// Invoice is a customer invoice. Labor and material are split out because the
// ROT/RUT deduction only applies to labor.
type Invoice struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"tenant_id"`
	CustomerID     int64           `json:"customer_id"`
	Number         string          `json:"number"`
	IssueDate      time.Time       `json:"issue_date"`
	DueDate        time.Time       `json:"due_date"`
	Currency       string          `json:"currency"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	VATAmount      decimal.Decimal `json:"vat_amount"`
	Total          decimal.Decimal `json:"total"`
	LaborAmount    decimal.Decimal `json:"labor_amount"`
	MaterialAmount decimal.Decimal `json:"material_amount"`
	Status         InvoiceStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// QuoteStatus tracks a quote through its approval workflow.
type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "draft"
	QuoteSent      QuoteStatus = "sent"
	QuoteApproved  QuoteStatus = "approved"
	QuoteDeclined  QuoteStatus = "declined"
	QuoteConverted QuoteStatus = "converted"
)

// Quote is a customer offer that may be converted into an invoice.
// PublicToken backs the customer-facing link; revoking the link rotates it.
type Quote struct {
	ID          int64           `json:"id"`
	TenantID    int64           `json:"tenant_id"`
	CustomerID  int64           `json:"customer_id"`
	Number      string          `json:"number"`
	Status      QuoteStatus     `json:"status"`
	ValidUntil  time.Time       `json:"valid_until"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
	Total       decimal.Decimal `json:"total"`
	PublicToken string          `json:"public_token,omitempty"`
	InvoiceID   int64           `json:"invoice_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Customer is the minimal customer registry entry.
type Customer struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	OrgNumber string    `json:"org_number,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateQuoteInput carries the fields for a new quote.
type CreateQuoteInput struct {
	CustomerID int64
	ValidUntil time.Time
	Subtotal   decimal.Decimal
	VATAmount  decimal.Decimal
}

func (in CreateQuoteInput) Validate() error {
	if in.CustomerID == 0 {
		return fmt.Errorf("invoice: customer_id is required: %w", httpx.ErrValidation)
	}
	if in.ValidUntil.IsZero() {
		return fmt.Errorf("invoice: valid_until is required: %w", httpx.ErrValidation)
	}
	if in.Subtotal.IsNegative() || in.VATAmount.IsNegative() {
		return fmt.Errorf("invoice: amounts cannot be negative: %w", httpx.ErrValidation)
	}
	return nil
}

// StateConflictError reports a quote transition rejected by the guarded
// update.
type StateConflictError struct {
	QuoteID  int64
	Expected []QuoteStatus
	Actual   QuoteStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("invoice: quote %d is %s, expected %v", e.QuoteID, e.Actual, e.Expected)
}

func (e *StateConflictError) Is(target error) bool {
	return target == httpx.ErrStateConflict
}
