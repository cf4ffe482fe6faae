package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/byggbas/byggbas/internal/shared"
)

// Service implements the quote workflow and read access to invoices.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
	now   func() time.Time
}

func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) ListInvoices(ctx context.Context, identity shared.Identity, limit, offset int) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx, identity.TenantID, limit, offset)
}

func (s *Service) GetInvoice(ctx context.Context, identity shared.Identity, id int64) (Invoice, error) {
	return s.repo.GetInvoice(ctx, identity.TenantID, id)
}

func (s *Service) CreateQuote(ctx context.Context, identity shared.Identity, in CreateQuoteInput) (Quote, error) {
	if err := in.Validate(); err != nil {
		return Quote{}, err
	}
	if _, err := s.repo.GetCustomer(ctx, identity.TenantID, in.CustomerID); err != nil {
		return Quote{}, err
	}
	q := Quote{
		CustomerID:  in.CustomerID,
		Status:      QuoteDraft,
		ValidUntil:  in.ValidUntil,
		Subtotal:    in.Subtotal,
		VATAmount:   in.VATAmount,
		Total:       in.Subtotal.Add(in.VATAmount),
		PublicToken: uuid.NewString(),
	}
	created, err := s.repo.InsertQuote(ctx, identity.TenantID, q)
	if err != nil {
		return Quote{}, err
	}
	s.recordAudit(ctx, identity, "quote.created", created.ID)
	return created, nil
}

func (s *Service) ListQuotes(ctx context.Context, identity shared.Identity, limit, offset int) ([]Quote, error) {
	return s.repo.ListQuotes(ctx, identity.TenantID, limit, offset)
}

// Approve accepts a quote on the customer's behalf. Draft quotes can be
// approved directly; the sent state exists for quotes shared via the public
// link.
func (s *Service) Approve(ctx context.Context, identity shared.Identity, id int64) (Quote, error) {
	q, err := s.repo.TransitionQuote(ctx, identity.TenantID, id, []QuoteStatus{QuoteDraft, QuoteSent}, QuoteApproved)
	if err != nil {
		return Quote{}, err
	}
	s.recordAudit(ctx, identity, "quote.approved", q.ID)
	return q, nil
}

func (s *Service) Decline(ctx context.Context, identity shared.Identity, id int64) (Quote, error) {
	q, err := s.repo.TransitionQuote(ctx, identity.TenantID, id, []QuoteStatus{QuoteDraft, QuoteSent}, QuoteDeclined)
	if err != nil {
		return Quote{}, err
	}
	s.recordAudit(ctx, identity, "quote.declined", q.ID)
	return q, nil
}

// Convert turns an approved quote into a draft invoice. The quote must be
// approved; converting twice conflicts because the first conversion moves it
// to converted.
func (s *Service) Convert(ctx context.Context, identity shared.Identity, id int64) (Quote, Invoice, error) {
	issueDate := s.now()
	q, inv, err := s.repo.ConvertQuote(ctx, identity.TenantID, id, issueDate, issueDate.AddDate(0, 0, 30))
	if err != nil {
		return Quote{}, Invoice{}, err
	}
	s.recordAudit(ctx, identity, "quote.converted", q.ID)
	return q, inv, nil
}

// Duplicate copies a quote into a fresh draft with a new number and public
// token.
func (s *Service) Duplicate(ctx context.Context, identity shared.Identity, id int64) (Quote, error) {
	src, err := s.repo.GetQuote(ctx, identity.TenantID, id)
	if err != nil {
		return Quote{}, err
	}
	dup := Quote{
		CustomerID:  src.CustomerID,
		Status:      QuoteDraft,
		ValidUntil:  src.ValidUntil,
		Subtotal:    src.Subtotal,
		VATAmount:   src.VATAmount,
		Total:       src.Total,
		PublicToken: uuid.NewString(),
	}
	created, err := s.repo.InsertQuote(ctx, identity.TenantID, dup)
	if err != nil {
		return Quote{}, err
	}
	s.recordAudit(ctx, identity, "quote.duplicated", created.ID)
	return created, nil
}

// RevokeLink invalidates the customer-facing link by clearing the public
// token.
func (s *Service) RevokeLink(ctx context.Context, identity shared.Identity, id int64) (Quote, error) {
	q, err := s.repo.RevokeQuoteLink(ctx, identity.TenantID, id)
	if err != nil {
		return Quote{}, err
	}
	s.recordAudit(ctx, identity, "quote.link_revoked", q.ID)
	return q, nil
}

func (s *Service) recordAudit(ctx context.Context, identity shared.Identity, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: identity.TenantID,
		ActorID:  identity.UserID,
		Action:   action,
		Entity:   "quote",
		EntityID: fmt.Sprintf("%d", id),
	})
}
