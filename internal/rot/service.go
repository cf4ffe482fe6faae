package rot

import (
	"context"
	"fmt"
	"time"

	"github.com/byggbas/byggbas/internal/platform/httpx"
	"github.com/byggbas/byggbas/internal/shared"
)

// Service implements the deduction lifecycle: percentage resolution at
// creation, the yearly ceiling check, XML rendering and the guarded status
// flow draft -> queued -> submitted -> accepted|rejected.
type Service struct {
	repo  Repository
	rules RuleTable
	audit *shared.AuditLogger
	now   func() time.Time
}

func NewService(repo Repository, rules RuleTable, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, rules: rules, audit: audit, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, identity shared.Identity, in CreateDeductionInput) (Deduction, error) {
	if err := in.Validate(); err != nil {
		return Deduction{}, err
	}

	percent := s.rules.ResolvePercent(in.Kind, in.InvoiceDate)
	if percent == 0 {
		return Deduction{}, fmt.Errorf("rot: no percentage rule for %s on %s: %w",
			in.Kind, in.InvoiceDate.Format("2006-01-02"), httpx.ErrValidation)
	}
	amount := CalcDeduction(in.LaborAmount, percent)

	spent, err := s.repo.SumForBuyerYear(ctx, identity.TenantID, in.BuyerPersonalNumber, in.Kind, in.InvoiceDate.Year())
	if err != nil {
		return Deduction{}, err
	}
	if spent.Add(amount).GreaterThan(ceilingFor(in.Kind)) {
		return Deduction{}, ErrCeilingExceeded
	}

	d := Deduction{
		InvoiceID:           in.InvoiceID,
		InvoiceDate:         in.InvoiceDate,
		Kind:                in.Kind,
		Percent:             percent,
		LaborAmount:         in.LaborAmount,
		MaterialAmount:      in.MaterialAmount,
		DeductionAmount:     amount,
		Status:              StatusDraft,
		BuyerPersonalNumber: in.BuyerPersonalNumber,
		PropertyDesignation: in.PropertyDesignation,
	}
	payload, err := BuildSkatteverketXML(d)
	if err != nil {
		return Deduction{}, err
	}
	d.XMLPayload = string(payload)

	created, err := s.repo.Insert(ctx, identity.TenantID, d)
	if err != nil {
		return Deduction{}, err
	}
	s.recordAudit(ctx, identity, "rot.deduction.created", created.ID)
	return created, nil
}

func (s *Service) List(ctx context.Context, identity shared.Identity, limit, offset int) ([]Deduction, error) {
	return s.repo.List(ctx, identity.TenantID, limit, offset)
}

func (s *Service) Get(ctx context.Context, identity shared.Identity, id int64) (Deduction, error) {
	return s.repo.Get(ctx, identity.TenantID, id)
}

// XML returns the Skatteverket payload rendered at creation.
func (s *Service) XML(ctx context.Context, identity shared.Identity, id int64) ([]byte, error) {
	d, err := s.repo.Get(ctx, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	return []byte(d.XMLPayload), nil
}

// Queue moves a draft deduction into the submission queue.
func (s *Service) Queue(ctx context.Context, identity shared.Identity, id int64) (Deduction, error) {
	d, err := s.repo.Transition(ctx, identity.TenantID, id, []DeductionStatus{StatusDraft}, StatusQueued)
	if err != nil {
		return Deduction{}, err
	}
	s.recordAudit(ctx, identity, "rot.deduction.queued", d.ID)
	return d, nil
}

// RecordOutcome applies an externally observed status change: queued
// deductions become submitted, submitted ones resolve to accepted or
// rejected.
func (s *Service) RecordOutcome(ctx context.Context, identity shared.Identity, id int64, target DeductionStatus) (Deduction, error) {
	var expected []DeductionStatus
	switch target {
	case StatusSubmitted:
		expected = []DeductionStatus{StatusQueued}
	case StatusAccepted, StatusRejected:
		expected = []DeductionStatus{StatusSubmitted}
	default:
		return Deduction{}, fmt.Errorf("%w: %s", errUnknownOutcome, target)
	}

	d, err := s.repo.Transition(ctx, identity.TenantID, id, expected, target)
	if err != nil {
		return Deduction{}, err
	}
	s.recordAudit(ctx, identity, "rot.deduction."+string(target), d.ID)
	return d, nil
}

func (s *Service) recordAudit(ctx context.Context, identity shared.Identity, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: identity.TenantID,
		ActorID:  identity.UserID,
		Action:   action,
		Entity:   "rot_deduction",
		EntityID: fmt.Sprintf("%d", id),
		At:       s.now(),
	})
}
