package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/byggbas/byggbas/internal/shared"
)

// TimeEntry is the slice of a time record the payroll validation and export
// need. The timeentry module adapts its records into this shape.
type TimeEntry struct {
	ID           int64
	EmployeeID   int64
	EmployeeName string
	ProjectID    int64
	Date         time.Time
	Hours        float64
}

// TimeEntrySource lists the entries falling inside a payroll period.
type TimeEntrySource interface {
	ListForPayroll(ctx context.Context, tenantID int64, start, end time.Time) ([]TimeEntry, error)
}

// Metrics records payroll export outcomes.
type Metrics interface {
	PayrollExport(format, outcome string)
}

// Service orchestrates the period lifecycle.
type Service struct {
	repo    Repository
	entries TimeEntrySource
	audit   *shared.AuditLogger
	metrics Metrics
	now     func() time.Time
}

// NewService constructs a Service instance.
func NewService(repo Repository, entries TimeEntrySource, audit *shared.AuditLogger, metrics Metrics) *Service {
	return &Service{repo: repo, entries: entries, audit: audit, metrics: metrics, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreatePeriod inserts a new open period after checking range overlap.
func (s *Service) CreatePeriod(ctx context.Context, identity shared.Identity, in CreatePeriodInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	overlaps, err := s.repo.RangeOverlaps(ctx, identity.TenantID, in.StartDate, in.EndDate)
	if err != nil {
		return Period{}, err
	}
	if overlaps {
		return Period{}, ErrPeriodOverlap
	}
	period, err := s.repo.Insert(ctx, identity.TenantID, in)
	if err != nil {
		return Period{}, err
	}
	s.recordAudit(ctx, identity, "payroll.period.create", period.ID, nil)
	return period, nil
}

// ListPeriods returns the tenant's periods, newest first.
func (s *Service) ListPeriods(ctx context.Context, identity shared.Identity, limit, offset int) ([]Period, error) {
	return s.repo.List(ctx, identity.TenantID, limit, offset)
}

// GetPeriod loads one period. Foreign tenant ids come back as not found.
func (s *Service) GetPeriod(ctx context.Context, identity shared.Identity, id int64) (Period, error) {
	return s.repo.Get(ctx, identity.TenantID, id)
}

// IsDateLocked reports whether the date lies inside a locked or exported
// period of the tenant. The timeentry module consults this before mutations.
func (s *Service) IsDateLocked(ctx context.Context, tenantID int64, date time.Time) (bool, error) {
	return s.repo.LockedCovering(ctx, tenantID, date)
}

// Validate inspects the time entries inside the period range and classifies
// problems. Missing employee or project references and non-positive hours
// block the lock; unusually long days only warn.
func (s *Service) Validate(ctx context.Context, tenantID int64, period Period) (ValidationResult, error) {
	entries, err := s.entries.ListForPayroll(ctx, tenantID, period.StartDate, period.EndDate)
	if err != nil {
		return ValidationResult{}, err
	}
	var result ValidationResult
	for _, e := range entries {
		if e.EmployeeID == 0 {
			result.Findings = append(result.Findings, Finding{EntryID: e.ID, Severity: SeverityError, Message: "time entry missing employee reference"})
		}
		if e.ProjectID == 0 {
			result.Findings = append(result.Findings, Finding{EntryID: e.ID, Severity: SeverityError, Message: "time entry missing project reference"})
		}
		if e.Hours <= 0 {
			result.Findings = append(result.Findings, Finding{EntryID: e.ID, Severity: SeverityError, Message: "time entry has non-positive hours"})
		} else if e.Hours > 12 {
			result.Findings = append(result.Findings, Finding{EntryID: e.ID, Severity: SeverityWarning, Message: fmt.Sprintf("time entry reports %.2f hours in one day", e.Hours)})
		}
	}
	return result, nil
}

// Lock validates and transitions open -> locked. Errors always block.
// Warnings block unless force is set, and only admins may force.
func (s *Service) Lock(ctx context.Context, identity shared.Identity, periodID int64, force bool) (Period, ValidationResult, error) {
	period, err := s.repo.Get(ctx, identity.TenantID, periodID)
	if err != nil {
		return Period{}, ValidationResult{}, err
	}

	result, err := s.Validate(ctx, identity.TenantID, period)
	if err != nil {
		return Period{}, ValidationResult{}, err
	}
	if result.HasErrors() {
		return Period{}, result, ErrValidationBlocked
	}
	if result.HasWarnings() {
		if !force {
			return Period{}, result, ErrWarningsNeedForce
		}
		if !identity.IsAdmin() {
			return Period{}, result, ErrForceRequiresAdmin
		}
	}

	locked, err := s.repo.Transition(ctx, identity.TenantID, periodID, TransitionInput{
		Expected: []PeriodStatus{StatusOpen},
		Target:   StatusLocked,
		ActorID:  identity.UserID,
		At:       s.now(),
	})
	if err != nil {
		return Period{}, result, err
	}
	s.recordAudit(ctx, identity, "payroll.period.lock", periodID, map[string]any{"force": force, "warnings": len(result.Findings)})
	return locked, result, nil
}

// Unlock reverses a lock. It accepts locked and failed periods; exported ones
// stay immutable. Handler-level middleware restricts this to admins.
func (s *Service) Unlock(ctx context.Context, identity shared.Identity, periodID int64) (Period, error) {
	period, err := s.repo.Transition(ctx, identity.TenantID, periodID, TransitionInput{
		Expected: []PeriodStatus{StatusLocked, StatusFailed},
		Target:   StatusOpen,
		ActorID:  identity.UserID,
		At:       s.now(),
	})
	if err != nil {
		return Period{}, err
	}
	s.recordAudit(ctx, identity, "payroll.period.unlock", periodID, nil)
	return period, nil
}

// Export renders the provider file for a locked period and transitions it to
// exported. A render failure moves the period to failed and the error is
// surfaced to the caller; nothing is retried automatically.
func (s *Service) Export(ctx context.Context, identity shared.Identity, periodID int64, format ExportFormat) (Period, ExportFile, error) {
	period, err := s.repo.Get(ctx, identity.TenantID, periodID)
	if err != nil {
		return Period{}, ExportFile{}, err
	}
	if period.Status != StatusLocked {
		return Period{}, ExportFile{}, &StateConflictError{PeriodID: periodID, Expected: []PeriodStatus{StatusLocked}, Actual: period.Status}
	}

	entries, err := s.entries.ListForPayroll(ctx, identity.TenantID, period.StartDate, period.EndDate)
	if err != nil {
		return Period{}, ExportFile{}, err
	}

	file, renderErr := RenderExport(period, entries, format)
	if renderErr != nil {
		if _, failErr := s.repo.Transition(ctx, identity.TenantID, periodID, TransitionInput{
			Expected:    []PeriodStatus{StatusLocked},
			Target:      StatusFailed,
			ActorID:     identity.UserID,
			At:          s.now(),
			ExportError: renderErr.Error(),
		}); failErr != nil {
			return Period{}, ExportFile{}, failErr
		}
		s.observeExport(format, "failed")
		return Period{}, ExportFile{}, fmt.Errorf("payroll: export failed: %w", renderErr)
	}

	exported, err := s.repo.Transition(ctx, identity.TenantID, periodID, TransitionInput{
		Expected: []PeriodStatus{StatusLocked},
		Target:   StatusExported,
		ActorID:  identity.UserID,
		At:       s.now(),
	})
	if err != nil {
		return Period{}, ExportFile{}, err
	}
	s.observeExport(format, "success")
	s.recordAudit(ctx, identity, "payroll.period.export", periodID, map[string]any{"format": string(format)})
	return exported, file, nil
}

func (s *Service) observeExport(format ExportFormat, outcome string) {
	if s.metrics != nil {
		s.metrics.PayrollExport(string(format), outcome)
	}
}

func (s *Service) recordAudit(ctx context.Context, identity shared.Identity, action string, periodID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		TenantID: identity.TenantID,
		ActorID:  identity.UserID,
		Action:   action,
		Entity:   "payroll_period",
		EntityID: fmt.Sprintf("%d", periodID),
		Meta:     meta,
	})
}
