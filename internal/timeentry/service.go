package timeentry

import (
	"context"
	"time"

	"github.com/byggbas/byggbas/internal/shared"
)

// PeriodGuard answers whether a date sits inside a locked payroll period.
// The payroll service implements it.
type PeriodGuard interface {
	IsDateLocked(ctx context.Context, tenantID int64, date time.Time) (bool, error)
}

// Service manages time entries and offline sync replay.
type Service struct {
	repo  Repository
	guard PeriodGuard
}

// NewService constructs a Service instance.
func NewService(repo Repository, guard PeriodGuard) *Service {
	return &Service{repo: repo, guard: guard}
}

// Create inserts an entry unless its date is frozen by payroll.
func (s *Service) Create(ctx context.Context, identity shared.Identity, in WriteInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	if err := s.ensureUnlocked(ctx, identity.TenantID, in.EntryDate); err != nil {
		return Entry{}, err
	}
	return s.repo.Insert(ctx, identity.TenantID, in)
}

// Update replaces an entry. Both the stored date and the new date must be
// outside locked periods, so entries cannot be moved into or out of a locked
// range.
func (s *Service) Update(ctx context.Context, identity shared.Identity, id int64, in WriteInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	current, err := s.repo.Get(ctx, identity.TenantID, id)
	if err != nil {
		return Entry{}, err
	}
	if err := s.ensureUnlocked(ctx, identity.TenantID, current.EntryDate); err != nil {
		return Entry{}, err
	}
	if err := s.ensureUnlocked(ctx, identity.TenantID, in.EntryDate); err != nil {
		return Entry{}, err
	}
	return s.repo.Update(ctx, identity.TenantID, id, in)
}

// List returns the entries inside the range.
func (s *Service) List(ctx context.Context, identity shared.Identity, start, end time.Time) ([]Entry, error) {
	return s.repo.ListRange(ctx, identity.TenantID, start, end)
}

func (s *Service) ensureUnlocked(ctx context.Context, tenantID int64, date time.Time) error {
	locked, err := s.guard.IsDateLocked(ctx, tenantID, date)
	if err != nil {
		return err
	}
	if locked {
		return ErrPeriodLocked
	}
	return nil
}
