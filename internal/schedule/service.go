package schedule

import (
	"context"
	"time"

	"github.com/byggbas/byggbas/internal/shared"
)

// Service manages schedule slots. Overlap detection runs on every write and
// on demand via FindConflicts; overlaps are reported to the caller but never
// reject the write.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, identity shared.Identity, in WriteInput) (SlotWithConflicts, error) {
	if err := in.Validate(); err != nil {
		return SlotWithConflicts{}, err
	}
	slot, err := s.repo.Insert(ctx, identity.TenantID, in)
	if err != nil {
		return SlotWithConflicts{}, err
	}
	conflicts, err := s.repo.Overlapping(ctx, identity.TenantID, slot.EmployeeID, slot.StartsAt, slot.EndsAt, slot.ID)
	if err != nil {
		return SlotWithConflicts{}, err
	}
	return SlotWithConflicts{Slot: slot, Conflicts: conflicts}, nil
}

func (s *Service) Move(ctx context.Context, identity shared.Identity, id int64, in WriteInput) (SlotWithConflicts, error) {
	if err := in.Validate(); err != nil {
		return SlotWithConflicts{}, err
	}
	if _, err := s.repo.Get(ctx, identity.TenantID, id); err != nil {
		return SlotWithConflicts{}, err
	}
	slot, err := s.repo.Update(ctx, identity.TenantID, id, in)
	if err != nil {
		return SlotWithConflicts{}, err
	}
	conflicts, err := s.repo.Overlapping(ctx, identity.TenantID, slot.EmployeeID, slot.StartsAt, slot.EndsAt, slot.ID)
	if err != nil {
		return SlotWithConflicts{}, err
	}
	return SlotWithConflicts{Slot: slot, Conflicts: conflicts}, nil
}

func (s *Service) List(ctx context.Context, identity shared.Identity, from, to time.Time) ([]Slot, error) {
	return s.repo.ListRange(ctx, identity.TenantID, from, to)
}

// FindConflicts returns the employee's slots overlapping [start, end),
// excluding excludeID when non-zero.
func (s *Service) FindConflicts(ctx context.Context, identity shared.Identity, employeeID int64, start, end time.Time, excludeID int64) ([]Slot, error) {
	return s.repo.Overlapping(ctx, identity.TenantID, employeeID, start, end, excludeID)
}
