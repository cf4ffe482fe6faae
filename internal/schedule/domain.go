package schedule

import (
	"fmt"
	"time"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// SlotKind distinguishes scheduled work from registered absence.
type SlotKind string

const (
	KindWork    SlotKind = "work"
	KindAbsence SlotKind = "absence"
)

func (k SlotKind) Valid() bool {
	return k == KindWork || k == KindAbsence
}

// Slot is one block on an employee's schedule.
type Slot struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	EmployeeID int64     `json:"employee_id"`
	ProjectID  int64     `json:"project_id,omitempty"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Kind       SlotKind  `json:"kind"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WriteInput carries the fields for creating or moving a slot.
type WriteInput struct {
	EmployeeID int64
	ProjectID  int64
	StartsAt   time.Time
	EndsAt     time.Time
	Kind       SlotKind
	Note       string
}

func (in WriteInput) Validate() error {
	if in.EmployeeID == 0 {
		return fmt.Errorf("schedule: employee_id is required: %w", httpx.ErrValidation)
	}
	if !in.Kind.Valid() {
		return fmt.Errorf("schedule: kind must be work or absence: %w", httpx.ErrValidation)
	}
	if in.Kind == KindWork && in.ProjectID == 0 {
		return fmt.Errorf("schedule: project_id is required for work slots: %w", httpx.ErrValidation)
	}
	if in.StartsAt.IsZero() || in.EndsAt.IsZero() {
		return fmt.Errorf("schedule: starts_at and ends_at are required: %w", httpx.ErrValidation)
	}
	if !in.EndsAt.After(in.StartsAt) {
		return fmt.Errorf("schedule: ends_at must be after starts_at: %w", httpx.ErrValidation)
	}
	return nil
}

// SlotWithConflicts is the write-path response: the stored slot plus any
// overlapping slots for the same employee. Conflicts warn, they never block.
type SlotWithConflicts struct {
	Slot      Slot   `json:"slot"`
	Conflicts []Slot `json:"conflicts"`
}
