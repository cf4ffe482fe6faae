package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/byggbas/byggbas/internal/platform/httpx"
	"github.com/byggbas/byggbas/internal/shared"
)

type memorySlotRepo struct {
	slots  map[int64]*Slot
	nextID int64
}

func newMemorySlotRepo() *memorySlotRepo {
	return &memorySlotRepo{slots: make(map[int64]*Slot)}
}

func (r *memorySlotRepo) Insert(ctx context.Context, tenantID int64, in WriteInput) (Slot, error) {
	r.nextID++
	s := Slot{
		ID: r.nextID, TenantID: tenantID,
		EmployeeID: in.EmployeeID, ProjectID: in.ProjectID,
		StartsAt: in.StartsAt, EndsAt: in.EndsAt,
		Kind: in.Kind, Note: in.Note,
	}
	r.slots[s.ID] = &s
	return s, nil
}

func (r *memorySlotRepo) Update(ctx context.Context, tenantID, id int64, in WriteInput) (Slot, error) {
	s, ok := r.slots[id]
	if !ok || s.TenantID != tenantID {
		return Slot{}, httpx.ErrNotFound
	}
	s.EmployeeID = in.EmployeeID
	s.ProjectID = in.ProjectID
	s.StartsAt = in.StartsAt
	s.EndsAt = in.EndsAt
	s.Kind = in.Kind
	s.Note = in.Note
	return *s, nil
}

func (r *memorySlotRepo) Get(ctx context.Context, tenantID, id int64) (Slot, error) {
	s, ok := r.slots[id]
	if !ok || s.TenantID != tenantID {
		return Slot{}, httpx.ErrNotFound
	}
	return *s, nil
}

func (r *memorySlotRepo) ListRange(ctx context.Context, tenantID int64, from, to time.Time) ([]Slot, error) {
	var out []Slot
	for _, s := range r.slots {
		if s.TenantID == tenantID && s.StartsAt.Before(to) && s.EndsAt.After(from) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memorySlotRepo) Overlapping(ctx context.Context, tenantID, employeeID int64, start, end time.Time, excludeID int64) ([]Slot, error) {
	var out []Slot
	for _, s := range r.slots {
		if s.TenantID != tenantID || s.EmployeeID != employeeID || s.ID == excludeID {
			continue
		}
		if s.StartsAt.Before(end) && s.EndsAt.After(start) {
			out = append(out, *s)
		}
	}
	return out, nil
}

var caller = shared.Identity{TenantID: 1, UserID: 2, Role: shared.RoleMember}

func at(hour int) time.Time {
	return time.Date(2025, 5, 12, hour, 0, 0, 0, time.UTC)
}

func workSlot(employeeID int64, start, end time.Time) WriteInput {
	return WriteInput{EmployeeID: employeeID, ProjectID: 1, StartsAt: start, EndsAt: end, Kind: KindWork}
}

func TestCreateReportsOverlapWithoutBlocking(t *testing.T) {
	svc := NewService(newMemorySlotRepo())

	first, err := svc.Create(context.Background(), caller, workSlot(1, at(8), at(12)))
	require.NoError(t, err)
	require.Empty(t, first.Conflicts)

	// Overlapping slot is stored anyway, with the overlap reported.
	second, err := svc.Create(context.Background(), caller, workSlot(1, at(10), at(14)))
	require.NoError(t, err)
	require.Len(t, second.Conflicts, 1)
	require.Equal(t, first.Slot.ID, second.Conflicts[0].ID)
	require.NotZero(t, second.Slot.ID)
}

func TestBackToBackSlotsDoNotConflict(t *testing.T) {
	svc := NewService(newMemorySlotRepo())

	_, err := svc.Create(context.Background(), caller, workSlot(1, at(8), at(12)))
	require.NoError(t, err)

	adjacent, err := svc.Create(context.Background(), caller, workSlot(1, at(12), at(16)))
	require.NoError(t, err)
	require.Empty(t, adjacent.Conflicts)
}

func TestConflictsScopedToEmployee(t *testing.T) {
	svc := NewService(newMemorySlotRepo())

	_, err := svc.Create(context.Background(), caller, workSlot(1, at(8), at(12)))
	require.NoError(t, err)

	other, err := svc.Create(context.Background(), caller, workSlot(2, at(8), at(12)))
	require.NoError(t, err)
	require.Empty(t, other.Conflicts)
}

func TestMoveExcludesSelfFromConflicts(t *testing.T) {
	svc := NewService(newMemorySlotRepo())

	created, err := svc.Create(context.Background(), caller, workSlot(1, at(8), at(12)))
	require.NoError(t, err)

	moved, err := svc.Move(context.Background(), caller, created.Slot.ID, workSlot(1, at(9), at(13)))
	require.NoError(t, err)
	require.Empty(t, moved.Conflicts)
	require.Equal(t, at(9), moved.Slot.StartsAt)
}

func TestAbsenceConflictsWithWork(t *testing.T) {
	svc := NewService(newMemorySlotRepo())

	_, err := svc.Create(context.Background(), caller, workSlot(1, at(8), at(16)))
	require.NoError(t, err)

	absence, err := svc.Create(context.Background(), caller, WriteInput{
		EmployeeID: 1, StartsAt: at(10), EndsAt: at(12), Kind: KindAbsence, Note: "dentist",
	})
	require.NoError(t, err)
	require.Len(t, absence.Conflicts, 1)
}

func TestFindConflictsCrossTenantEmpty(t *testing.T) {
	svc := NewService(newMemorySlotRepo())

	_, err := svc.Create(context.Background(), caller, workSlot(1, at(8), at(12)))
	require.NoError(t, err)

	foreign := shared.Identity{TenantID: 42, UserID: 9, Role: shared.RoleAdmin}
	conflicts, err := svc.FindConflicts(context.Background(), foreign, 1, at(8), at(12), 0)
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func TestWriteInputValidation(t *testing.T) {
	svc := NewService(newMemorySlotRepo())

	_, err := svc.Create(context.Background(), caller, workSlot(1, at(12), at(8)))
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), caller, WriteInput{
		EmployeeID: 1, StartsAt: at(8), EndsAt: at(12), Kind: KindWork,
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
