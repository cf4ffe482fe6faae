package timeentry

import (
	"context"
	"time"

	"github.com/byggbas/byggbas/internal/payroll"
)

// PayrollSource adapts time entries into the shape the payroll module
// consumes for validation and export.
type PayrollSource struct {
	repo Repository
}

// NewPayrollSource constructs the adapter.
func NewPayrollSource(repo Repository) *PayrollSource {
	return &PayrollSource{repo: repo}
}

// ListForPayroll implements payroll.TimeEntrySource.
func (s *PayrollSource) ListForPayroll(ctx context.Context, tenantID int64, start, end time.Time) ([]payroll.TimeEntry, error) {
	entries, err := s.repo.ListRangeWithEmployees(ctx, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]payroll.TimeEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, payroll.TimeEntry{
			ID:           e.ID,
			EmployeeID:   e.EmployeeID,
			EmployeeName: e.EmployeeName,
			ProjectID:    e.ProjectID,
			Date:         e.EntryDate,
			Hours:        e.Hours,
		})
	}
	return out, nil
}
