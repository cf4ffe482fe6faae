// Package timeentry manages employee time records and the replay of
// offline-queued mutations against server state.
package timeentry

import (
	"fmt"
	"time"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// Entry is a single employee/project/date/hours record.
type Entry struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	EmployeeID int64     `json:"employee_id"`
	ProjectID  int64     `json:"project_id"`
	EntryDate  time.Time `json:"entry_date"`
	Hours      float64   `json:"hours"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WriteInput carries the mutable fields of an entry.
type WriteInput struct {
	EmployeeID int64
	ProjectID  int64
	EntryDate  time.Time
	Hours      float64
	Note       string
}

// Validate applies the basic shape rules. Hours above 24 are impossible for a
// single date; missing references are caught again at payroll lock time.
func (in WriteInput) Validate() error {
	if in.EntryDate.IsZero() {
		return fmt.Errorf("%w: entry date required", httpx.ErrValidation)
	}
	if in.Hours < 0 || in.Hours > 24 {
		return fmt.Errorf("%w: hours must be between 0 and 24", httpx.ErrValidation)
	}
	return nil
}

// ErrPeriodLocked indicates the entry date falls inside a locked or exported
// payroll period.
var ErrPeriodLocked = fmt.Errorf("%w: time entry belongs to a locked payroll period", httpx.ErrStateConflict)
