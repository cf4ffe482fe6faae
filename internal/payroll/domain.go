// Package payroll implements the payroll period lifecycle: open periods are
// locked against a validated set of time entries, locked periods are exported
// to a salary provider file, and admins can unwind a lock.
package payroll

import (
	"errors"
	"fmt"
	"time"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// PeriodStatus enumerates payroll period lifecycle stages.
type PeriodStatus string

const (
	StatusOpen     PeriodStatus = "open"
	StatusLocked   PeriodStatus = "locked"
	StatusExported PeriodStatus = "exported"
	StatusFailed   PeriodStatus = "failed"
)

// ExportFormat selects the salary provider file rendering.
type ExportFormat string

const (
	FormatPAXML ExportFormat = "paxml"
	FormatCSV   ExportFormat = "csv"
)

// Period is a date-ranged payroll batch owned by a tenant.
type Period struct {
	ID              int64        `json:"id"`
	TenantID        int64        `json:"tenant_id"`
	StartDate       time.Time    `json:"start_date"`
	EndDate         time.Time    `json:"end_date"`
	Status          PeriodStatus `json:"status"`
	LockedAt        *time.Time   `json:"locked_at,omitempty"`
	LockedBy        *int64       `json:"locked_by,omitempty"`
	ExportedAt      *time.Time   `json:"exported_at,omitempty"`
	ExportedBy      *int64       `json:"exported_by,omitempty"`
	LastExportError string       `json:"last_export_error,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// CreatePeriodInput captures validation rules for new periods.
type CreatePeriodInput struct {
	StartDate time.Time
	EndDate   time.Time
}

// Validate ensures the period range is coherent.
func (in CreatePeriodInput) Validate() error {
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end date required", httpx.ErrValidation)
	}
	if in.StartDate.After(in.EndDate) {
		return fmt.Errorf("%w: start date cannot be after end date", httpx.ErrValidation)
	}
	return nil
}

// FindingSeverity separates blocking problems from force-lockable ones.
type FindingSeverity string

const (
	SeverityError   FindingSeverity = "error"
	SeverityWarning FindingSeverity = "warning"
)

// Finding describes one problem discovered during lock validation.
type Finding struct {
	EntryID  int64           `json:"entry_id"`
	Severity FindingSeverity `json:"severity"`
	Message  string          `json:"message"`
}

// ValidationResult collects lock validation findings.
type ValidationResult struct {
	Findings []Finding `json:"findings"`
}

// HasErrors reports whether any blocking finding exists.
func (v ValidationResult) HasErrors() bool {
	for _, f := range v.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any non-blocking finding exists.
func (v ValidationResult) HasWarnings() bool {
	for _, f := range v.Findings {
		if f.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// StateConflictError is the typed result of a failed status-guarded update:
// the period was not in any of the expected states.
type StateConflictError struct {
	PeriodID int64
	Expected []PeriodStatus
	Actual   PeriodStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("payroll: period %d is %s, expected %v", e.PeriodID, e.Actual, e.Expected)
}

// Is maps the conflict onto the shared 409 sentinel.
func (e *StateConflictError) Is(target error) bool {
	return target == httpx.ErrStateConflict
}

// ErrPeriodOverlap indicates the requested range collides with an existing
// period of the same tenant.
var ErrPeriodOverlap = fmt.Errorf("%w: payroll period overlaps existing range", httpx.ErrStateConflict)

// ErrValidationBlocked is returned when lock validation found errors.
var ErrValidationBlocked = errors.New("payroll: validation failed with errors")

// ErrWarningsNeedForce is returned when warnings exist and force was not set.
var ErrWarningsNeedForce = errors.New("payroll: validation produced warnings, force required")

// ErrForceRequiresAdmin is returned when a non-admin attempts a force lock.
var ErrForceRequiresAdmin = fmt.Errorf("%w: force lock requires admin role", httpx.ErrForbidden)
