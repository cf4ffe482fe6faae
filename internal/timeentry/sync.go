package timeentry

import (
	"context"
	"errors"
	"time"

	"github.com/byggbas/byggbas/internal/platform/httpx"
	"github.com/byggbas/byggbas/internal/shared"
)

// SyncRecord is one client-cached mutation queued while offline. UpdatedAt is
// kept as the raw client string so a malformed timestamp can be detected and
// resolved in favour of the server.
type SyncRecord struct {
	ID         int64   `json:"id"`
	ClientRef  string  `json:"client_ref"`
	EmployeeID int64   `json:"employee_id"`
	ProjectID  int64   `json:"project_id"`
	EntryDate  string  `json:"entry_date"`
	Hours      float64 `json:"hours"`
	Note       string  `json:"note"`
	UpdatedAt  string  `json:"updated_at"`
}

// Sync outcome codes.
const (
	OutcomeApplied    = "applied"
	OutcomeCreated    = "created"
	OutcomeKeptServer = "kept_server"
	OutcomeRejected   = "rejected"
)

// SyncOutcome reports the resolution of one replayed record.
type SyncOutcome struct {
	ClientRef string `json:"client_ref"`
	EntryID   int64  `json:"entry_id,omitempty"`
	Outcome   string `json:"outcome"`
	Detail    string `json:"detail,omitempty"`
}

// Sync replays queued offline mutations. New records (ID 0) are created;
// existing records go through last-write-wins against the server copy.
// Records under a locked payroll period are rejected regardless of winner.
func (s *Service) Sync(ctx context.Context, identity shared.Identity, records []SyncRecord) ([]SyncOutcome, error) {
	outcomes := make([]SyncOutcome, 0, len(records))
	for _, rec := range records {
		outcomes = append(outcomes, s.syncOne(ctx, identity, rec))
	}
	return outcomes, nil
}

func (s *Service) syncOne(ctx context.Context, identity shared.Identity, rec SyncRecord) SyncOutcome {
	out := SyncOutcome{ClientRef: rec.ClientRef, EntryID: rec.ID}

	entryDate, err := time.Parse("2006-01-02", rec.EntryDate)
	if err != nil {
		out.Outcome = OutcomeRejected
		out.Detail = "invalid entry_date"
		return out
	}
	in := WriteInput{
		EmployeeID: rec.EmployeeID,
		ProjectID:  rec.ProjectID,
		EntryDate:  entryDate,
		Hours:      rec.Hours,
		Note:       rec.Note,
	}

	if rec.ID == 0 {
		created, err := s.Create(ctx, identity, in)
		if err != nil {
			out.Outcome = OutcomeRejected
			out.Detail = syncDetail(err)
			return out
		}
		out.EntryID = created.ID
		out.Outcome = OutcomeCreated
		return out
	}

	server, err := s.repo.Get(ctx, identity.TenantID, rec.ID)
	if err != nil {
		out.Outcome = OutcomeRejected
		out.Detail = syncDetail(err)
		return out
	}

	if ResolveLWW(rec.UpdatedAt, server.UpdatedAt) == WinnerServer {
		out.Outcome = OutcomeKeptServer
		return out
	}

	if _, err := s.Update(ctx, identity, rec.ID, in); err != nil {
		out.Outcome = OutcomeRejected
		out.Detail = syncDetail(err)
		return out
	}
	out.Outcome = OutcomeApplied
	return out
}

func syncDetail(err error) string {
	switch {
	case errors.Is(err, ErrPeriodLocked):
		return "payroll period locked"
	case errors.Is(err, httpx.ErrNotFound):
		return "not found"
	case errors.Is(err, httpx.ErrValidation):
		return "validation failed"
	default:
		return "error"
	}
}
