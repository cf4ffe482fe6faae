package integration

import (
	"fmt"
	"time"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

// Provider identifies an external accounting system.
type Provider string

const (
	ProviderFortnox Provider = "fortnox"
	ProviderVisma   Provider = "visma"
)

func (p Provider) Valid() bool {
	return p == ProviderFortnox || p == ProviderVisma
}

// Integration is a tenant's connection to an accounting provider. Tokens are
// AES-256-GCM encrypted before they reach the database; the plaintext never
// leaves the service layer.
type Integration struct {
	ID             int64     `json:"id"`
	TenantID       int64     `json:"tenant_id"`
	Provider       Provider  `json:"provider"`
	AccessToken    string    `json:"-"`
	RefreshToken   string    `json:"-"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// JobKind names what a sync job pushes to the provider.
type JobKind string

const (
	JobInvoice  JobKind = "invoice"
	JobCustomer JobKind = "customer"
)

// JobStatus tracks a sync job through the queue.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobSuccess    JobStatus = "success"
	JobFailed     JobStatus = "failed"
	JobDead       JobStatus = "dead"
)

// SyncJob is one queued push to a provider. Failures requeue the job with
// attempts incremented; past MaxAttempts it goes to dead and stays there.
type SyncJob struct {
	ID            int64     `json:"id"`
	TenantID      int64     `json:"tenant_id"`
	IntegrationID int64     `json:"integration_id"`
	Kind          JobKind   `json:"kind"`
	ResourceID    int64     `json:"resource_id"`
	Status        JobStatus `json:"status"`
	Attempts      int       `json:"attempts"`
	MaxAttempts   int       `json:"max_attempts"`
	LastError     string    `json:"last_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ConnectInput carries the OAuth material for a new integration.
type ConnectInput struct {
	Provider       Provider
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
}

func (in ConnectInput) Validate() error {
	if !in.Provider.Valid() {
		return fmt.Errorf("integration: provider must be fortnox or visma: %w", httpx.ErrValidation)
	}
	if in.AccessToken == "" {
		return fmt.Errorf("integration: access_token is required: %w", httpx.ErrValidation)
	}
	return nil
}

// ErrNoPendingJobs reports that the dispatch sweep found nothing to claim.
var ErrNoPendingJobs = fmt.Errorf("integration: no pending jobs")
