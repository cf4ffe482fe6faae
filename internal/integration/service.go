package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/byggbas/byggbas/internal/invoice"
	"github.com/byggbas/byggbas/internal/shared"
)

// InvoiceSource provides the data a sync job pushes to the provider.
// Satisfied by the invoice repository.
type InvoiceSource interface {
	GetInvoice(ctx context.Context, tenantID, id int64) (invoice.Invoice, error)
	GetCustomer(ctx context.Context, tenantID, id int64) (invoice.Customer, error)
}

// Metrics receives sync queue observations.
type Metrics interface {
	SyncJobProcessed(provider, outcome string)
	WatchdogResets(count int64)
}

// Service orchestrates provider connections and the sync job queue.
type Service struct {
	repo        Repository
	invoices    InvoiceSource
	cipher      *TokenCipher
	client      ProviderClient
	metrics     Metrics
	logger      *slog.Logger
	maxAttempts int
	stuckAfter  time.Duration
	now         func() time.Time
}

// Options tunes queue behaviour.
type Options struct {
	MaxAttempts int
	StuckAfter  time.Duration
}

func NewService(repo Repository, invoices InvoiceSource, cipher *TokenCipher, client ProviderClient, metrics Metrics, logger *slog.Logger, opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.StuckAfter <= 0 {
		opts.StuckAfter = 10 * time.Minute
	}
	return &Service{
		repo:        repo,
		invoices:    invoices,
		cipher:      cipher,
		client:      client,
		metrics:     metrics,
		logger:      logger,
		maxAttempts: opts.MaxAttempts,
		stuckAfter:  opts.StuckAfter,
		now:         time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Connect stores a provider connection with its tokens encrypted.
func (s *Service) Connect(ctx context.Context, identity shared.Identity, in ConnectInput) (Integration, error) {
	if err := in.Validate(); err != nil {
		return Integration{}, err
	}
	access, err := s.cipher.Encrypt(in.AccessToken)
	if err != nil {
		return Integration{}, err
	}
	var refresh string
	if in.RefreshToken != "" {
		if refresh, err = s.cipher.Encrypt(in.RefreshToken); err != nil {
			return Integration{}, err
		}
	}
	return s.repo.InsertIntegration(ctx, Integration{
		TenantID:       identity.TenantID,
		Provider:       in.Provider,
		AccessToken:    access,
		RefreshToken:   refresh,
		TokenExpiresAt: in.TokenExpiresAt,
	})
}

func (s *Service) List(ctx context.Context, identity shared.Identity) ([]Integration, error) {
	return s.repo.ListIntegrations(ctx, identity.TenantID)
}

// EnqueueInvoiceSync queues an invoice push. The job row is the unit of
// retry; nothing is called synchronously here.
func (s *Service) EnqueueInvoiceSync(ctx context.Context, identity shared.Identity, integrationID, invoiceID int64) (SyncJob, error) {
	if _, err := s.repo.GetIntegration(ctx, identity.TenantID, integrationID); err != nil {
		return SyncJob{}, err
	}
	if _, err := s.invoices.GetInvoice(ctx, identity.TenantID, invoiceID); err != nil {
		return SyncJob{}, err
	}
	return s.repo.InsertJob(ctx, SyncJob{
		TenantID:      identity.TenantID,
		IntegrationID: integrationID,
		Kind:          JobInvoice,
		ResourceID:    invoiceID,
		MaxAttempts:   s.maxAttempts,
	})
}

// EnqueueCustomerSync queues a customer push. Ownership of both the
// integration and the customer is checked before anything is queued.
func (s *Service) EnqueueCustomerSync(ctx context.Context, identity shared.Identity, integrationID, customerID int64) (SyncJob, error) {
	if _, err := s.repo.GetIntegration(ctx, identity.TenantID, integrationID); err != nil {
		return SyncJob{}, err
	}
	if _, err := s.invoices.GetCustomer(ctx, identity.TenantID, customerID); err != nil {
		return SyncJob{}, err
	}
	return s.repo.InsertJob(ctx, SyncJob{
		TenantID:      identity.TenantID,
		IntegrationID: integrationID,
		Kind:          JobCustomer,
		ResourceID:    customerID,
		MaxAttempts:   s.maxAttempts,
	})
}

func (s *Service) ListJobs(ctx context.Context, identity shared.Identity, limit, offset int) ([]SyncJob, error) {
	return s.repo.ListJobs(ctx, identity.TenantID, limit, offset)
}

// DispatchPending drains the pending queue. Each claim is a status-guarded
// update, so concurrent workers skip each other's jobs. The cutoff is fixed
// at sweep start: a job that fails and requeues inside this sweep is not
// eligible again until the next one.
func (s *Service) DispatchPending(ctx context.Context) error {
	cutoff := s.now()
	for {
		processed, err := s.dispatchOne(ctx, cutoff)
		if err != nil {
			return err
		}
		if !processed {
			return nil
		}
	}
}

func (s *Service) dispatchOne(ctx context.Context, cutoff time.Time) (bool, error) {
	job, err := s.repo.ClaimPendingJob(ctx, cutoff)
	if errors.Is(err, ErrNoPendingJobs) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	provider, pushErr := s.process(ctx, job)
	if pushErr == nil {
		if err := s.repo.MarkJobSuccess(ctx, job.ID); err != nil {
			return false, err
		}
		s.observe(provider, "success")
		return true, nil
	}

	requeued, err := s.repo.RequeueJob(ctx, job.ID, pushErr.Error())
	if err != nil {
		return false, err
	}
	outcome := "failed"
	if requeued.Status == JobDead {
		outcome = "dead"
	}
	s.observe(provider, outcome)
	s.logger.Warn("sync job failed",
		slog.Int64("job_id", job.ID),
		slog.Int("attempts", requeued.Attempts),
		slog.String("status", string(requeued.Status)),
		slog.Any("error", pushErr))
	return true, nil
}

func (s *Service) process(ctx context.Context, job SyncJob) (Provider, error) {
	integ, err := s.repo.GetIntegration(ctx, job.TenantID, job.IntegrationID)
	if err != nil {
		return "", err
	}
	token, err := s.cipher.Decrypt(integ.AccessToken)
	if err != nil {
		return integ.Provider, err
	}
	switch job.Kind {
	case JobInvoice:
		return integ.Provider, s.pushInvoice(ctx, integ, token, job)
	case JobCustomer:
		return integ.Provider, s.pushCustomer(ctx, integ, token, job)
	default:
		return integ.Provider, fmt.Errorf("integration: unknown job kind %q", job.Kind)
	}
}

func (s *Service) pushInvoice(ctx context.Context, integ Integration, token string, job SyncJob) error {
	inv, err := s.invoices.GetInvoice(ctx, job.TenantID, job.ResourceID)
	if err != nil {
		return err
	}
	cust, err := s.invoices.GetCustomer(ctx, job.TenantID, inv.CustomerID)
	if err != nil {
		return err
	}
	payload, err := MapInvoice(integ.Provider, inv, cust)
	if err != nil {
		return err
	}
	return s.client.PushInvoice(ctx, integ.Provider, token, payload)
}

func (s *Service) pushCustomer(ctx context.Context, integ Integration, token string, job SyncJob) error {
	cust, err := s.invoices.GetCustomer(ctx, job.TenantID, job.ResourceID)
	if err != nil {
		return err
	}
	payload, err := MapCustomer(integ.Provider, cust)
	if err != nil {
		return err
	}
	return s.client.PushCustomer(ctx, integ.Provider, token, payload)
}

// Watchdog resets jobs stuck in processing past the threshold back to
// pending. No ownership token exists, so a slow worker's job can be reset
// under it; the metrics counter makes that visible.
func (s *Service) Watchdog(ctx context.Context) (int64, error) {
	reset, err := s.repo.ResetStuckJobs(ctx, s.now().Add(-s.stuckAfter))
	if err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.WatchdogResets(reset)
	}
	if reset > 0 {
		s.logger.Warn("watchdog reset stuck sync jobs", slog.Int64("count", reset))
	}
	return reset, nil
}

func (s *Service) observe(provider Provider, outcome string) {
	if s.metrics != nil {
		s.metrics.SyncJobProcessed(string(provider), outcome)
	}
}
