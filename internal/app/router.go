package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/byggbas/byggbas/internal/auth"
	"github.com/byggbas/byggbas/internal/integration"
	"github.com/byggbas/byggbas/internal/invoice"
	"github.com/byggbas/byggbas/internal/observability"
	"github.com/byggbas/byggbas/internal/payroll"
	"github.com/byggbas/byggbas/internal/rot"
	"github.com/byggbas/byggbas/internal/schedule"
	"github.com/byggbas/byggbas/internal/timeentry"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	Auth               auth.Middleware
	AuthHandler        *auth.Handler
	PayrollHandler     *payroll.Handler
	TimeEntryHandler   *timeentry.Handler
	ScheduleHandler    *schedule.Handler
	RotHandler         *rot.Handler
	InvoiceHandler     *invoice.Handler
	IntegrationHandler *integration.Handler
	WebhookHandler     *integration.WebhookHandler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router. Login, webhooks, health and metrics
// are public; everything else sits behind the bearer token middleware.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.WebhookHandler != nil {
		r.Route("/webhooks", params.WebhookHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		r.Use(params.Auth.Authenticate)

		if params.PayrollHandler != nil {
			r.Route("/payroll", params.PayrollHandler.MountRoutes)
		}
		if params.TimeEntryHandler != nil {
			r.Route("/time-entries", params.TimeEntryHandler.MountRoutes)
		}
		if params.ScheduleHandler != nil {
			r.Route("/schedule", params.ScheduleHandler.MountRoutes)
		}
		if params.RotHandler != nil {
			r.Route("/rot", params.RotHandler.MountRoutes)
		}
		if params.InvoiceHandler != nil {
			r.Route("/invoices", params.InvoiceHandler.MountInvoiceRoutes)
			r.Route("/quotes", params.InvoiceHandler.MountQuoteRoutes)
		}
		if params.IntegrationHandler != nil {
			r.Route("/integrations", params.IntegrationHandler.MountRoutes)
			r.Route("/sync-jobs", params.IntegrationHandler.MountJobRoutes)
		}
	})

	return r
}
