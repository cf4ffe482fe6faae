package integration

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/byggbas/byggbas/internal/platform/httpx"
	"github.com/byggbas/byggbas/internal/shared"
)

// Handler exposes integration management and the sync job listing.
// notifyQueue, when set, nudges the worker after an enqueue so the job is
// picked up before the next cron tick.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validate    *validator.Validate
	notifyQueue func(context.Context) error
}

func NewHandler(logger *slog.Logger, service *Service, notifyQueue func(context.Context) error) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), notifyQueue: notifyQueue}
}

// MountRoutes registers integration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listIntegrations)
	r.Post("/", h.connect)
	r.Post("/{id}/sync-invoice/{invoiceID}", h.enqueueInvoiceSync)
	r.Post("/{id}/sync-customer/{customerID}", h.enqueueCustomerSync)
}

// MountJobRoutes registers the sync job listing.
func (h *Handler) MountJobRoutes(r chi.Router) {
	r.Get("/", h.listJobs)
}

type connectRequest struct {
	Provider       string `json:"provider" validate:"required,oneof=fortnox visma"`
	AccessToken    string `json:"access_token" validate:"required"`
	RefreshToken   string `json:"refresh_token"`
	TokenExpiresAt string `json:"token_expires_at"`
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var expiresAt time.Time
	if req.TokenExpiresAt != "" {
		var err error
		if expiresAt, err = time.Parse(time.RFC3339, req.TokenExpiresAt); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "token_expires_at must be RFC 3339")
			return
		}
	}

	identity := shared.IdentityFromContext(r.Context())
	integ, err := h.service.Connect(r.Context(), identity, ConnectInput{
		Provider:       Provider(req.Provider),
		AccessToken:    req.AccessToken,
		RefreshToken:   req.RefreshToken,
		TokenExpiresAt: expiresAt,
	})
	if err != nil {
		h.logger.Error("connect integration", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, integ)
}

func (h *Handler) listIntegrations(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	integrations, err := h.service.List(r.Context(), identity)
	if err != nil {
		h.logger.Error("list integrations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"integrations": integrations})
}

func (h *Handler) enqueueInvoiceSync(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	integrationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid integration id")
		return
	}
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}

	job, err := h.service.EnqueueInvoiceSync(r.Context(), identity, integrationID, invoiceID)
	if err != nil {
		h.logger.Error("enqueue invoice sync", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.nudgeQueue(r.Context())
	httpx.JSON(w, http.StatusAccepted, job)
}

func (h *Handler) enqueueCustomerSync(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	integrationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid integration id")
		return
	}
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid customer id")
		return
	}

	job, err := h.service.EnqueueCustomerSync(r.Context(), identity, integrationID, customerID)
	if err != nil {
		h.logger.Error("enqueue customer sync", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.nudgeQueue(r.Context())
	httpx.JSON(w, http.StatusAccepted, job)
}

func (h *Handler) nudgeQueue(ctx context.Context) {
	if h.notifyQueue == nil {
		return
	}
	if err := h.notifyQueue(ctx); err != nil {
		h.logger.Warn("notify sync queue", slog.Any("error", err))
	}
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	page := shared.PaginationFromQuery(r.URL.Query())

	jobs, err := h.service.ListJobs(r.Context(), identity, page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("list sync jobs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"jobs": jobs, "page": page.WithCount(len(jobs))})
}
