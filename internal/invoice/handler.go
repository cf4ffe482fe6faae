package invoice

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/byggbas/byggbas/internal/platform/httpx"
	"github.com/byggbas/byggbas/internal/shared"
)

// Handler exposes invoice reads and the quote workflow.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountInvoiceRoutes registers the invoice read endpoints.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Get("/", h.listInvoices)
	r.Get("/{id}", h.getInvoice)
}

// MountQuoteRoutes registers the quote endpoints.
func (h *Handler) MountQuoteRoutes(r chi.Router) {
	r.Get("/", h.listQuotes)
	r.Post("/", h.createQuote)
	r.Post("/{id}/approve", h.quoteAction(func(s *Service) quoteAction { return s.Approve }))
	r.Post("/{id}/decline", h.quoteAction(func(s *Service) quoteAction { return s.Decline }))
	r.Post("/{id}/duplicate", h.quoteAction(func(s *Service) quoteAction { return s.Duplicate }))
	r.Post("/{id}/revoke-link", h.quoteAction(func(s *Service) quoteAction { return s.RevokeLink }))
	r.Post("/{id}/convert", h.convertQuote)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	page := shared.PaginationFromQuery(r.URL.Query())

	invoices, err := h.service.ListInvoices(r.Context(), identity, page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices, "page": page.WithCount(len(invoices))})
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

type createQuoteRequest struct {
	CustomerID int64   `json:"customer_id" validate:"required"`
	ValidUntil string  `json:"valid_until" validate:"required,datetime=2006-01-02"`
	Subtotal   float64 `json:"subtotal" validate:"gte=0"`
	VATAmount  float64 `json:"vat_amount" validate:"gte=0"`
}

func (h *Handler) createQuote(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	validUntil, _ := time.Parse("2006-01-02", req.ValidUntil)

	identity := shared.IdentityFromContext(r.Context())
	quote, err := h.service.CreateQuote(r.Context(), identity, CreateQuoteInput{
		CustomerID: req.CustomerID,
		ValidUntil: validUntil,
		Subtotal:   decimal.NewFromFloat(req.Subtotal),
		VATAmount:  decimal.NewFromFloat(req.VATAmount),
	})
	if err != nil {
		h.logger.Error("create quote", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

func (h *Handler) listQuotes(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	page := shared.PaginationFromQuery(r.URL.Query())

	quotes, err := h.service.ListQuotes(r.Context(), identity, page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("list quotes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotes": quotes, "page": page.WithCount(len(quotes))})
}

type quoteAction func(ctx context.Context, identity shared.Identity, id int64) (Quote, error)

func (h *Handler) quoteAction(pick func(*Service) quoteAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
			return
		}
		quote, err := pick(h.service)(r.Context(), identity, id)
		if err != nil {
			h.logger.Error("quote action", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, quote)
	}
}

func (h *Handler) convertQuote(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid quote id")
		return
	}
	quote, inv, err := h.service.Convert(r.Context(), identity, id)
	if err != nil {
		h.logger.Error("convert quote", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quote": quote, "invoice": inv})
}
