package rot

import (
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

// Handler exposes the ROT/RUT deduction endpoints.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	validate     *validator.Validate
	requireAdmin func(http.Handler) http.Handler
}

// NewHandler builds a Handler instance. requireAdmin guards outcome recording.
func NewHandler(logger *slog.Logger, service *Service, requireAdmin func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), requireAdmin: requireAdmin}
}

// MountRoutes registers deduction routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/deductions", h.listDeductions)
	r.Post("/deductions", h.createDeduction)
	r.Get("/deductions/{id}", h.getDeduction)
	r.Get("/deductions/{id}/xml", h.deductionXML)
	r.Post("/deductions/{id}/queue", h.queueDeduction)
	r.Group(func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/deductions/{id}/outcome", h.recordOutcome)
	})
}

type createDeductionRequest struct {
	InvoiceID           int64   `json:"invoice_id" validate:"required"`
	Kind                string  `json:"kind" validate:"required,oneof=ROT RUT"`
	InvoiceDate         string  `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	LaborAmountSEK      float64 `json:"labor_amount_sek" validate:"required,gt=0"`
	MaterialAmountSEK   float64 `json:"material_amount_sek" validate:"gte=0"`
	BuyerPersonalNumber string  `json:"buyer_personal_number" validate:"required"`
	PropertyDesignation string  `json:"property_designation"`
}

func (h *Handler) createDeduction(w http.ResponseWriter, r *http.Request) {
	var req createDeductionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	invoiceDate, _ := time.Parse("2006-01-02", req.InvoiceDate)

	identity := shared.IdentityFromContext(r.Context())
	deduction, err := h.service.Create(r.Context(), identity, CreateDeductionInput{
		InvoiceID:           req.InvoiceID,
		Kind:                Kind(req.Kind),
		InvoiceDate:         invoiceDate,
		LaborAmount:         decimal.NewFromFloat(req.LaborAmountSEK),
		MaterialAmount:      decimal.NewFromFloat(req.MaterialAmountSEK),
		BuyerPersonalNumber: req.BuyerPersonalNumber,
		PropertyDesignation: req.PropertyDesignation,
	})
	if err != nil {
		h.logger.Error("create deduction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, deduction)
}

func (h *Handler) listDeductions(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	page := shared.PaginationFromQuery(r.URL.Query())

	deductions, err := h.service.List(r.Context(), identity, page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("list deductions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deductions": deductions, "page": page.WithCount(len(deductions))})
}

func (h *Handler) getDeduction(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid deduction id")
		return
	}
	deduction, err := h.service.Get(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, deduction)
}

func (h *Handler) deductionXML(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid deduction id")
		return
	}
	payload, err := h.service.XML(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handler) queueDeduction(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid deduction id")
		return
	}
	deduction, err := h.service.Queue(r.Context(), identity, id)
	if err != nil {
		h.logger.Error("queue deduction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, deduction)
}

type outcomeRequest struct {
	Status string `json:"status" validate:"required,oneof=submitted accepted rejected"`
}

func (h *Handler) recordOutcome(w http.ResponseWriter, r *http.Request) {
	var req outcomeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid deduction id")
		return
	}
	deduction, err := h.service.RecordOutcome(r.Context(), identity, id, DeductionStatus(req.Status))
	if err != nil {
		h.logger.Error("record deduction outcome", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, deduction)
}
