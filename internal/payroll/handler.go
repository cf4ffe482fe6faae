package payroll

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/byggbas/byggbas/internal/platform/httpx"
	"github.com/byggbas/byggbas/internal/shared"
)

// Handler exposes the payroll period endpoints.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	validate     *validator.Validate
	requireAdmin func(http.Handler) http.Handler
}

// NewHandler builds a Handler instance. requireAdmin guards unlock.
func NewHandler(logger *slog.Logger, service *Service, requireAdmin func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), requireAdmin: requireAdmin}
}

// MountRoutes registers payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/periods", h.listPeriods)
	r.Post("/periods", h.createPeriod)
	r.Get("/periods/{id}", h.getPeriod)
	r.Post("/periods/{id}/lock", h.lockPeriod)
	r.Post("/periods/{id}/export", h.exportPeriod)
	r.Group(func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/periods/{id}/unlock", h.unlockPeriod)
	})
}

type createPeriodRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) createPeriod(w http.ResponseWriter, r *http.Request) {
	var req createPeriodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)

	identity := shared.IdentityFromContext(r.Context())
	period, err := h.service.CreatePeriod(r.Context(), identity, CreatePeriodInput{StartDate: start, EndDate: end})
	if err != nil {
		h.logger.Error("create payroll period", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, period)
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	page := shared.PaginationFromQuery(r.URL.Query())

	periods, err := h.service.ListPeriods(r.Context(), identity, page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("list payroll periods", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"periods": periods, "page": page.WithCount(len(periods))})
}

func (h *Handler) getPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := periodID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period id")
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	period, err := h.service.GetPeriod(r.Context(), identity, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

type lockPeriodRequest struct {
	Force bool `json:"force"`
}

func (h *Handler) lockPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := periodID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period id")
		return
	}
	var req lockPeriodRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}

	identity := shared.IdentityFromContext(r.Context())
	period, result, err := h.service.Lock(r.Context(), identity, id, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidationBlocked):
			httpx.ProblemWithExtra(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error(),
				map[string]any{"findings": result.Findings})
		case errors.Is(err, ErrWarningsNeedForce):
			httpx.ProblemWithExtra(w, http.StatusUnprocessableEntity, "Warnings Present", err.Error(),
				map[string]any{"findings": result.Findings})
		default:
			h.logger.Error("lock payroll period", slog.Any("error", err), slog.Int64("period_id", id))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"period": period, "findings": result.Findings})
}

func (h *Handler) unlockPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := periodID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period id")
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	period, err := h.service.Unlock(r.Context(), identity, id)
	if err != nil {
		h.logger.Error("unlock payroll period", slog.Any("error", err), slog.Int64("period_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

type exportPeriodRequest struct {
	Format string `json:"format" validate:"required,oneof=paxml csv"`
}

func (h *Handler) exportPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := periodID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period id")
		return
	}
	var req exportPeriodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	identity := shared.IdentityFromContext(r.Context())
	_, file, err := h.service.Export(r.Context(), identity, id, ExportFormat(req.Format))
	if err != nil {
		h.logger.Error("export payroll period", slog.Any("error", err), slog.Int64("period_id", id))
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}

func periodID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
