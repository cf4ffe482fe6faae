package timeentry

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

// Handler exposes time entry endpoints. dedupe guards the sync endpoint
// against clients replaying the same offline batch twice.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	dedupe   *shared.DedupeStore
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, dedupe *shared.DedupeStore) *Handler {
	return &Handler{logger: logger, service: service, dedupe: dedupe, validate: validator.New()}
}

// MountRoutes registers time entry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Post("/sync", h.sync)
}

type writeEntryRequest struct {
	EmployeeID int64   `json:"employee_id" validate:"required,gt=0"`
	ProjectID  int64   `json:"project_id" validate:"required,gt=0"`
	EntryDate  string  `json:"entry_date" validate:"required,datetime=2006-01-02"`
	Hours      float64 `json:"hours" validate:"required,gt=0,lte=24"`
	Note       string  `json:"note" validate:"max=500"`
}

func (h *Handler) decodeWrite(r *http.Request) (WriteInput, error) {
	var req writeEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return WriteInput{}, err
	}
	if err := h.validate.Struct(req); err != nil {
		return WriteInput{}, err
	}
	date, _ := time.Parse("2006-01-02", req.EntryDate)
	return WriteInput{
		EmployeeID: req.EmployeeID,
		ProjectID:  req.ProjectID,
		EntryDate:  date,
		Hours:      req.Hours,
		Note:       req.Note,
	}, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeWrite(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	entry, err := h.service.Create(r.Context(), identity, in)
	if err != nil {
		h.logger.Error("create time entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	in, err := h.decodeWrite(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	entry, err := h.service.Update(r.Context(), identity, id, in)
	if err != nil {
		h.logger.Error("update time entry", slog.Any("error", err), slog.Int64("entry_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from date required (YYYY-MM-DD)")
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to date required (YYYY-MM-DD)")
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	entries, err := h.service.List(r.Context(), identity, start, end)
	if err != nil {
		h.logger.Error("list time entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type syncRequest struct {
	Records []SyncRecord `json:"records" validate:"required,min=1,max=500"`
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity := shared.IdentityFromContext(r.Context())

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		if err := h.dedupe.Claim(r.Context(), identity.TenantID, idemKey); err != nil {
			if errors.Is(err, shared.ErrDuplicateRequest) {
				httpx.Problem(w, http.StatusConflict, "Duplicate Request", "this sync batch was already processed")
				return
			}
			h.logger.Warn("dedupe claim", slog.Any("error", err))
		}
	}

	outcomes, err := h.service.Sync(r.Context(), identity, req.Records)
	if err != nil {
		if idemKey != "" {
			_ = h.dedupe.Release(r.Context(), identity.TenantID, idemKey)
		}
		h.logger.Error("sync time entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": outcomes})
}
