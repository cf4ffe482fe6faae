package schedule

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/byggbas/byggbas/internal/platform/httpx"
	"github.com/byggbas/byggbas/internal/shared"
)

// Handler exposes the schedule endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers schedule routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/slots", h.listSlots)
	r.Post("/slots", h.createSlot)
	r.Put("/slots/{id}", h.moveSlot)
	r.Get("/conflicts", h.findConflicts)
}

type writeSlotRequest struct {
	EmployeeID int64  `json:"employee_id" validate:"required"`
	ProjectID  int64  `json:"project_id"`
	StartsAt   string `json:"starts_at" validate:"required"`
	EndsAt     string `json:"ends_at" validate:"required"`
	Kind       string `json:"kind" validate:"required,oneof=work absence"`
	Note       string `json:"note"`
}

func (req writeSlotRequest) toInput() (WriteInput, error) {
	starts, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return WriteInput{}, err
	}
	ends, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return WriteInput{}, err
	}
	return WriteInput{
		EmployeeID: req.EmployeeID,
		ProjectID:  req.ProjectID,
		StartsAt:   starts,
		EndsAt:     ends,
		Kind:       SlotKind(req.Kind),
		Note:       req.Note,
	}, nil
}

func (h *Handler) createSlot(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeWrite(w, r)
	if !ok {
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	result, err := h.service.Create(r.Context(), identity, in)
	if err != nil {
		h.logger.Error("create schedule slot", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) moveSlot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid slot id")
		return
	}
	in, ok := h.decodeWrite(w, r)
	if !ok {
		return
	}
	identity := shared.IdentityFromContext(r.Context())
	result, err := h.service.Move(r.Context(), identity, id, in)
	if err != nil {
		h.logger.Error("move schedule slot", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) decodeWrite(w http.ResponseWriter, r *http.Request) (WriteInput, bool) {
	var req writeSlotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return WriteInput{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return WriteInput{}, false
	}
	in, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "timestamps must be RFC 3339")
		return WriteInput{}, false
	}
	return in, true
}

func (h *Handler) listSlots(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from must be RFC 3339")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "to must be RFC 3339")
		return
	}

	slots, err := h.service.List(r.Context(), identity, from, to)
	if err != nil {
		h.logger.Error("list schedule slots", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (h *Handler) findConflicts(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	q := r.URL.Query()

	employeeID, err := strconv.ParseInt(q.Get("employee_id"), 10, 64)
	if err != nil || employeeID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "employee_id is required")
		return
	}
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "start must be RFC 3339")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "end must be RFC 3339")
		return
	}
	var excludeID int64
	if raw := q.Get("exclude_id"); raw != "" {
		excludeID, _ = strconv.ParseInt(raw, 10, 64)
	}

	conflicts, err := h.service.FindConflicts(r.Context(), identity, employeeID, start, end, excludeID)
	if err != nil {
		h.logger.Error("find schedule conflicts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}
