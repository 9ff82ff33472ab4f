package hooks

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ktoodev/onesignal-push-permissions/internal/gate"
	"github.com/ktoodev/onesignal-push-permissions/internal/platform/httpx"
	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
)

// Handler serves the hook endpoints.
type Handler struct {
	gate      *gate.Gate
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(g *gate.Gate, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{gate: g, validator: validator.New(), logger: logger}
}

// MountRoutes registers hook routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/onesignal_send_notification", h.filterNotification)
	r.Post("/add_meta_boxes", h.filterControls)
}

type sendNotificationRequest struct {
	Fields    gate.Fields    `json:"fields" validate:"required"`
	NewStatus string         `json:"new_status"`
	OldStatus string         `json:"old_status"`
	Post      map[string]any `json:"post"`
}

type sendNotificationResponse struct {
	Fields gate.Fields `json:"fields"`
}

type controlsRequest struct {
	Screen   string         `json:"screen" validate:"required"`
	Controls []gate.Control `json:"controls" validate:"dive"`
}

type controlsResponse struct {
	Screen   string         `json:"screen"`
	Controls []gate.Control `json:"controls"`
}

func (h *Handler) filterNotification(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if !h.decode(w, r, &req) {
		return
	}
	fields := h.gate.FilterNotification(r.Context(), principal.FromContext(r.Context()), gate.SendRequest{
		Fields:    req.Fields,
		NewStatus: req.NewStatus,
		OldStatus: req.OldStatus,
		Post:      req.Post,
	})
	httpx.JSON(w, http.StatusOK, sendNotificationResponse{Fields: fields})
}

func (h *Handler) filterControls(w http.ResponseWriter, r *http.Request) {
	var req controlsRequest
	if !h.decode(w, r, &req) {
		return
	}
	controls := h.gate.FilterControls(r.Context(), principal.FromContext(r.Context()), gate.Screen{
		ID:       req.Screen,
		Controls: req.Controls,
	})
	if controls == nil {
		controls = []gate.Control{}
	}
	httpx.JSON(w, http.StatusOK, controlsResponse{Screen: req.Screen, Controls: controls})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return false
	}
	return true
}
