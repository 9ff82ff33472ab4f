package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ktoodev/onesignal-push-permissions/internal/i18n"
	"github.com/ktoodev/onesignal-push-permissions/internal/platform/httpx"
	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
)

// ActionField is the form field selecting the admin-post action.
const ActionField = "action"

// Handler serves admin pages, admin-post actions and the menu listing.
type Handler struct {
	menu    *Menu
	actions *Actions
	checker PermissionChecker
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(menu *Menu, actions *Actions, checker PermissionChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{menu: menu, actions: actions, checker: checker, logger: logger}
}

// MountRoutes registers admin routes. Pages and actions enforce their own
// capability so that each can answer with its own denial.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showPage)
	r.Post("/post", h.dispatchAction)
	r.Get("/menu", h.listMenu)
}

func (h *Handler) showPage(w http.ResponseWriter, r *http.Request) {
	page, ok := h.menu.Page(r.URL.Query().Get("page"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	page.Handler.ServeHTTP(w, r)
}

func (h *Handler) dispatchAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	name := r.PostFormValue(ActionField)
	action, ok := h.actions.Lookup(name)
	if !ok {
		h.logger.Warn("unknown admin action", slog.String("action", name))
		http.Error(w, i18n.T(i18n.FromRequest(r), i18n.MsgUnknownAdminAction), http.StatusBadRequest)
		return
	}
	action.ServeHTTP(w, r)
}

type menuEntry struct {
	Page
	URL string `json:"url"`
}

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	pages := h.menu.Visible(r.Context(), h.checker, principal.FromContext(r.Context()))
	entries := make([]menuEntry, 0, len(pages))
	for _, page := range pages {
		entries = append(entries, menuEntry{Page: page, URL: page.URL()})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": entries})
}
