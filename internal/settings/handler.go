package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ktoodev/onesignal-push-permissions/internal/admin"
	"github.com/ktoodev/onesignal-push-permissions/internal/capability"
	"github.com/ktoodev/onesignal-push-permissions/internal/i18n"
	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
	"github.com/ktoodev/onesignal-push-permissions/internal/shared"
	"github.com/ktoodev/onesignal-push-permissions/internal/view"
)

// Handler serves the settings page and its save action.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates}
}

// Register adds the page to the admin menu and binds the save action.
// saveMiddleware wraps the save action only.
func (h *Handler) Register(menu *admin.Menu, actions *admin.Actions, saveMiddleware ...func(http.Handler) http.Handler) error {
	err := menu.AddSubmenuPage(admin.Page{
		Parent:     ParentSlug,
		PageTitle:  i18n.MsgPageTitle,
		MenuTitle:  i18n.MsgMenuTitle,
		Capability: shared.CapManageOptions,
		Slug:       Slug,
		Handler:    http.HandlerFunc(h.showPage),
	})
	if err != nil {
		return err
	}
	var save http.Handler = http.HandlerFunc(h.save)
	for i := len(saveMiddleware) - 1; i >= 0; i-- {
		save = saveMiddleware[i](save)
	}
	return actions.Register(SaveAction, save)
}

type pageData struct {
	Roles      []capability.RoleCapability
	Saved      bool
	Nonce      string
	NonceField string
	Action     string
	RolesField string
}

func (h *Handler) showPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := shared.SessionFromContext(ctx)
	state, err := h.service.Load(ctx, principal.FromContext(ctx), sess)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	printer := i18n.FromRequest(r)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       i18n.T(printer, i18n.MsgPageTitle),
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Printer:     printer,
		Data: pageData{
			Roles:      state.Roles,
			Saved:      r.URL.Query().Get("saved") == "1",
			Nonce:      state.Nonce,
			NonceField: NonceField,
			Action:     SaveAction,
			RolesField: RolesField,
		},
	}
	if sess != nil {
		data.CSRFToken = sess.Get(shared.CSRFSessionKey)
	}
	if err := h.templates.Render(w, "pages/permissions.html", data); err != nil {
		h.logger.Error("render permissions", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	_, err := h.service.Save(ctx, SaveInput{
		Principal: principal.FromContext(ctx),
		Session:   shared.SessionFromContext(ctx),
		Token:     r.PostFormValue(NonceField),
		Roles:     r.PostForm[RolesField],
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin?page="+Slug+"&saved=1", http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	printer := i18n.FromRequest(r)
	var userID int64
	if p := principal.FromContext(r.Context()); p != nil {
		userID = p.UserID
	}
	switch {
	case errors.Is(err, shared.ErrAccessDenied):
		h.logger.Warn("settings access denied", slog.String("path", r.URL.Path), slog.Int64("user_id", userID))
		http.Error(w, i18n.T(printer, i18n.MsgAccessDenied), http.StatusForbidden)
	case errors.Is(err, shared.ErrAuthorizationDenied):
		h.logger.Warn("settings token rejected", slog.String("path", r.URL.Path), slog.Int64("user_id", userID), slog.Any("error", err))
		http.Error(w, i18n.T(printer, i18n.MsgNotAuthorized), http.StatusForbidden)
	default:
		h.logger.Error("settings", slog.String("path", r.URL.Path), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
