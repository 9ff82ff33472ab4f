package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ktoodev/onesignal-push-permissions/internal/admin"
	"github.com/ktoodev/onesignal-push-permissions/internal/auth"
	"github.com/ktoodev/onesignal-push-permissions/internal/hooks"
	"github.com/ktoodev/onesignal-push-permissions/internal/observability"
	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
	"github.com/ktoodev/onesignal-push-permissions/internal/shared"
	"github.com/ktoodev/onesignal-push-permissions/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler         *auth.Handler
	AdminHandler        *admin.Handler
	PrincipalMiddleware principal.Middleware
	HooksHandler        *hooks.Handler
	HookAuth            func(http.Handler) http.Handler
}

// LandingPath is where signed-in users start.
const LandingPath = "/admin?page=push-notification-permissions"

// NewRouter constructs the chi.Router. Browser routes carry a cookie session;
// hook routes authenticate with a bearer token and never touch sessions.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	mwCfg := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}
	for _, mw := range MiddlewareStack(mwCfg) {
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

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(mwCfg))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
				return
			}
			http.Redirect(w, r, LandingPath, http.StatusSeeOther)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(CSRFMiddleware(mwCfg))
			params.AuthHandler.MountRoutes(r)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(params.PrincipalMiddleware.Load)
			r.Use(params.PrincipalMiddleware.RequireUser)
			params.AdminHandler.MountRoutes(r)
		})
	})

	if params.HooksHandler != nil {
		r.Route("/hooks", func(r chi.Router) {
			r.Use(params.HookAuth)
			params.HooksHandler.MountRoutes(r)
		})
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler sets a one hour browser cache on static assets.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
