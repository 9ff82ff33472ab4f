package principal

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ktoodev/onesignal-push-permissions/internal/i18n"
	"github.com/ktoodev/onesignal-push-permissions/internal/shared"
)

// Middleware attaches the session principal to browser requests.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// Load resolves the session user, if any, and stores it on the request
// context. Anonymous requests pass through without a principal.
func (m Middleware) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := m.Resolver.FromSession(r.Context(), shared.SessionFromContext(r.Context()))
		switch {
		case err == nil:
			r = r.WithContext(WithPrincipal(r.Context(), p))
		case errors.Is(err, ErrAnonymous):
		default:
			m.logger().Error("resolve principal", slog.String("path", r.URL.Path), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser stops anonymous requests. Page reads are sent to the login
// page; any other method ends with AccessDenied.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		m.logger().Warn("anonymous admin request denied", slog.String("method", r.Method), slog.String("path", r.URL.Path))
		http.Error(w, i18n.T(i18n.FromRequest(r), i18n.MsgAccessDenied), http.StatusForbidden)
	})
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
