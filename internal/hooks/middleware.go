package hooks

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ktoodev/onesignal-push-permissions/internal/platform/httpx"
	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
)

// Authenticate resolves the principal named by the bearer token. Requests
// without a valid token never reach next.
func Authenticate(tokens *TokenManager, resolver *principal.Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := tokens.Parse(bearer(r))
			if err != nil {
				logger.Warn("hook token rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			p, err := resolver.Resolve(r.Context(), userID)
			if err != nil {
				if errors.Is(err, principal.ErrAnonymous) {
					httpx.RespondError(w, httpx.ErrUnauthorized)
					return
				}
				logger.Error("hook principal", slog.Int64("user_id", userID), slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(principal.WithPrincipal(r.Context(), p)))
		})
	}
}

func bearer(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
