package middleware

import (
	"net/http"

	"github.com/khauni/homepage/api/responses"
	"github.com/khauni/homepage/api/validators"
	pkgAuth "github.com/khauni/homepage/pkg/auth"
	"github.com/khauni/homepage/pkg/config"
	pkgerrors "github.com/khauni/homepage/pkg/errors"
	"github.com/khauni/homepage/pkg/logger"
)

// AdminAuth requires a valid admin bearer token. When no admin password is
// configured the site runs open and requests pass straight through.
func AdminAuth(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAdminToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithRole(r.Context(), claims.Role)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"actor_role": claims.Role,
					"token_id":   claims.ID,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
