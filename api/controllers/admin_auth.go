package controllers

import (
	"net/http"
	"time"

	"github.com/khauni/homepage/api/responses"
	"github.com/khauni/homepage/api/validators"
	pkgAuth "github.com/khauni/homepage/pkg/auth"
	"github.com/khauni/homepage/pkg/config"
	pkgerrors "github.com/khauni/homepage/pkg/errors"
	"github.com/khauni/homepage/pkg/logger"
	"github.com/khauni/homepage/pkg/security"
	"github.com/khauni/homepage/pkg/types"
)

// AdminLogin exchanges the admin password for a short-lived bearer token.
func AdminLogin(cfg config.AdminConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !cfg.Enabled() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "admin login is disabled"))
			return
		}

		var body types.AdminLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ok, err := security.VerifyPassword(body.Password, cfg.PasswordHash)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify admin password"))
			return
		}
		if !ok {
			logg.Warn(ctx, "admin.login.rejected")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid password"))
			return
		}

		token, expiresAt, err := pkgAuth.MintAdminToken(cfg, time.Now())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint admin token"))
			return
		}

		logg.Info(ctx, "admin.login.success")
		responses.WriteSuccess(w, types.AdminLoginResponse{Token: token, ExpiresAt: expiresAt})
	}
}
