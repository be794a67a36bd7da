package controllers

import (
	"net/http"

	"github.com/khauni/homepage/api/responses"
	"github.com/khauni/homepage/api/validators"
	"github.com/khauni/homepage/internal/activity"
	"github.com/khauni/homepage/pkg/logger"
)

func ActivityGet(holder *activity.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, holder.Get())
	}
}

// ActivityUpdate replaces the "currently doing" line shown on the homepage.
func ActivityUpdate(holder *activity.Holder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body activity.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := holder.Set(body.Text)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
