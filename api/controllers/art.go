package controllers

import (
	"net/http"

	"github.com/khauni/homepage/api/responses"
	"github.com/khauni/homepage/api/validators"
	"github.com/khauni/homepage/internal/art"
	"github.com/khauni/homepage/pkg/logger"
)

func ArtGet(svc *art.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Current(r.Context()))
	}
}

func ArtUpdate(svc *art.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body art.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		piece, err := svc.Replace(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, piece)
	}
}
