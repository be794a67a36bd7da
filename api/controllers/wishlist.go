package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/khauni/homepage/api/responses"
	"github.com/khauni/homepage/api/validators"
	"github.com/khauni/homepage/internal/wishlist"
	pkgerrors "github.com/khauni/homepage/pkg/errors"
	"github.com/khauni/homepage/pkg/logger"
)

// WishlistList returns every item, newest first unless ?order=insertion.
func WishlistList(store wishlist.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		order, err := wishlist.ParseOrder(r.URL.Query().Get("order"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order").
				WithDetails(map[string]any{"order": "must be newest or insertion"}))
			return
		}

		items, err := store.List(ctx, wishlist.ListOptions{Order: order})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func WishlistGet(store wishlist.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		item, err := store.Get(ctx, itemID(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// WishlistCreate appends a new item and answers 201 with the stored record.
func WishlistCreate(store wishlist.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body wishlist.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := store.Create(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(logg.WithField(ctx, "wishlist_id", item.ID), "wishlist.item.created")
		responses.WriteCreated(w, item)
	}
}

// WishlistUpdate applies a partial patch. Fields absent from the body are kept.
func WishlistUpdate(store wishlist.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var patch wishlist.UpdateInput
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id := itemID(r)
		item, err := store.Update(ctx, id, patch)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(logg.WithField(ctx, "wishlist_id", id), "wishlist.item.updated")
		responses.WriteSuccess(w, item)
	}
}

func WishlistDelete(store wishlist.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := itemID(r)
		if err := store.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(logg.WithField(ctx, "wishlist_id", id), "wishlist.item.deleted")
		responses.WriteNoContent(w)
	}
}

func itemID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}
