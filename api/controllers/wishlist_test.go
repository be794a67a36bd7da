package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/khauni/homepage/internal/wishlist"
	"github.com/khauni/homepage/pkg/logger"
)

func wishlistRouter(store wishlist.Store) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/wishlist", WishlistList(store, nil))
	r.Get("/api/wishlist/{id}", WishlistGet(store, nil))
	r.Post("/api/wishlist", WishlistCreate(store, nil))
	r.Put("/api/wishlist/{id}", WishlistUpdate(store, nil))
	r.Delete("/api/wishlist/{id}", WishlistDelete(store, nil))
	return r
}

func createItem(t *testing.T, h http.Handler, name string) wishlist.Item {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/wishlist", map[string]any{
		"name": name,
		"link": "https://shop.example/" + name,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %s: expected 201 got %d (%s)", name, rec.Code, rec.Body.String())
	}
	var item wishlist.Item
	if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	return item
}

func TestWishlistCreateReturnsStoredItem(t *testing.T) {
	h := wishlistRouter(newTestStore(t))

	rec := doJSON(t, h, http.MethodPost, "/api/wishlist", map[string]any{
		"name":  "Mug",
		"link":  "https://x/mug",
		"price": "$12",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var item wishlist.Item
	if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(item.ID) != 32 {
		t.Fatalf("expected 32 char id got %q", item.ID)
	}
	if item.Purchased || item.Description != "" || item.Price != "$12" || item.AddedAt.IsZero() {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestWishlistCreateValidation(t *testing.T) {
	h := wishlistRouter(newTestStore(t))

	cases := map[string]any{
		"missing link":  map[string]any{"name": "Mug"},
		"missing name":  map[string]any{"link": "https://x"},
		"blank name":    map[string]any{"name": "   ", "link": "https://x"},
		"unknown field": map[string]any{"name": "Mug", "link": "https://x", "id": "abc"},
		"malformed":     `{"name":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/wishlist", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d (%s)", rec.Code, rec.Body.String())
			}
			if env := decodeError(t, rec); env.Error.Code != "VALIDATION_ERROR" {
				t.Fatalf("expected VALIDATION_ERROR got %q", env.Error.Code)
			}
		})
	}

	rec := doJSON(t, h, http.MethodGet, "/api/wishlist", nil)
	if rec.Body.String() != "[]\n" && rec.Body.String() != "[]" {
		t.Fatalf("expected no mutation, got %s", rec.Body.String())
	}
}

func TestWishlistListOrder(t *testing.T) {
	h := wishlistRouter(newTestStore(t))
	first := createItem(t, h, "first")
	second := createItem(t, h, "second")

	var newest []wishlist.Item
	rec := doJSON(t, h, http.MethodGet, "/api/wishlist", nil)
	if err := json.NewDecoder(rec.Body).Decode(&newest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(newest) != 2 || newest[0].ID != second.ID || newest[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", newest)
	}

	var inserted []wishlist.Item
	rec = doJSON(t, h, http.MethodGet, "/api/wishlist?order=insertion", nil)
	if err := json.NewDecoder(rec.Body).Decode(&inserted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inserted[0].ID != first.ID {
		t.Fatalf("expected insertion order, got %+v", inserted)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/wishlist?order=random", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad order got %d", rec.Code)
	}
}

func TestWishlistUpdatePartialPatch(t *testing.T) {
	h := wishlistRouter(newTestStore(t))
	item := createItem(t, h, "Mug")

	rec := doJSON(t, h, http.MethodPut, "/api/wishlist/"+item.ID, map[string]any{"purchased": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	var updated wishlist.Item
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !updated.Purchased || updated.Name != "Mug" || !updated.AddedAt.Equal(item.AddedAt) {
		t.Fatalf("unexpected patch result %+v", updated)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/wishlist/"+item.ID, map[string]any{"addedAt": "2020-01-01T00:00:00Z"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for immutable field got %d", rec.Code)
	}
}

func TestWishlistUpdateRejectsNullFields(t *testing.T) {
	h := wishlistRouter(newTestStore(t))
	item := createItem(t, h, "Mug")

	rec := doJSON(t, h, http.MethodPut, "/api/wishlist/"+item.ID, `{"price": null}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d (%s)", rec.Code, rec.Body.String())
	}
	if env := decodeError(t, rec); env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR got %q", env.Error.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/wishlist/"+item.ID, nil)
	var current wishlist.Item
	if err := json.NewDecoder(rec.Body).Decode(&current); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if current.Price != item.Price || current.Name != "Mug" {
		t.Fatalf("rejected patch changed the item: %+v", current)
	}
}

func TestWishlistAddedAtHasMilliseconds(t *testing.T) {
	h := wishlistRouter(newTestStore(t))
	item := createItem(t, h, "Mug")
	if item.AddedAt.Nanosecond() != 0 {
		t.Fatalf("expected a whole-second clock, got %s", item.AddedAt)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/wishlist", nil)
	want := `"addedAt":"` + item.AddedAt.Format(wishlist.TimestampLayout) + `"`
	if !strings.Contains(rec.Body.String(), want) || !strings.HasSuffix(want, `.000Z"`) {
		t.Fatalf("expected millisecond timestamp in %s", rec.Body.String())
	}
}

func TestWishlistUnknownIDs(t *testing.T) {
	h := wishlistRouter(newTestStore(t))

	for _, tc := range []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPut, map[string]any{"name": "x"}},
		{http.MethodDelete, nil},
	} {
		rec := doJSON(t, h, tc.method, "/api/wishlist/doesnotexist", tc.body)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404 got %d", tc.method, rec.Code)
		}
		if env := decodeError(t, rec); env.Error.Code != "NOT_FOUND" {
			t.Fatalf("%s: expected NOT_FOUND got %q", tc.method, env.Error.Code)
		}
	}
}

func TestWishlistDelete(t *testing.T) {
	h := wishlistRouter(newTestStore(t))
	keep := createItem(t, h, "keep")
	drop := createItem(t, h, "drop")

	rec := doJSON(t, h, http.MethodDelete, "/api/wishlist/"+drop.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body got %q", rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/wishlist/"+keep.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected remaining item, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/wishlist/"+drop.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete got %d", rec.Code)
	}
}

func TestWishlistMutationsLogOncePerChange(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})
	store, err := wishlist.NewStore(wishlist.ServiceParams{
		Repo:   wishlist.NewRepository(filepath.Join(t.TempDir(), "wishlist-data.json")),
		Logger: logg,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Bootstrap(t.Context()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	r := chi.NewRouter()
	r.Post("/api/wishlist", WishlistCreate(store, logg))
	r.Put("/api/wishlist/{id}", WishlistUpdate(store, logg))
	r.Delete("/api/wishlist/{id}", WishlistDelete(store, logg))

	item := createItem(t, r, "Mug")
	if rec := doJSON(t, r, http.MethodPut, "/api/wishlist/"+item.ID, map[string]any{"purchased": true}); rec.Code != http.StatusOK {
		t.Fatalf("update: %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodDelete, "/api/wishlist/"+item.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}

	out := buf.String()
	for _, event := range []string{"wishlist.item.created", "wishlist.item.updated", "wishlist.item.deleted"} {
		if n := strings.Count(out, event); n != 1 {
			t.Fatalf("expected %s logged once, got %d:\n%s", event, n, out)
		}
	}
	if n := strings.Count(out, `"wishlist_id":"`+item.ID+`"`); n != 3 {
		t.Fatalf("expected 3 mutation lines for %s, got %d:\n%s", item.ID, n, out)
	}
}
