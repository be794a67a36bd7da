package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/khauni/homepage/api/controllers"
	"github.com/khauni/homepage/internal/wishlist"
	"github.com/khauni/homepage/pkg/security"
)

func startAPI(t *testing.T) string {
	t.Helper()
	store, err := wishlist.NewStore(wishlist.ServiceParams{
		Repo: wishlist.NewRepository(filepath.Join(t.TempDir(), "wishlist-data.json")),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Bootstrap(t.Context()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	r := chi.NewRouter()
	r.Get("/api/wishlist", controllers.WishlistList(store, nil))
	r.Post("/api/wishlist", controllers.WishlistCreate(store, nil))
	r.Put("/api/wishlist/{id}", controllers.WishlistUpdate(store, nil))
	r.Delete("/api/wishlist/{id}", controllers.WishlistDelete(store, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(t.Context(), args, strings.NewReader(""), &out)
	return out.String(), err
}

func TestCLIWishlistLifecycle(t *testing.T) {
	url := startAPI(t)

	out, err := runCLI(t, "-server", url, "add", "-name", "Mug", "-link", "https://x/mug", "-price", "$12")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	var item wishlist.Item
	if err := json.Unmarshal([]byte(out), &item); err != nil {
		t.Fatalf("decode add output %q: %v", out, err)
	}

	if _, err := runCLI(t, "-server", url, "update", item.ID, "-description", ""); err != nil {
		t.Fatalf("update: %v", err)
	}
	out, err = runCLI(t, "-server", url, "purchase", item.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if !strings.Contains(out, `"purchased": true`) {
		t.Fatalf("expected purchased output, got %s", out)
	}

	out, err = runCLI(t, "-server", url, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, item.ID) || !strings.Contains(out, "Mug") {
		t.Fatalf("expected item in list output:\n%s", out)
	}

	out, err = runCLI(t, "-server", url, "delete", item.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "0 items remain") {
		t.Fatalf("unexpected delete output %q", out)
	}
}

func TestCLIUsageErrors(t *testing.T) {
	cases := [][]string{
		{},
		{"frobnicate"},
		{"-server", "http://127.0.0.1:1", "delete"},
		{"-server", "http://127.0.0.1:1", "list", "-order", "sideways"},
	}
	for _, args := range cases {
		if _, err := runCLI(t, args...); !errors.Is(err, errUsage) {
			t.Fatalf("%v: expected usage error got %v", args, err)
		}
	}
}

func TestCLIHashPassword(t *testing.T) {
	t.Setenv("HOMEPAGE_ARGON_MEMORY_KB", "1024")
	t.Setenv("HOMEPAGE_ARGON_TIME", "1")

	var out bytes.Buffer
	if err := run(t.Context(), []string{"hash-password"}, strings.NewReader("correct horse\n"), &out); err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	hash := strings.TrimSpace(out.String())
	ok, err := security.VerifyPassword("correct horse", hash)
	if err != nil || !ok {
		t.Fatalf("expected hash to verify, ok=%v err=%v", ok, err)
	}
}
