package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/khauni/homepage/api/responses"
	"github.com/khauni/homepage/api/validators"
	"github.com/khauni/homepage/internal/upstream"
	pkgerrors "github.com/khauni/homepage/pkg/errors"
	"github.com/khauni/homepage/pkg/logger"
)

type nowPlayingSource interface {
	Current(ctx context.Context) ([]byte, error)
}

type steamSource interface {
	PlayerSummary(ctx context.Context) ([]byte, error)
	RecentlyPlayed(ctx context.Context, count int) ([]byte, error)
}

type printerSource interface {
	Status(ctx context.Context) ([]byte, error)
}

// NotConfigured answers 503 for a widget whose credentials are missing.
func NotConfigured(widget string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := pkgerrors.New(pkgerrors.CodeDependency, widget+" is not configured").
			WithDetails(map[string]any{"widget": widget})
		responses.WriteError(r.Context(), logg, w, err)
	}
}

// SpotifyNowPlaying passes the currently-playing document through, or 204 when
// nothing is playing.
func SpotifyNowPlaying(src nowPlayingSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := src.Current(r.Context())
		writeUpstream(r.Context(), logg, w, body, err)
	}
}

func SteamPlayerSummary(src steamSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := src.PlayerSummary(r.Context())
		writeUpstream(r.Context(), logg, w, body, err)
	}
}

func SteamRecentlyPlayed(src steamSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		count, err := validators.ParseQueryInt(r, "count", 5, 1, 20)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		body, err := src.RecentlyPlayed(ctx, count)
		writeUpstream(ctx, logg, w, body, err)
	}
}

func PrinterStatus(src printerSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := src.Status(r.Context())
		writeUpstream(r.Context(), logg, w, body, err)
	}
}

func writeUpstream(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, body []byte, err error) {
	switch {
	case errors.Is(err, upstream.ErrNoContent):
		responses.WriteNoContent(w)
	case err != nil:
		responses.WriteError(ctx, logg, w, err)
	default:
		responses.WriteRawJSON(w, http.StatusOK, body)
	}
}
