// Package nowplaying proxies the owner's Spotify "currently playing" state.
package nowplaying

import (
	"context"
	"net/http"
	"strings"

	"github.com/khauni/homepage/internal/upstream"
	"github.com/khauni/homepage/pkg/config"
	"github.com/khauni/homepage/pkg/logger"
	"github.com/khauni/homepage/pkg/metrics"
	"golang.org/x/oauth2"
)

const currentlyPlayingPath = "/me/player/currently-playing"

// Service fetches the currently playing track with a refresh-token backed client.
type Service struct {
	fetcher *upstream.Fetcher
	url     string
}

// Params groups the shared upstream plumbing.
type Params struct {
	Config   config.SpotifyConfig
	Upstream config.UpstreamConfig
	Cache    upstream.Cache
	Metrics  *metrics.OperationMetrics
	Logger   *logger.Logger
	// Base overrides the transport used for both token refresh and API calls.
	Base *http.Client
}

// NewService returns nil when Spotify credentials are not configured.
func NewService(ctx context.Context, p Params) *Service {
	if !p.Config.Enabled() {
		return nil
	}
	base := p.Base
	if base == nil {
		base = &http.Client{Timeout: p.Upstream.Timeout}
	}

	oauthCfg := &oauth2.Config{
		ClientID:     p.Config.ClientID,
		ClientSecret: p.Config.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  p.Config.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, base)
	source := oauthCfg.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: p.Config.RefreshToken})
	client := oauth2.NewClient(tokenCtx, source)
	client.Timeout = p.Upstream.Timeout

	return &Service{
		fetcher: upstream.New(upstream.Options{
			Name:             "spotify",
			HTTPClient:       client,
			Cache:            p.Cache,
			CacheTTL:         p.Config.CacheTTL,
			FailureThreshold: p.Upstream.BreakerFailureThreshold,
			OpenTimeout:      p.Upstream.BreakerOpenTimeout,
			Metrics:          p.Metrics,
			Logger:           p.Logger,
		}),
		url: strings.TrimRight(p.Config.APIBaseURL, "/") + currentlyPlayingPath,
	}
}

// Current returns the raw currently-playing payload, or upstream.ErrNoContent
// when nothing is playing.
func (s *Service) Current(ctx context.Context) ([]byte, error) {
	return s.fetcher.Fetch(ctx, s.url, nil, "now-playing")
}
