// Package steam proxies the owner's Steam presence and recent games.
package steam

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/khauni/homepage/internal/upstream"
	"github.com/khauni/homepage/pkg/config"
	"github.com/khauni/homepage/pkg/logger"
	"github.com/khauni/homepage/pkg/metrics"
)

const (
	playerSummaryPath  = "/ISteamUser/GetPlayerSummaries/v0002/"
	recentlyPlayedPath = "/IPlayerService/GetRecentlyPlayedGames/v0001/"

	DefaultRecentCount = 5
	MaxRecentCount     = 20
)

type Service struct {
	fetcher *upstream.Fetcher
	baseURL string
	apiKey  string
	steamID string
}

type Params struct {
	Config     config.SteamConfig
	Upstream   config.UpstreamConfig
	Cache      upstream.Cache
	Metrics    *metrics.OperationMetrics
	Logger     *logger.Logger
	HTTPClient *http.Client
}

// NewService returns nil when the API key or account id is missing.
func NewService(p Params) *Service {
	if !p.Config.Enabled() {
		return nil
	}
	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: p.Upstream.Timeout}
	}
	return &Service{
		fetcher: upstream.New(upstream.Options{
			Name:             "steam",
			HTTPClient:       client,
			Cache:            p.Cache,
			CacheTTL:         p.Config.CacheTTL,
			FailureThreshold: p.Upstream.BreakerFailureThreshold,
			OpenTimeout:      p.Upstream.BreakerOpenTimeout,
			Metrics:          p.Metrics,
			Logger:           p.Logger,
		}),
		baseURL: strings.TrimRight(p.Config.APIBaseURL, "/"),
		apiKey:  p.Config.APIKey,
		steamID: p.Config.SteamID,
	}
}

// PlayerSummary returns the raw GetPlayerSummaries payload for the configured account.
func (s *Service) PlayerSummary(ctx context.Context) ([]byte, error) {
	q := url.Values{
		"key":      {s.apiKey},
		"steamids": {s.steamID},
	}
	return s.fetcher.Fetch(ctx, s.baseURL+playerSummaryPath+"?"+q.Encode(), nil, "player-summary")
}

// RecentlyPlayed returns the raw GetRecentlyPlayedGames payload.
func (s *Service) RecentlyPlayed(ctx context.Context, count int) ([]byte, error) {
	if count <= 0 {
		count = DefaultRecentCount
	}
	if count > MaxRecentCount {
		count = MaxRecentCount
	}
	q := url.Values{
		"key":     {s.apiKey},
		"steamid": {s.steamID},
		"format":  {"json"},
		"count":   {strconv.Itoa(count)},
	}
	return s.fetcher.Fetch(ctx, s.baseURL+recentlyPlayedPath+"?"+q.Encode(), nil, "recently-played", strconv.Itoa(count))
}
