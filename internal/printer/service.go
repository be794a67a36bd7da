// Package printer proxies the status endpoint of a local 3D printer.
package printer

import (
	"context"
	"net/http"

	"github.com/khauni/homepage/internal/upstream"
	"github.com/khauni/homepage/pkg/config"
	"github.com/khauni/homepage/pkg/logger"
	"github.com/khauni/homepage/pkg/metrics"
)

type Service struct {
	fetcher *upstream.Fetcher
	url     string
}

type Params struct {
	Config     config.PrinterConfig
	Upstream   config.UpstreamConfig
	Cache      upstream.Cache
	Metrics    *metrics.OperationMetrics
	Logger     *logger.Logger
	HTTPClient *http.Client
}

// NewService returns nil when no status URL is configured.
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
			Name:             "printer",
			HTTPClient:       client,
			Cache:            p.Cache,
			CacheTTL:         p.Config.CacheTTL,
			FailureThreshold: p.Upstream.BreakerFailureThreshold,
			OpenTimeout:      p.Upstream.BreakerOpenTimeout,
			Metrics:          p.Metrics,
			Logger:           p.Logger,
		}),
		url: p.Config.StatusURL,
	}
}

// Status returns the device's raw status document.
func (s *Service) Status(ctx context.Context) ([]byte, error) {
	return s.fetcher.Fetch(ctx, s.url, nil, "status")
}
