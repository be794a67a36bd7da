// Package upstream performs guarded GET requests against third-party JSON APIs.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/khauni/homepage/pkg/breaker"
	pkgerrors "github.com/khauni/homepage/pkg/errors"
	"github.com/khauni/homepage/pkg/logger"
	"github.com/khauni/homepage/pkg/metrics"
	"github.com/khauni/homepage/pkg/redis"
)

const maxBodyBytes = 2 << 20

// ErrNoContent means the upstream answered 204; callers usually relay it as-is.
var ErrNoContent = errors.New("upstream returned no content")

// Cache is the subset of the redis client used for response caching.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// StatusError is a non-2xx upstream answer.
type StatusError struct {
	Name   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s upstream returned status %d", e.Name, e.Status)
}

// Options configures a Fetcher.
type Options struct {
	// Name labels metrics, logs, breaker and cache keys.
	Name             string
	HTTPClient       *http.Client
	Cache            Cache
	CacheTTL         time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Metrics          *metrics.OperationMetrics
	Logger           *logger.Logger
}

// Fetcher wraps an HTTP client in a circuit breaker, an optional cache and metrics.
type Fetcher struct {
	name     string
	client   *http.Client
	cache    Cache
	cacheTTL time.Duration
	breaker  *breaker.Breaker[[]byte]
	metrics  *metrics.OperationMetrics
	logg     *logger.Logger
}

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

func New(opts Options) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	f := &Fetcher{
		name:     opts.Name,
		client:   client,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		metrics:  opts.Metrics,
		logg:     logg,
	}
	f.breaker = breaker.New[[]byte](breaker.Config{
		Name:             opts.Name,
		FailureThreshold: opts.FailureThreshold,
		OpenTimeout:      opts.OpenTimeout,
		IsSuccessful:     countsAsSuccess,
		OnStateChange: func(name, from, to string) {
			ctx := logg.WithFields(context.Background(), map[string]any{"upstream": name, "from": from, "to": to})
			logg.Warn(ctx, "upstream.breaker.state_change")
		},
	})
	return f
}

// countsAsSuccess keeps "nothing playing" and caller mistakes (4xx) from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, ErrNoContent) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= 400 && statusErr.Status < 500 && statusErr.Status != http.StatusTooManyRequests
	}
	return false
}

// Fetch GETs url and returns the raw JSON body. cacheKey parts select the cache
// entry; no parts disables caching for the call.
func (f *Fetcher) Fetch(ctx context.Context, url string, header http.Header, cacheKey ...string) ([]byte, error) {
	start := time.Now()
	ctx = f.logg.WithField(ctx, "upstream", f.name)

	key := ""
	if f.cache != nil && f.cacheTTL > 0 && len(cacheKey) > 0 {
		key = f.cache.CacheKey(append([]string{f.name}, cacheKey...)...)
		if cached, ok := f.fromCache(ctx, key); ok {
			if cached.Status == http.StatusNoContent {
				return nil, ErrNoContent
			}
			return []byte(cached.Body), nil
		}
	}

	body, err := f.breaker.Execute(func() ([]byte, error) {
		return f.get(ctx, url, header)
	})
	if errors.Is(err, ErrNoContent) {
		f.metrics.Track(f.name, start, nil)
		f.store(ctx, key, cachedResponse{Status: http.StatusNoContent})
		return nil, ErrNoContent
	}
	f.metrics.Track(f.name, start, err)
	if err != nil {
		return nil, f.classify(err)
	}
	f.store(ctx, key, cachedResponse{Status: http.StatusOK, Body: body})
	return body, nil
}

// State exposes the breaker state for readiness reporting.
func (f *Fetcher) State() string {
	return f.breaker.State()
}

func (f *Fetcher) get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, ErrNoContent
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Name: f.name, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return nil, ErrNoContent
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s upstream returned invalid json", f.name)
	}
	return body, nil
}

func (f *Fetcher) classify(err error) error {
	if breaker.IsOpen(err) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, f.name+" temporarily unavailable")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, f.name+" request failed").
			WithDetails(map[string]any{"upstream_status": statusErr.Status})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, f.name+" unreachable")
}

func (f *Fetcher) fromCache(ctx context.Context, key string) (cachedResponse, bool) {
	raw, err := f.cache.Get(ctx, key)
	if err != nil {
		if !redis.IsMiss(err) {
			f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "upstream.cache.read_failed")
		}
		return cachedResponse{}, false
	}
	var cached cachedResponse
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return cachedResponse{}, false
	}
	return cached, true
}

func (f *Fetcher) store(ctx context.Context, key string, entry cachedResponse) {
	if key == "" {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := f.cache.Set(ctx, key, string(raw), f.cacheTTL); err != nil {
		f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "upstream.cache.write_failed")
	}
}
