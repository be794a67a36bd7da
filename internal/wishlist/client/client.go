// Package client talks to the wishlist HTTP API on behalf of the admin and
// public views.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/khauni/homepage/internal/wishlist"
	"github.com/khauni/homepage/pkg/types"
)

const (
	wishlistPath = "/api/wishlist"
	loginPath    = "/api/admin/login"
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("wishlist api: status %d", e.Status)
	}
	return fmt.Sprintf("wishlist api: %s (%d): %s", e.Code, e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusNotFound
}

// Client is a typed HTTP client for the wishlist routes.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken presets the admin bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New builds a client rooted at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges the admin password for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, password string) (types.AdminLoginResponse, error) {
	var out types.AdminLoginResponse
	if err := c.do(ctx, http.MethodPost, loginPath, types.AdminLoginRequest{Password: password}, http.StatusOK, &out); err != nil {
		return types.AdminLoginResponse{}, err
	}
	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	return out, nil
}

// List fetches every item in the requested order.
func (c *Client) List(ctx context.Context, order wishlist.Order) ([]wishlist.Item, error) {
	path := wishlistPath
	if order != "" {
		path += "?" + url.Values{"order": {string(order)}}.Encode()
	}
	var items []wishlist.Item
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []wishlist.Item{}
	}
	return items, nil
}

func (c *Client) Get(ctx context.Context, id string) (wishlist.Item, error) {
	var item wishlist.Item
	err := c.do(ctx, http.MethodGet, itemPath(id), nil, http.StatusOK, &item)
	return item, err
}

func (c *Client) Create(ctx context.Context, input wishlist.CreateInput) (wishlist.Item, error) {
	var item wishlist.Item
	err := c.do(ctx, http.MethodPost, wishlistPath, input, http.StatusCreated, &item)
	return item, err
}

func (c *Client) Update(ctx context.Context, id string, patch wishlist.UpdateInput) (wishlist.Item, error) {
	var item wishlist.Item
	err := c.do(ctx, http.MethodPut, itemPath(id), updateBody(patch), http.StatusOK, &item)
	return item, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, itemPath(id), nil, http.StatusNoContent, nil)
}

func itemPath(id string) string {
	return wishlistPath + "/" + url.PathEscape(id)
}

// updateBody encodes only the fields present in the patch.
func updateBody(patch wishlist.UpdateInput) map[string]any {
	body := map[string]any{}
	if patch.Name != nil {
		body["name"] = *patch.Name
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	if patch.ImageURL != nil {
		body["imageUrl"] = *patch.ImageURL
	}
	if patch.Price != nil {
		body["price"] = *patch.Price
	}
	if patch.Link != nil {
		body["link"] = *patch.Link
	}
	if patch.Purchased != nil {
		body["purchased"] = *patch.Purchased
	}
	return body
}

func (c *Client) do(ctx context.Context, method, path string, in any, wantStatus int, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != wantStatus {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Details = envelope.Error.Details
	}
	return apiErr
}
