// Package ckan talks to a CKAN open data portal's action API.
package ckan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Thai government open data portal.
	DefaultBaseURL = "https://data.go.th"

	maxResponseBytes = 16 << 20
	searchPath       = "/api/3/action/package_search"
)

// ErrCatalogFailure is returned when the portal answers with success=false.
var ErrCatalogFailure = errors.New("CKAN API returned failure")

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return "CKAN API Error: " + e.Status
}

// Cache is an optional response cache keyed by request URL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Observer is notified of every catalogue request outcome.
type Observer func(outcome string)

// Request outcomes reported to the Observer.
const (
	OutcomeOK        = "ok"
	OutcomeCached    = "cached"
	OutcomeHTTP      = "http_error"
	OutcomeFailure   = "api_failure"
	OutcomeTransport = "transport_error"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64
	RateBurst  int
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Cache      Cache
	Logger     *slog.Logger
	Observer   Observer
}

// Client searches a CKAN portal. It is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	cache    Cache
	cacheTTL time.Duration
	logger   *slog.Logger
	observe  Observer
}

// NewClient builds a client. A non-positive RateLimit disables pacing.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	observe := opts.Observer
	if observe == nil {
		observe = func(string) {}
	}
	return &Client{
		baseURL:  base,
		http:     httpClient,
		limiter:  limiter,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   logger.With("component", "ckan"),
		observe:  observe,
	}
}

// BaseURL returns the portal root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SearchURL builds the package_search URL. Spaces are encoded as %20 and
// rows is omitted when not positive.
func (c *Client) SearchURL(query string, rows int) string {
	u := c.baseURL + searchPath + "?q=" + strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	if rows > 0 {
		u += "&rows=" + strconv.Itoa(rows)
	}
	return u
}

type searchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Count   int       `json:"count"`
		Results []Package `json:"results"`
	} `json:"result"`
}

// Search returns the packages matching query.
func (c *Client) Search(ctx context.Context, query string, rows int) ([]Package, error) {
	endpoint := c.SearchURL(query, rows)

	if body, ok := c.cached(ctx, endpoint); ok {
		pkgs, err := decodeSearch(body)
		if err == nil {
			c.observe(OutcomeCached)
			return pkgs, nil
		}
		c.logger.Warn("discarding unreadable cached response", "url", endpoint, "error", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for catalogue rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalogue request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(OutcomeTransport)
		return nil, fmt.Errorf("search catalogue: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(OutcomeHTTP)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &APIError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.observe(OutcomeTransport)
		return nil, fmt.Errorf("read catalogue response: %w", err)
	}
	pkgs, err := decodeSearch(body)
	if err != nil {
		c.observe(OutcomeFailure)
		return nil, err
	}
	c.observe(OutcomeOK)
	c.store(ctx, endpoint, body)
	return pkgs, nil
}

func decodeSearch(body []byte) ([]Package, error) {
	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode catalogue response: %w", err)
	}
	if !payload.Success {
		return nil, ErrCatalogFailure
	}
	if payload.Result.Results == nil {
		return []Package{}, nil
	}
	return payload.Result.Results, nil
}

func (c *Client) cached(ctx context.Context, key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("catalogue cache read failed", "error", err)
		return nil, false
	}
	return body, ok
}

func (c *Client) store(ctx context.Context, key string, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
		c.logger.Warn("catalogue cache write failed", "error", err)
	}
}

// statusText is the reason phrase without the numeric prefix, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}
