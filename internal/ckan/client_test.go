package ckan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invalder/OpenDGAi/internal/cache"
)

const searchBody = `{
  "success": true,
  "result": {
    "count": 1,
    "results": [{
      "id": "pkg-1",
      "title": "Hospital Admissions",
      "notes": "Monthly admissions",
      "resources": [
        {"id": "r0", "format": "PDF", "url": "https://example.com/a.pdf"},
        {"id": "r1", "format": "CSV", "url": "https://example.com/a.csv"}
      ],
      "organization": {"title": "Ministry of Public Health"},
      "metadata_created": "2023-01-02T03:04:05.123456",
      "metadata_modified": "2023-02-02T03:04:05",
      "license_title": "Open Government License",
      "tags": [{"name": "health"}, {"name": "hospital"}]
    }]
  }
}`

type recordedOutcomes struct {
	mu  sync.Mutex
	got []string
}

func (r *recordedOutcomes) observe(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, outcome)
}

func TestSearchURL(t *testing.T) {
	c := NewClient(Options{BaseURL: "https://data.go.th/"})
	assert.Equal(t, "https://data.go.th/api/3/action/package_search?q=hospital%20beds", c.SearchURL("hospital beds", 0))
	assert.Equal(t, "https://data.go.th/api/3/action/package_search?q=&rows=100", c.SearchURL("", 100))
	assert.Equal(t, "https://data.go.th/api/3/action/package_search?q=a%2Bb%26c", c.SearchURL("a+b&c", -1))
	assert.Equal(t, DefaultBaseURL, NewClient(Options{}).BaseURL())
}

func TestSearchSuccess(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/3/action/package_search", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	outcomes := &recordedOutcomes{}
	c := NewClient(Options{BaseURL: srv.URL, Observer: outcomes.observe})
	pkgs, err := c.Search(context.Background(), "hospital", 0)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "hospital", gotQuery)
	assert.Equal(t, "pkg-1", pkgs[0].ID)
	assert.Len(t, pkgs[0].Resources, 2)
	assert.Equal(t, []string{OutcomeOK}, outcomes.got)
}

func TestSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).Search(context.Background(), "x", 0)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "CKAN API Error: Service Unavailable", err.Error())
}

func TestSearchFailureFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "error": {"message": "bad query"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).Search(context.Background(), "x", 0)
	assert.ErrorIs(t, err, ErrCatalogFailure)
}

func TestSearchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).Search(context.Background(), "x", 0)
	assert.Error(t, err)
}

func TestSearchUsesRedisCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rc, err := cache.NewRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer rc.Close()

	outcomes := &recordedOutcomes{}
	c := NewClient(Options{BaseURL: srv.URL, Cache: rc, CacheTTL: time.Minute, Observer: outcomes.observe})
	for i := 0; i < 3; i++ {
		pkgs, err := c.Search(context.Background(), "hospital", 10)
		require.NoError(t, err)
		require.Len(t, pkgs, 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, []string{OutcomeOK, OutcomeCached, OutcomeCached}, outcomes.got)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}

func TestSearchFallsThroughCacheErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Cache: failingCache{}})
	pkgs, err := c.Search(context.Background(), "hospital", 0)
	require.NoError(t, err)
	assert.Len(t, pkgs, 1)
}

func TestSearchRespectsRateLimitContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, RateLimit: 0.001, RateBurst: 1})
	_, err := c.Search(context.Background(), "a", 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Search(ctx, "b", 0)
	assert.Error(t, err)
}
