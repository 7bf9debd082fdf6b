package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitoltrades/pvingest/cache"
	"github.com/capitoltrades/pvingest/retry"
)

func testFetcher(handler http.HandlerFunc) (*Fetcher, *httptest.Server) {
	srv := httptest.NewServer(handler)
	f := New("https://example.test", "https://example.test/",
		WithCache(cache.New(time.Minute)),
		WithPolicy(retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}),
	)
	return f, srv
}

func TestGetSuccess(t *testing.T) {
	f, srv := testFetcher(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.WriteHeader(200)
		_, _ = w.Write([]byte("hello"))
	})
	defer srv.Close()

	body, err := f.Get(context.Background(), srv.URL, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestGetCachesResult(t *testing.T) {
	calls := 0
	f, srv := testFetcher(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(200)
		_, _ = w.Write([]byte("once"))
	})
	defer srv.Close()

	_, err := f.Get(context.Background(), srv.URL, url.Values{"a": {"1"}})
	require.NoError(t, err)
	_, err = f.Get(context.Background(), srv.URL, url.Values{"a": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGetPermanentFailureNotRetried(t *testing.T) {
	calls := 0
	f, srv := testFetcher(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(404)
	})
	defer srv.Close()

	_, err := f.Get(context.Background(), srv.URL, url.Values{})
	require.Error(t, err)
	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	assert.True(t, ferr.Permanent)
	assert.Equal(t, 1, calls)
}

func TestGetTransientFailureRetriesThenGivesUp(t *testing.T) {
	calls := 0
	f, srv := testFetcher(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(503)
	})
	defer srv.Close()

	_, err := f.Get(context.Background(), srv.URL, url.Values{})
	require.Error(t, err)
	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	assert.False(t, ferr.Permanent)
	assert.Equal(t, 2, calls)
}

func TestFirstRequestHasNoDelay(t *testing.T) {
	f, srv := testFetcher(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	})
	defer srv.Close()

	start := time.Now()
	_, err := f.Get(context.Background(), srv.URL, url.Values{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), minGap)
}
