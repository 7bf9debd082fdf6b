package quote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource(t *testing.T, handler http.HandlerFunc) (*Source, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	src := New(srv.URL, "test-key", WithRateLimit(6000))
	return src, srv
}

func writeQuotes(t *testing.T, w http.ResponseWriter, quotes []rawQuote) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	require.NoError(t, json.NewEncoder(w).Encode(quotes))
}

func TestHistoricalExactDateHit(t *testing.T) {
	src, srv := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		writeQuotes(t, w, []rawQuote{{Date: "2024-01-02", Close: 123.45}})
	})
	defer srv.Close()

	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	q, err := src.Historical(context.Background(), "ACME", d)
	require.NoError(t, err)
	assert.Equal(t, 123.45, q.Close)
}

func TestHistoricalWalksBackOnWeekendGap(t *testing.T) {
	var seen []string
	src, srv := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("startDate")
		seen = append(seen, date)
		if date == "2024-01-05" { // a Friday, two days back from the Sunday requested
			writeQuotes(t, w, []rawQuote{{Date: date, Close: 50.0}})
			return
		}
		writeQuotes(t, w, nil)
	})
	defer srv.Close()

	sunday := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	q, err := src.Historical(context.Background(), "ACME", sunday)
	require.NoError(t, err)
	assert.Equal(t, 50.0, q.Close)
	assert.Contains(t, seen, "2024-01-05")
}

func TestHistoricalReturnsErrorAfterLookbackExhausted(t *testing.T) {
	src, srv := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		writeQuotes(t, w, nil)
	})
	defer srv.Close()

	d := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	_, err := src.Historical(context.Background(), "DELISTED", d)
	require.Error(t, err)
	var qErr *Error
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, "DELISTED", qErr.Ticker)
}

func TestCurrentReturnsLatestClose(t *testing.T) {
	src, srv := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		writeQuotes(t, w, []rawQuote{{Date: "2024-06-01T00:00:00Z", Close: 99.0}})
	})
	defer srv.Close()

	q, err := src.Current(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 99.0, q.Close)
}

func TestCurrentUpstreamErrorIsTyped(t *testing.T) {
	src, srv := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	})
	defer srv.Close()

	_, err := src.Current(context.Background(), "ACME")
	require.Error(t, err)
	var qErr *Error
	require.ErrorAs(t, err, &qErr)
}
