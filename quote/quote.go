// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package quote is the price-enrichment source: a thin client over a
// third-party quote vendor used for trade-date, current, and benchmark
// prices. It is independent of the fetch package's scraping fetcher —
// the listing/detail HTML site needs header rotation, a global rate gap,
// and payload parsing, while this external quote source is a plain JSON
// API behind its own rate limiter, with no cookie/header choreography.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	defaultRatePerMinute = 300
	requestTimeout       = 15 * time.Second
	// maxLookbackDays bounds the weekend/holiday backward walk so a
	// delisted or never-quoted ticker doesn't retry seven days forever.
	maxLookbackDays = 7
)

// Quote is a single day's close price for a ticker.
type Quote struct {
	Ticker string
	Date   time.Time
	Close  float64
}

// Error is the typed failure Source surfaces: ErrNoQuote once the vendor
// has nothing for a ticker within the lookback window, or a transport or
// vendor failure.
type Error struct {
	Ticker string
	Date   time.Time
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("quote: %s on %s: %v", e.Ticker, e.Date.Format("2006-01-02"), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNoQuote is the terminal "vendor has nothing for this ticker/date"
// condition, distinct from a transport or vendor-side failure. Callers
// that treat an absent quote as a completed attempt check for it with
// errors.Is; anything else is a real failure.
var ErrNoQuote = errors.New("no quote available")

// rawQuote mirrors the vendor's EOD response shape closely enough to
// decode a single day's close.
type rawQuote struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Source is a rate-limited client over the external quote vendor. One
// Source instance is shared across all three price-enrichment phases;
// each phase's circuit breaker is independent (owned by the orchestrator
// pipeline calling it), but the underlying rate limiter is shared so a
// vendor-side limit is honored across phases within one invocation.
type Source struct {
	client  *resty.Client
	limiter *rate.Limiter
	baseURL string
}

// Option configures a Source at construction time.
type Option func(*Source)

// WithRateLimit overrides the default requests-per-minute budget.
func WithRateLimit(perMinute int) Option {
	return func(s *Source) {
		s.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)
	}
}

// New builds a Source against baseURL (e.g. a Tiingo/Polygon-style EOD
// endpoint), apiKey sent as a query parameter.
func New(baseURL, apiKey string, opts ...Option) *Source {
	s := &Source{
		client:  resty.New().SetTimeout(requestTimeout).SetQueryParam("token", apiKey),
		limiter: rate.NewLimiter(rate.Limit(float64(defaultRatePerMinute)/60.0), 1),
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Historical fetches the close price for ticker on date. If the vendor has
// no quote for the exact date (weekend/holiday), it walks backward up to
// maxLookbackDays calendar days and returns the first available quote.
// Returns a typed Error wrapping ErrNoQuote once the lookback window is
// exhausted, or wrapping a transport/vendor error as soon as one occurs.
func (s *Source) Historical(ctx context.Context, ticker string, date time.Time) (*Quote, error) {
	for offset := 0; offset <= maxLookbackDays; offset++ {
		d := date.AddDate(0, 0, -offset)
		q, err := s.fetchOne(ctx, ticker, d)
		if err == nil {
			return q, nil
		}
		if err != ErrNoQuote {
			return nil, &Error{Ticker: ticker, Date: date, Err: err}
		}
	}
	return nil, &Error{Ticker: ticker, Date: date, Err: ErrNoQuote}
}

// Current fetches the latest available close for ticker.
func (s *Source) Current(ctx context.Context, ticker string) (*Quote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &Error{Ticker: ticker, Err: err}
	}

	var raw []rawQuote
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&raw).
		Get(fmt.Sprintf("%s/%s/prices/latest", s.baseURL, ticker))
	if err != nil {
		return nil, &Error{Ticker: ticker, Err: err}
	}
	if resp.StatusCode() >= 400 || len(raw) == 0 {
		return nil, &Error{Ticker: ticker, Err: ErrNoQuote}
	}

	d, err := time.Parse("2006-01-02", raw[0].Date[:10])
	if err != nil {
		return nil, &Error{Ticker: ticker, Err: err}
	}
	return &Quote{Ticker: ticker, Date: d, Close: raw[0].Close}, nil
}

func (s *Source) fetchOne(ctx context.Context, ticker string, date time.Time) (*Quote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	dateStr := date.Format("2006-01-02")
	var raw []rawQuote
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("startDate", dateStr).
		SetQueryParam("endDate", dateStr).
		SetResult(&raw).
		Get(fmt.Sprintf("%s/%s/prices", s.baseURL, ticker))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 400 || len(raw) == 0 {
		return nil, ErrNoQuote
	}

	return &Quote{Ticker: ticker, Date: date, Close: raw[0].Close}, nil
}
