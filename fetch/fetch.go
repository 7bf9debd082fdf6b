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

// Package fetch is the HTTP fetch substrate: a rate-limited, cached,
// retrying GET client over an upstream with no stable API. It is the sole
// place in the module that makes outbound HTTP calls against the listing
// site; quote-source calls use their own lighter wrapper.
package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/capitoltrades/pvingest/cache"
	"github.com/capitoltrades/pvingest/retry"
)

const (
	minGap         = 5 * time.Second
	maxGap         = 10 * time.Second
	requestTimeout = 30 * time.Second
)

// Error is the typed failure the fetcher surfaces to callers once retries are
// exhausted or a permanent outcome is classified.
type Error struct {
	URL        string
	StatusCode int
	Permanent  bool
	Err        error
}

func (e *Error) Error() string {
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("fetch: %s %s (status=%d): %v", kind, e.URL, e.StatusCode, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher is the rate-limited, cached, retrying GET client. It carries
// no module-level global state; the "last request time" cell lives on
// the instance and is guarded by mu.
type Fetcher struct {
	client *resty.Client
	cache  *cache.Cache
	policy retry.Policy

	mu          sync.Mutex
	lastRequest time.Time
	hasRequest  bool

	origin  string
	referer string
}

// Option configures a Fetcher at construction time.
type Option func(*Fetcher)

// WithCache overrides the default cache instance.
func WithCache(c *cache.Cache) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithPolicy overrides the default retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// New builds a Fetcher. origin/referer seed the browser-like headers sent
// with every request.
func New(origin, referer string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  resty.New().SetTimeout(requestTimeout),
		cache:   cache.New(cache.DefaultTTL),
		policy:  retry.NewPolicyFromEnv(),
		origin:  origin,
		referer: referer,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func cacheKey(rawURL string, params url.Values) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL + "?" + params.Encode()
	}
	u.RawQuery = params.Encode()
	return u.String()
}

// Get issues a rate-limited, cached, retrying GET against rawURL with the
// given query parameters and returns the response body.
func (f *Fetcher) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	key := cacheKey(rawURL, params)

	if body, ok := f.cache.Get(key); ok {
		log.Debug().Str("url", rawURL).Msg("cache hit, skipping fetch")
		return body, nil
	}

	var body []byte
	history, err := retry.Do(ctx, f.policy, func(attempt int) (int, time.Duration, error) {
		f.waitForGap()

		req := f.client.R().
			SetContext(ctx).
			SetHeader("User-Agent", randomUserAgent()).
			SetHeader("Accept-Language", "en-US,en;q=0.9").
			SetQueryParamsFromValues(params)

		if f.origin != "" {
			req.SetHeader("Origin", f.origin)
		}
		if f.referer != "" {
			req.SetHeader("Referer", f.referer)
		}

		resp, reqErr := req.Get(rawURL)
		f.markRequested()

		if reqErr != nil {
			return 0, 0, reqErr
		}

		hint := retry.RetryHint(resp.Header())
		if resp.StatusCode() < 400 {
			body = resp.Body()
		}
		return resp.StatusCode(), hint, nil
	})

	if err != nil {
		last := history[len(history)-1]
		return nil, &Error{
			URL:        rawURL,
			StatusCode: last.StatusCode,
			Permanent:  last.Outcome == retry.Permanent,
			Err:        err,
		}
	}

	f.cache.Set(key, body)
	return body, nil
}

func (f *Fetcher) waitForGap() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.hasRequest {
		return
	}

	gap := minGap + time.Duration(rand.Int63n(int64(maxGap-minGap)))
	elapsed := time.Since(f.lastRequest)
	if elapsed < gap {
		time.Sleep(gap - elapsed)
	}
}

func (f *Fetcher) markRequested() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRequest = time.Now()
	f.hasRequest = true
}
