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

// Package retry classifies HTTP/transport outcomes and computes retry
// delays with jitter, honoring server-provided retry hints. It is the
// fetcher's retry/backoff policy.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Outcome classifies the result of a single HTTP attempt.
type Outcome int

const (
	Success Outcome = iota
	Transient
	Permanent
	RateLimited
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	case RateLimited:
		return "rate-limited"
	default:
		return "unknown"
	}
}

// ErrGaveUp is returned once the configured maximum attempt count is spent
// on a transient or rate-limited outcome.
var ErrGaveUp = errors.New("retry: gave up after max attempts")

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2000 * time.Millisecond
	defaultMaxDelay    = 30000 * time.Millisecond
)

// Policy holds the retry tunables: max attempts, base
// delay, and max delay, all overridable via process environment at
// construction time. A malformed environment value falls back to the
// default silently; misconfiguration is non-fatal wherever a safe
// default exists.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// NewPolicyFromEnv builds a Policy from RETRY_MAX, RETRY_BASE_MS, and
// RETRY_MAX_MS, falling back to defaults for anything unset or unparsable.
func NewPolicyFromEnv() Policy {
	p := Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
	}

	if v, ok := os.LookupEnv("RETRY_MAX"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.MaxAttempts = n
		} else {
			log.Debug().Str("RETRY_MAX", v).Msg("could not parse RETRY_MAX, using default")
		}
	}

	if v, ok := os.LookupEnv("RETRY_BASE_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.BaseDelay = time.Duration(n) * time.Millisecond
		} else {
			log.Debug().Str("RETRY_BASE_MS", v).Msg("could not parse RETRY_BASE_MS, using default")
		}
	}

	if v, ok := os.LookupEnv("RETRY_MAX_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.MaxDelay = time.Duration(n) * time.Millisecond
		} else {
			log.Debug().Str("RETRY_MAX_MS", v).Msg("could not parse RETRY_MAX_MS, using default")
		}
	}

	return p
}

// Classify maps an HTTP status code and/or transport error to an Outcome.
// A retry-hint header (Retry-After) always forces RateLimited regardless
// of status code.
func Classify(statusCode int, retryHint time.Duration, err error) Outcome {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return Transient
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return Transient
		}
		// connection reset and friends surface as generic errors from the
		// transport; treat anything we can't positively classify as a
		// 4xx-shaped permanent failure as transient so a flaky connection
		// gets a retry.
		return Transient
	}

	if retryHint > 0 {
		return RateLimited
	}

	switch {
	case statusCode == 0:
		return Transient
	case statusCode == http.StatusTooManyRequests:
		return RateLimited
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusTooEarly:
		return Transient
	case statusCode >= 500:
		return Transient
	case statusCode >= 400:
		return Permanent
	default:
		return Success
	}
}

// RetryHint parses a Retry-After header (seconds or HTTP-date form) into a
// duration. A zero duration means no hint was present.
func RetryHint(header http.Header) time.Duration {
	v := header.Get("Retry-After")
	if v == "" {
		return 0
	}

	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}

	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
	}

	return 0
}

// NextDelay computes min(max_delay, base_delay * 2^attempt), adds uniform
// jitter in [0, base_delay), then takes the max with any server-provided
// retry hint. The capped exponential comes from backoff.ExponentialBackOff
// with randomization disabled; its multiplicative randomization is a
// different distribution than the additive jitter wanted here, so jitter
// is applied on top. attempt is zero-based (first retry uses attempt=0).
func NextDelay(p Policy, attempt int, retryHint time.Duration) time.Duration {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.BaseDelay
	eb.MaxInterval = p.MaxDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.Reset()

	var delay time.Duration
	for i := 0; i <= attempt; i++ {
		delay = eb.NextBackOff()
	}
	if delay == backoff.Stop || delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.BaseDelay > 0 {
		delay += time.Duration(rand.Int63n(int64(p.BaseDelay)))
	}

	if retryHint > delay {
		delay = retryHint
	}

	return delay
}

// Attempt is the per-try record an Attempter accumulates, used for logging
// and for surfacing a typed failure once attempts are exhausted.
type Attempt struct {
	Number     int
	Outcome    Outcome
	StatusCode int
	Err        error
	Delay      time.Duration
}

// Do runs fn up to p.MaxAttempts times, classifying each result via
// classify and backing off via NextDelay between transient/rate-limited
// attempts. fn returns the HTTP status code observed (0 if the request
// never completed), a retry hint duration, and an error. Do returns the
// last error (wrapped in ErrGaveUp) once attempts are exhausted, or nil on
// success. Permanent outcomes are not retried.
func Do(ctx context.Context, p Policy, fn func(attempt int) (statusCode int, hint time.Duration, err error)) ([]Attempt, error) {
	var history []Attempt

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		statusCode, hint, err := fn(attempt)
		outcome := Classify(statusCode, hint, err)

		history = append(history, Attempt{Number: attempt, Outcome: outcome, StatusCode: statusCode, Err: err})

		switch outcome {
		case Success:
			return history, nil
		case Permanent:
			if err == nil {
				err = errors.New("retry: permanent failure, status " + strconv.Itoa(statusCode))
			}
			return history, err
		case Transient, RateLimited:
			if attempt == p.MaxAttempts-1 {
				return history, errorsJoin(ErrGaveUp, err)
			}
			delay := NextDelay(p, attempt, hint)
			history[len(history)-1].Delay = delay
			select {
			case <-ctx.Done():
				return history, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return history, ErrGaveUp
}

func errorsJoin(a, b error) error {
	if b == nil {
		return a
	}
	return errors.Join(a, b)
}
