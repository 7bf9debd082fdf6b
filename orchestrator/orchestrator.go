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
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/capitoltrades/pvingest/data"
)

const (
	defaultThrottle         = 500 * time.Millisecond
	DefaultBreakerThreshold = 5
	PriceBreakerThreshold   = 10
)

// Options configures a single pipeline run. Zero-value Options is a valid
// sequential, non-dry, unbounded run with the default throttle and
// breaker threshold applied by Run.
type Options struct {
	Throttle         time.Duration
	BatchCap         int
	DryRun           bool
	BreakerThreshold int
	Concurrency      int // 1 (default) = sequential; >1 enables bounded fan-out.
}

func (o Options) withDefaults() Options {
	if o.Throttle <= 0 {
		o.Throttle = defaultThrottle
	}
	if o.BreakerThreshold <= 0 {
		o.BreakerThreshold = DefaultBreakerThreshold
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	return o
}

// Pipeline describes one enrichable entity type's detail-fetch pipeline.
// GetIDs primes the queue; FetchDetail performs the (throttled) external
// call; Persist is the sole writer. In the per-entity detail pipelines
// Persist is also what stamps enriched_at; the committee sweep and the
// price phases do not write it.
type Pipeline[ID any] struct {
	Name        string
	GetIDs      func(ctx context.Context, batchCap int) ([]ID, error)
	FetchDetail func(ctx context.Context, id ID) (any, error)
	Persist     func(ctx context.Context, id ID, detail any) error
}

// Run executes pipeline to completion or until the circuit breaker trips.
// The single-writer constraint is absolute: Persist is only ever called
// from one goroutine, whether running sequentially or with a bounded
// fan-out of concurrent FetchDetail calls.
func Run[ID any](ctx context.Context, p Pipeline[ID], opts Options) (*data.RunSummary, error) {
	opts = opts.withDefaults()

	runID := uuid.New().String()
	logger := log.With().Str("run_id", runID).Str("pipeline", p.Name).Logger()

	summary := &data.RunSummary{Pipeline: p.Name, StartTime: time.Now()}

	ids, err := p.GetIDs(ctx, opts.BatchCap)
	if err != nil {
		summary.EndTime = time.Now()
		return summary, err
	}
	summary.Processed = len(ids)

	if opts.DryRun {
		logger.Info().Int("would_process", len(ids)).Msg("dry run")
		summary.EndTime = time.Now()
		return summary, nil
	}

	breaker := NewBreaker(opts.BreakerThreshold)

	if opts.Concurrency <= 1 {
		runSequential(ctx, p, ids, opts, breaker, summary, logger)
	} else {
		runBoundedFanOut(ctx, p, ids, opts, breaker, summary, logger)
	}

	summary.EndTime = time.Now()
	summary.BreakerTripped = breaker.Tripped()
	return summary, nil
}

func runSequential[ID any](ctx context.Context, p Pipeline[ID], ids []ID, opts Options, breaker *Breaker, summary *data.RunSummary, logger zerolog.Logger) {
	for i, id := range ids {
		if i > 0 {
			time.Sleep(opts.Throttle)
		}
		if ctx.Err() != nil {
			summary.Skipped += len(ids) - i
			return
		}

		detail, err := p.FetchDetail(ctx, id)
		if err != nil {
			logger.Warn().Err(err).Interface("id", id).Msg("detail fetch failed")
			breaker.RecordFailure()
			summary.Failed++
			if breaker.Tripped() {
				summary.Skipped += len(ids) - i - 1
				logger.Error().Msg("circuit breaker tripped, halting pipeline")
				return
			}
			continue
		}

		if err := p.Persist(ctx, id, detail); err != nil {
			logger.Warn().Err(err).Interface("id", id).Msg("persist failed")
			breaker.RecordFailure()
			summary.Failed++
			if breaker.Tripped() {
				summary.Skipped += len(ids) - i - 1
				return
			}
			continue
		}

		breaker.RecordSuccess()
		summary.Succeeded++
	}
}

// fetchResult is one completed (or failed) detail fetch, handed from a
// fan-out worker to the single-writer consumer.
type fetchResult[ID any] struct {
	id     ID
	detail any
	err    error
}

// runBoundedFanOut gates in-flight FetchDetail calls behind a semaphore of
// opts.Concurrency permits. Results flow down a channel bounded to 2x the
// permit count (so slow writes stall fetchers naturally) to a single
// consumer goroutine that is the only caller of Persist.
func runBoundedFanOut[ID any](ctx context.Context, p Pipeline[ID], ids []ID, opts Options, breaker *Breaker, summary *data.RunSummary, logger zerolog.Logger) {
	sem := semaphore.NewWeighted(int64(opts.Concurrency))
	results := make(chan fetchResult[ID], opts.Concurrency*2)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for res := range results {
			if res.err != nil {
				logger.Warn().Err(res.err).Interface("id", res.id).Msg("detail fetch failed")
				breaker.RecordFailure()
				summary.Failed++
				continue
			}
			if err := p.Persist(ctx, res.id, res.detail); err != nil {
				logger.Warn().Err(err).Interface("id", res.id).Msg("persist failed")
				breaker.RecordFailure()
				summary.Failed++
				continue
			}
			breaker.RecordSuccess()
			summary.Succeeded++
		}
	}()

	for i, id := range ids {
		if breaker.Tripped() {
			summary.Skipped += len(ids) - i
			break
		}
		if ctx.Err() != nil {
			summary.Skipped += len(ids) - i
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			summary.Skipped += len(ids) - i
			break
		}
		if i > 0 {
			time.Sleep(opts.Throttle)
		}

		id := id
		go func() {
			defer sem.Release(1)
			detail, err := p.FetchDetail(ctx, id)
			results <- fetchResult[ID]{id: id, detail: detail, err: err}
		}()
	}

	// Wait for all in-flight fetches to finish before closing the channel.
	// Deliberately not ctx: on interrupt, in-flight fetches complete or
	// fail naturally, and closing results early would panic their sends.
	_ = sem.Acquire(context.Background(), int64(opts.Concurrency))
	close(results)
	<-done
}
