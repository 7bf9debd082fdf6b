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

// Package orchestrator runs per-entity enrichment pipelines:
// queue -> bounded-concurrency fetch -> single-writer
// persist -> per-row checkpoint, halted by a sticky-within-run circuit
// breaker on sustained failure.
package orchestrator

import "sync"

// Breaker counts consecutive failures and trips once a threshold is
// reached. It is sticky within a single pipeline run and is never
// persisted; a fresh Breaker is constructed per run.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	failures  int
}

// NewBreaker builds a Breaker that trips after threshold consecutive
// failures. A threshold <= 0 never trips.
func NewBreaker(threshold int) *Breaker {
	return &Breaker{threshold: threshold}
}

// RecordFailure increments the consecutive-failure counter.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
}

// RecordSuccess resets the consecutive-failure counter to zero.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// Tripped reports whether the failure counter has reached the threshold.
func (b *Breaker) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.threshold > 0 && b.failures >= b.threshold
}
