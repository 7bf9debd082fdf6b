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

// Package ingest wires the fetch substrate, parser, store, and
// enrichment orchestrator into the pipelines a full sync runs in
// sequence: listing ingest, trade detail, politician detail, politician
// committees, issuer detail, and price enrichment. Each stage
// completes before the next starts; any stage may be skipped via
// Options.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/capitoltrades/pvingest/capitoltrades"
	"github.com/capitoltrades/pvingest/data"
	"github.com/capitoltrades/pvingest/orchestrator"
	"github.com/capitoltrades/pvingest/quote"
	"github.com/capitoltrades/pvingest/store"
)

// Options controls which of the ordered stages a Sync invocation runs
// and how each pipeline is tuned. A zero-value Options runs every stage
// with the orchestrator's defaults.
type Options struct {
	SkipListing     bool
	SkipTrades      bool
	SkipPoliticians bool
	SkipCommittees  bool
	SkipIssuers     bool
	SkipPrices      bool

	Trades      orchestrator.Options
	Politicians orchestrator.Options
	Committees  orchestrator.Options
	Issuers     orchestrator.Options
	Prices      orchestrator.Options
}

// Result collects the per-pipeline summaries from one Sync invocation,
// in the order the pipelines ran.
type Result struct {
	Listing     *data.RunSummary
	Trades      *data.RunSummary
	Politicians *data.RunSummary
	Committees  *data.RunSummary
	Issuers     *data.RunSummary
	Prices      *PriceResult
}

// Sync runs listing ingest -> trade detail -> politician detail ->
// politician committees -> issuer detail -> price enrichment, in that
// fixed order, skipping
// any stage Options disables. A stage's failure to complete (e.g. a
// listing fetch error) aborts the remaining stages; per-row failures
// within a stage do not (they're absorbed by that stage's circuit
// breaker and summarized in its RunSummary).
func Sync(ctx context.Context, client *capitoltrades.Client, quoteSrc *quote.Source, s *store.Store, opts Options) (*Result, error) {
	result := &Result{}

	if !opts.SkipListing {
		summary, err := runListingIngest(ctx, client, s)
		result.Listing = summary
		if err != nil {
			return result, fmt.Errorf("ingest: listing stage: %w", err)
		}
	}

	if !opts.SkipTrades {
		summary, err := runTradeDetail(ctx, client, s, opts.Trades)
		result.Trades = summary
		if err != nil {
			return result, fmt.Errorf("ingest: trade detail stage: %w", err)
		}
	}

	if !opts.SkipPoliticians {
		summary, err := runPoliticianDetail(ctx, client, s, opts.Politicians)
		result.Politicians = summary
		if err != nil {
			return result, fmt.Errorf("ingest: politician detail stage: %w", err)
		}
	}

	if !opts.SkipCommittees {
		summary, err := runPoliticianCommittees(ctx, client, s, opts.Committees)
		result.Committees = summary
		if err != nil {
			return result, fmt.Errorf("ingest: politician committee stage: %w", err)
		}
	}

	if !opts.SkipIssuers {
		summary, err := runIssuerDetail(ctx, client, s, opts.Issuers)
		result.Issuers = summary
		if err != nil {
			return result, fmt.Errorf("ingest: issuer detail stage: %w", err)
		}
	}

	if !opts.SkipPrices {
		prices, err := RunPriceEnrichment(ctx, quoteSrc, s, opts.Prices)
		result.Prices = prices
		if err != nil {
			return result, fmt.Errorf("ingest: price enrichment stage: %w", err)
		}
	}

	return result, nil
}

// runListingIngest pages through /trades, /politicians, and /issuers,
// upserting skeleton rows for every entity discovered. Listing ingest
// never touches enriched_at or sentinel-protected fields beyond what
// store.UpsertListing* already guards.
func runListingIngest(ctx context.Context, client *capitoltrades.Client, s *store.Store) (*data.RunSummary, error) {
	summary := &data.RunSummary{Pipeline: "listing", StartTime: time.Now()}
	defer func() { summary.EndTime = time.Now() }()

	trades, err := client.ListAllTrades(ctx)
	if err != nil {
		return summary, err
	}
	for _, t := range trades {
		summary.Processed++
		if err := s.UpsertListingPolitician(&data.Politician{ID: t.PoliticianID}); err != nil {
			log.Warn().Err(err).Str("politician_id", t.PoliticianID).Msg("listing: skeleton politician upsert failed")
		}
		if err := s.UpsertListingIssuer(&data.Issuer{ID: t.IssuerID}); err != nil {
			log.Warn().Err(err).Int64("issuer_id", t.IssuerID).Msg("listing: skeleton issuer upsert failed")
		}
		if err := s.UpsertListingTrade(t); err != nil {
			log.Warn().Err(err).Int64("trade_id", t.ID).Msg("listing: trade upsert failed")
			summary.Failed++
			continue
		}
		summary.Succeeded++
	}

	issuers, err := client.ListAllIssuersSkeleton(ctx)
	if err != nil {
		return summary, err
	}
	for _, i := range issuers {
		if err := s.UpsertListingIssuer(i); err != nil {
			log.Warn().Err(err).Int64("issuer_id", i.ID).Msg("listing: issuer upsert failed")
		}
	}

	politicians, err := client.ListAllPoliticiansSkeleton(ctx)
	if err != nil {
		return summary, err
	}
	for _, p := range politicians {
		if err := s.UpsertListingPolitician(p); err != nil {
			log.Warn().Err(err).Str("politician_id", p.ID).Msg("listing: politician upsert failed")
		}
	}

	return summary, nil
}

func runTradeDetail(ctx context.Context, client *capitoltrades.Client, s *store.Store, opts orchestrator.Options) (*data.RunSummary, error) {
	pipeline := orchestrator.Pipeline[int64]{
		Name:   "trade-detail",
		GetIDs: func(ctx context.Context, batchCap int) ([]int64, error) { return s.GetUnenrichedTradeIDs(ctx, batchCap) },
		FetchDetail: func(ctx context.Context, id int64) (any, error) {
			return client.GetTradeDetail(ctx, id)
		},
		Persist: func(ctx context.Context, id int64, detail any) error {
			return s.UpdateTradeDetail(detail.(*data.Trade))
		},
	}
	return orchestrator.Run(ctx, pipeline, opts)
}

// runPoliticianDetail fills in the attribute fields (names, party, state,
// chamber, gender, DOB) the listing skeleton can't know. Its Persist is
// the sole writer of a politician's enriched_at, so a failed detail fetch
// leaves the row queued for the next run.
func runPoliticianDetail(ctx context.Context, client *capitoltrades.Client, s *store.Store, opts orchestrator.Options) (*data.RunSummary, error) {
	pipeline := orchestrator.Pipeline[string]{
		Name:   "politician-detail",
		GetIDs: func(ctx context.Context, batchCap int) ([]string, error) { return s.GetUnenrichedPoliticianIDs(ctx, batchCap) },
		FetchDetail: func(ctx context.Context, id string) (any, error) {
			return client.GetPoliticianDetail(ctx, id)
		},
		Persist: func(ctx context.Context, id string, detail any) error {
			return s.UpdatePoliticianDetail(detail.(*data.Politician))
		},
	}
	return orchestrator.Run(ctx, pipeline, opts)
}

func runIssuerDetail(ctx context.Context, client *capitoltrades.Client, s *store.Store, opts orchestrator.Options) (*data.RunSummary, error) {
	if opts.BreakerThreshold <= 0 {
		opts.BreakerThreshold = orchestrator.DefaultBreakerThreshold
	}
	pipeline := orchestrator.Pipeline[int64]{
		Name:   "issuer-detail",
		GetIDs: func(ctx context.Context, batchCap int) ([]int64, error) { return s.GetUnenrichedIssuerIDs(ctx, batchCap) },
		FetchDetail: func(ctx context.Context, id int64) (any, error) {
			return client.GetIssuerDetail(ctx, id)
		},
		Persist: func(ctx context.Context, id int64, detail any) error {
			return s.UpdateIssuerDetail(detail.(*data.Issuer))
		},
	}
	return orchestrator.Run(ctx, pipeline, opts)
}

// runPoliticianCommittees is the special-case pipeline: the detail page carries
// no committee membership, so the pipeline iterates the closed committee
// code list instead of per-politician ids, rebuilding the entire roster
// for each code. enriched_at is owned by the politician-detail stage, not
// this sweep: a politician whose detail fetch failed stays queued for the
// next run regardless of how many rosters listed them.
func runPoliticianCommittees(ctx context.Context, client *capitoltrades.Client, s *store.Store, opts orchestrator.Options) (*data.RunSummary, error) {
	pipeline := orchestrator.Pipeline[string]{
		Name:   "politician-committees",
		GetIDs: func(ctx context.Context, batchCap int) ([]string, error) { return data.CommitteeCodes, nil },
		FetchDetail: func(ctx context.Context, code string) (any, error) {
			return client.GetCommitteeMembers(ctx, code)
		},
		Persist: func(ctx context.Context, code string, detail any) error {
			return s.RebuildCommitteeRoster(code, detail.([]string))
		},
	}
	return orchestrator.Run(ctx, pipeline, opts)
}
