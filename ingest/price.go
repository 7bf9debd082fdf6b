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
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/capitoltrades/pvingest/data"
	"github.com/capitoltrades/pvingest/orchestrator"
	"github.com/capitoltrades/pvingest/quote"
	"github.com/capitoltrades/pvingest/store"
)

// PriceResult is the three-phase price-enrichment stage's combined
// summary: trade-date price, current price, and benchmark price each run
// as an independent orchestrator.Pipeline over their own id set.
type PriceResult struct {
	TradeDate *data.RunSummary
	Current   *data.RunSummary
	Benchmark *data.RunSummary
}

// RunPriceEnrichment executes the three price phases in order: the trade-date
// price (one fetch per distinct (ticker, date) pair, fanned out to every
// matching trade row), the current price (one fetch per distinct ticker
// still missing one), and the benchmark price (the sector ETF's close on
// the trade date). Each phase sets price_attempted once it has made an
// attempt, win or lose. Only the trade-date phase's id query reads the
// flag back, so a (ticker, date) pair with no quote is not fetched again
// there; the current and benchmark phases select rows by a NULL price alone.
func RunPriceEnrichment(ctx context.Context, src *quote.Source, s *store.Store, opts orchestrator.Options) (*PriceResult, error) {
	if opts.BreakerThreshold <= 0 {
		opts.BreakerThreshold = orchestrator.PriceBreakerThreshold
	}

	result := &PriceResult{}

	tradeDate, err := runTradeDatePrice(ctx, src, s, opts)
	result.TradeDate = tradeDate
	if err != nil {
		return result, fmt.Errorf("ingest: trade-date price phase: %w", err)
	}

	current, err := runCurrentPrice(ctx, src, s, opts)
	result.Current = current
	if err != nil {
		return result, fmt.Errorf("ingest: current price phase: %w", err)
	}

	benchmark, err := runBenchmarkPrice(ctx, src, s, opts)
	result.Benchmark = benchmark
	if err != nil {
		return result, fmt.Errorf("ingest: benchmark price phase: %w", err)
	}

	return result, nil
}

// priceKey identifies one (ticker, trade_date) pair the trade-date and
// benchmark phases key their fetches on.
type priceKey struct {
	Ticker string
	Date   string
}

func runTradeDatePrice(ctx context.Context, src *quote.Source, s *store.Store, opts orchestrator.Options) (*data.RunSummary, error) {
	pipeline := orchestrator.Pipeline[priceKey]{
		Name: "price-trade-date",
		GetIDs: func(ctx context.Context, batchCap int) ([]priceKey, error) {
			rows, err := s.ListUnpricedTradeDates(ctx)
			if err != nil {
				return nil, err
			}
			keys := make([]priceKey, 0, len(rows))
			for _, r := range rows {
				keys = append(keys, priceKey{Ticker: r.Ticker, Date: r.Date})
			}
			if batchCap > 0 && len(keys) > batchCap {
				keys = keys[:batchCap]
			}
			return keys, nil
		},
		FetchDetail: func(ctx context.Context, key priceKey) (any, error) {
			d, err := time.Parse("2006-01-02", key.Date)
			if err != nil {
				return nil, fmt.Errorf("ingest: parse trade date %q: %w", key.Date, err)
			}
			q, err := src.Historical(ctx, key.Ticker, d)
			if err != nil {
				// No quote within the lookback window still counts as an
				// attempt: the caller persists a null price with attempted=true.
				// Transport and vendor failures surface so the phase breaker
				// sees them.
				if errors.Is(err, quote.ErrNoQuote) {
					return (*quote.Quote)(nil), nil
				}
				return nil, err
			}
			return q, nil
		},
		Persist: func(ctx context.Context, key priceKey, detail any) error {
			ids, err := s.TradesForPriceUpdate(ctx, key.Ticker, key.Date)
			if err != nil {
				return err
			}
			q, _ := detail.(*quote.Quote)
			price := sql.NullFloat64{}
			if q != nil {
				price = sql.NullFloat64{Float64: q.Close, Valid: true}
			}
			for _, id := range ids {
				if err := s.UpdateTradePrices(id, price, sql.NullFloat64{}, sql.NullFloat64{}, true); err != nil {
					log.Warn().Err(err).Int64("trade_id", id).Msg("price: trade-date update failed")
				}
			}
			return nil
		},
	}
	return orchestrator.Run(ctx, pipeline, opts)
}

func runCurrentPrice(ctx context.Context, src *quote.Source, s *store.Store, opts orchestrator.Options) (*data.RunSummary, error) {
	pipeline := orchestrator.Pipeline[string]{
		Name: "price-current",
		GetIDs: func(ctx context.Context, batchCap int) ([]string, error) {
			tickers, err := s.ListTickersNeedingCurrentPrice(ctx)
			if err != nil {
				return nil, err
			}
			if batchCap > 0 && len(tickers) > batchCap {
				tickers = tickers[:batchCap]
			}
			return tickers, nil
		},
		FetchDetail: func(ctx context.Context, ticker string) (any, error) {
			q, err := src.Current(ctx, ticker)
			if err != nil {
				if errors.Is(err, quote.ErrNoQuote) {
					return (*quote.Quote)(nil), nil
				}
				return nil, err
			}
			return q, nil
		},
		Persist: func(ctx context.Context, ticker string, detail any) error {
			ids, err := s.TradesForCurrentPriceUpdate(ctx, ticker)
			if err != nil {
				return err
			}
			q, _ := detail.(*quote.Quote)
			price := sql.NullFloat64{}
			if q != nil {
				price = sql.NullFloat64{Float64: q.Close, Valid: true}
			}
			for _, id := range ids {
				if err := s.UpdateTradePrices(id, sql.NullFloat64{}, price, sql.NullFloat64{}, true); err != nil {
					log.Warn().Err(err).Int64("trade_id", id).Msg("price: current update failed")
				}
			}
			return nil
		},
	}
	return orchestrator.Run(ctx, pipeline, opts)
}

func runBenchmarkPrice(ctx context.Context, src *quote.Source, s *store.Store, opts orchestrator.Options) (*data.RunSummary, error) {
	pipeline := orchestrator.Pipeline[priceKey]{
		Name: "price-benchmark",
		GetIDs: func(ctx context.Context, batchCap int) ([]priceKey, error) {
			rows, err := s.ListUnbenchmarkedTradeDates(ctx)
			if err != nil {
				return nil, err
			}
			keys := make([]priceKey, 0, len(rows))
			for _, r := range rows {
				keys = append(keys, priceKey{Ticker: r.Ticker, Date: r.Date})
			}
			if batchCap > 0 && len(keys) > batchCap {
				keys = keys[:batchCap]
			}
			return keys, nil
		},
		FetchDetail: func(ctx context.Context, key priceKey) (any, error) {
			issuer, err := s.GetIssuerByTicker(ctx, key.Ticker)
			if err != nil || issuer == nil {
				return (*quote.Quote)(nil), nil
			}
			d, err := time.Parse("2006-01-02", key.Date)
			if err != nil {
				return nil, fmt.Errorf("ingest: parse benchmark date %q: %w", key.Date, err)
			}
			benchTicker := data.BenchmarkTickerFor(issuer.Sector)
			q, err := src.Historical(ctx, benchTicker, d)
			if err != nil {
				if errors.Is(err, quote.ErrNoQuote) {
					return (*quote.Quote)(nil), nil
				}
				return nil, err
			}
			return q, nil
		},
		Persist: func(ctx context.Context, key priceKey, detail any) error {
			ids, err := s.TradesForBenchmarkUpdate(ctx, key.Ticker, key.Date)
			if err != nil {
				return err
			}
			q, _ := detail.(*quote.Quote)
			price := sql.NullFloat64{}
			if q != nil {
				price = sql.NullFloat64{Float64: q.Close, Valid: true}
			}
			for _, id := range ids {
				if err := s.UpdateTradePrices(id, sql.NullFloat64{}, sql.NullFloat64{}, price, true); err != nil {
					log.Warn().Err(err).Int64("trade_id", id).Msg("price: benchmark update failed")
				}
			}
			return nil
		},
	}
	return orchestrator.Run(ctx, pipeline, opts)
}
