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

// Package positions is the portfolio positions engine: FIFO lot
// accounting over a politician's stock trade stream, materializing one
// row per (politician, ticker) with shares held, remaining cost basis,
// and accumulated realized P&L. It is invoked on demand, reads trades via
// the store's query layer, and replaces rows via a batched upsert — it
// never cascades into re-running other pipelines.
package positions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/capitoltrades/pvingest/data"
	"github.com/capitoltrades/pvingest/store"
)

// lot is a FIFO accounting unit, consumed oldest-first on a sale.
type lot = data.Lot

// ledger accumulates FIFO state for a single ticker while walking a
// politician's trades in date order.
type ledger struct {
	lots        []lot
	realizedPNL float64
}

func (l *ledger) buy(shares, costPerShare float64) {
	if shares <= 0 {
		return
	}
	l.lots = append(l.lots, lot{Shares: shares, CostPerShare: costPerShare})
}

// sell consumes the oldest lots first, accumulating realized P&L as
// (sellPrice - lotCost) * consumedShares per lot. Selling more shares than
// are on hand (a short, or a data gap) consumes every lot and stops —
// there is nothing left to account for beyond what was bought.
func (l *ledger) sell(shares, sellPrice float64) {
	remaining := shares
	i := 0
	for remaining > 0 && i < len(l.lots) {
		consume := l.lots[i].Shares
		if consume > remaining {
			consume = remaining
		}
		l.realizedPNL += (sellPrice - l.lots[i].CostPerShare) * consume
		l.lots[i].Shares -= consume
		remaining -= consume
		i++
	}
	// Drop fully-consumed lots from the front.
	kept := l.lots[:0]
	for _, lo := range l.lots {
		if lo.Shares > 0 {
			kept = append(kept, lo)
		}
	}
	l.lots = kept
}

func (l *ledger) sharesHeld() float64 {
	var total float64
	for _, lo := range l.lots {
		total += lo.Shares
	}
	return total
}

func (l *ledger) costBasis() float64 {
	var total float64
	for _, lo := range l.lots {
		total += lo.Shares * lo.CostPerShare
	}
	return total
}

// isStockAsset reports whether an asset type string represents a plain
// equity position rather than an option, which is excluded from FIFO
// accounting.
func isStockAsset(assetType string) bool {
	lower := strings.ToLower(assetType)
	if strings.Contains(lower, "option") {
		return false
	}
	return strings.Contains(lower, "stock") || lower == data.SentinelAssetType
}

// estimatedPrice derives a per-share price for a trade: the disclosed
// price estimate if present, else the value-range midpoint divided by the
// disclosed share count, or by 1 when no share count is disclosed (so with
// neither known, the price is the whole midpoint).
func estimatedPrice(t store.PositionTrade) float64 {
	shares := t.SizeShares.Float64
	if !t.SizeShares.Valid || shares <= 0 {
		shares = 1
	}
	if t.PriceEstimate.Valid && t.PriceEstimate.Float64 > 0 {
		return t.PriceEstimate.Float64
	}
	midpoint := (t.ValueLow + t.ValueHigh) / 2
	if shares <= 0 {
		return 0
	}
	return midpoint / shares
}

// shareCount returns the disclosed share count, falling back to an
// estimate derived from the value-range midpoint and the estimated price
// when the upstream filing only reports a value range (the
// "estimated share counts derived from value-range midpoints").
func shareCount(t store.PositionTrade) float64 {
	if t.SizeShares.Valid && t.SizeShares.Float64 > 0 {
		return t.SizeShares.Float64
	}
	price := estimatedPrice(t)
	if price <= 0 {
		return 0
	}
	midpoint := (t.ValueLow + t.ValueHigh) / 2
	return midpoint / price
}

// Compute runs FIFO lot accounting over trades (already ordered oldest
// first) and returns one Position per ticker, including fully-closed
// positions (shares_held == 0) for historical visibility.
func Compute(politicianID string, trades []store.PositionTrade, asOf time.Time) []*data.Position {
	ledgers := make(map[string]*ledger)
	order := make([]string, 0)

	for _, t := range trades {
		if !isStockAsset(t.AssetType) {
			continue
		}
		l, ok := ledgers[t.Ticker]
		if !ok {
			l = &ledger{}
			ledgers[t.Ticker] = l
			order = append(order, t.Ticker)
		}

		shares := shareCount(t)
		price := estimatedPrice(t)

		switch t.TransactionType {
		case data.TransactionBuy:
			l.buy(shares, price)
		case data.TransactionSell:
			l.sell(shares, price)
		case data.TransactionExchange, data.TransactionReceive:
			l.buy(shares, price)
		}
	}

	out := make([]*data.Position, 0, len(order))
	for _, ticker := range order {
		l := ledgers[ticker]
		out = append(out, &data.Position{
			PoliticianID: politicianID,
			Ticker:       ticker,
			SharesHeld:   l.sharesHeld(),
			CostBasis:    l.costBasis(),
			RealizedPNL:  l.realizedPNL,
			LastUpdated:  asOf,
		})
	}
	return out
}

// RunFor recomputes and replaces the position rows for a single
// politician.
func RunFor(ctx context.Context, s *store.Store, politicianID string, asOf time.Time) error {
	trades, err := s.TradesForPositions(ctx, politicianID)
	if err != nil {
		return fmt.Errorf("positions: load trades for %s: %w", politicianID, err)
	}

	positions := Compute(politicianID, trades, asOf)
	if err := s.ReplacePositions(politicianID, positions); err != nil {
		return fmt.Errorf("positions: replace positions for %s: %w", politicianID, err)
	}
	return nil
}

// RunAll recomputes positions for every politician with at least one
// trade on file. It is invoked on demand, never automatically after a
// sync.
func RunAll(ctx context.Context, s *store.Store, asOf time.Time) (int, error) {
	ids, err := s.ListPoliticianIDsWithTrades(ctx)
	if err != nil {
		return 0, fmt.Errorf("positions: list politicians: %w", err)
	}

	for _, id := range ids {
		if err := RunFor(ctx, s, id, asOf); err != nil {
			return 0, err
		}
	}
	log.Info().Int("politicians", len(ids)).Msg("recomputed positions")
	return len(ids), nil
}
