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
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/capitoltrades/pvingest/data"
)

// TradeFilter is the typed WHERE-clause builder for trade reads. Every
// populated field is parameter-bound, never interpolated.
type TradeFilter struct {
	PoliticianID    string
	IssuerTicker    string
	Party           string
	State           string
	TransactionType string
	DateFrom        *time.Time
	DateTo          *time.Time
	AmountMin       *float64
	AmountMax       *float64
	Limit           int
}

func (f TradeFilter) clause() (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.PoliticianID != "" {
		conds = append(conds, "t.politician_id = ?")
		args = append(args, f.PoliticianID)
	}
	if f.IssuerTicker != "" {
		conds = append(conds, "i.ticker = ?")
		args = append(args, f.IssuerTicker)
	}
	if f.Party != "" {
		conds = append(conds, "p.party = ?")
		args = append(args, f.Party)
	}
	if f.State != "" {
		conds = append(conds, "p.state = ?")
		args = append(args, f.State)
	}
	if f.TransactionType != "" {
		conds = append(conds, "t.transaction_type = ?")
		args = append(args, f.TransactionType)
	}
	if f.DateFrom != nil {
		conds = append(conds, "t.transaction_date >= ?")
		args = append(args, f.DateFrom.Format(isoDate))
	}
	if f.DateTo != nil {
		conds = append(conds, "t.transaction_date <= ?")
		args = append(args, f.DateTo.Format(isoDate))
	}
	if f.AmountMin != nil {
		conds = append(conds, "t.value_low >= ?")
		args = append(args, *f.AmountMin)
	}
	if f.AmountMax != nil {
		conds = append(conds, "t.value_high <= ?")
		args = append(args, *f.AmountMax)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// tradeRow mirrors the joined query's column set; comma-concatenated side
// columns are split back into slices after scan.
type tradeRow struct {
	data.Trade
	CommitteesConcat string `db:"committees_concat"`
	LabelsConcat     string `db:"labels_concat"`
}

// FindTrades returns trades matching filter, joined with their committee
// and label side tables, ordered by transaction_date descending.
func (s *Store) FindTrades(ctx context.Context, filter TradeFilter) ([]*data.Trade, error) {
	where, args := filter.clause()

	limit := "LIMIT 500"
	if filter.Limit > 0 {
		limit = fmt.Sprintf("LIMIT %d", filter.Limit)
	}

	query := fmt.Sprintf(`
		SELECT
			t.id, t.publish_date, t.transaction_date, t.transaction_type, t.owner,
			t.value_low, t.value_high, t.chamber, t.politician_id, t.issuer_id,
			t.filing_url, t.filing_id, t.asset_type, t.capital_gains,
			t.reporting_gap_days, t.size_shares, t.price_estimate,
			t.trade_date_price, t.current_price, t.benchmark_price,
			t.price_attempted, t.enriched_at,
			COALESCE(GROUP_CONCAT(DISTINCT tc.committee_code), '') AS committees_concat,
			COALESCE(GROUP_CONCAT(DISTINCT tl.label), '') AS labels_concat
		FROM trades t
		JOIN politicians p ON p.id = t.politician_id
		JOIN issuers i ON i.id = t.issuer_id
		LEFT JOIN trade_committees tc ON tc.trade_id = t.id
		LEFT JOIN trade_labels tl ON tl.trade_id = t.id
		%s
		GROUP BY t.id
		ORDER BY t.transaction_date DESC
		%s
	`, where, limit)

	var rows []tradeRow
	if err := sqlscan.Select(ctx, s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("store: find trades: %w", err)
	}

	trades := make([]*data.Trade, 0, len(rows))
	for _, r := range rows {
		t := r.Trade
		t.Committees = splitConcat(r.CommitteesConcat)
		t.Labels = splitConcat(r.LabelsConcat)
		trades = append(trades, &t)
	}
	return trades, nil
}

func splitConcat(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// CountUnenrichedTrades returns the number of trades awaiting detail
// enrichment.
func (s *Store) CountUnenrichedTrades(ctx context.Context) (int, error) {
	return s.countUnenriched(ctx, `SELECT COUNT(*) FROM trades WHERE enriched_at IS NULL`)
}

// CountUnenrichedIssuers returns the number of issuers awaiting detail
// enrichment.
func (s *Store) CountUnenrichedIssuers(ctx context.Context) (int, error) {
	return s.countUnenriched(ctx, `SELECT COUNT(*) FROM issuers WHERE enriched_at IS NULL`)
}

// CountUnenrichedPoliticians returns the number of politicians awaiting
// detail enrichment.
func (s *Store) CountUnenrichedPoliticians(ctx context.Context) (int, error) {
	return s.countUnenriched(ctx, `SELECT COUNT(*) FROM politicians WHERE enriched_at IS NULL`)
}

func (s *Store) countUnenriched(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count unenriched: %w", err)
	}
	return n, nil
}

// GetUnenrichedTradeIDs returns trade ids with enriched_at IS NULL, primary
// key ascending. limit <= 0 means no limit.
func (s *Store) GetUnenrichedTradeIDs(ctx context.Context, limit int) ([]int64, error) {
	query := `SELECT id FROM trades WHERE enriched_at IS NULL ORDER BY id ASC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var ids []int64
	if err := sqlscan.Select(ctx, s.db, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("store: get unenriched trade ids: %w", err)
	}
	return ids, nil
}

// GetUnenrichedIssuerIDs returns issuer ids with enriched_at IS NULL,
// primary key ascending.
func (s *Store) GetUnenrichedIssuerIDs(ctx context.Context, limit int) ([]int64, error) {
	query := `SELECT id FROM issuers WHERE enriched_at IS NULL ORDER BY id ASC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var ids []int64
	if err := sqlscan.Select(ctx, s.db, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("store: get unenriched issuer ids: %w", err)
	}
	return ids, nil
}

// GetUnenrichedPoliticianIDs returns politician ids with enriched_at IS
// NULL, primary key ascending.
func (s *Store) GetUnenrichedPoliticianIDs(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT id FROM politicians WHERE enriched_at IS NULL ORDER BY id ASC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var ids []string
	if err := sqlscan.Select(ctx, s.db, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("store: get unenriched politician ids: %w", err)
	}
	return ids, nil
}

// GetTrade loads a single trade by id, without side-table joins.
func (s *Store) GetTrade(ctx context.Context, id int64) (*data.Trade, error) {
	var t data.Trade
	err := sqlscan.Get(ctx, s.db, &t, `
		SELECT id, publish_date, transaction_date, transaction_type, owner,
			value_low, value_high, chamber, politician_id, issuer_id,
			filing_url, filing_id, asset_type, capital_gains,
			reporting_gap_days, size_shares, price_estimate,
			trade_date_price, current_price, benchmark_price,
			price_attempted, enriched_at
		FROM trades WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("store: get trade %d: %w", id, err)
	}
	return &t, nil
}

// GetIssuer loads a single issuer by id.
func (s *Store) GetIssuer(ctx context.Context, id int64) (*data.Issuer, error) {
	var i data.Issuer
	err := sqlscan.Get(ctx, s.db, &i, `
		SELECT id, name, ticker, sector, state, country, market_cap, enriched_at
		FROM issuers WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("store: get issuer %d: %w", id, err)
	}
	return &i, nil
}

// GetIssuerByTicker loads a single issuer by ticker, used by the matcher
// to validate an employer-mapping candidate ticker exists.
func (s *Store) GetIssuerByTicker(ctx context.Context, ticker string) (*data.Issuer, error) {
	var i data.Issuer
	err := sqlscan.Get(ctx, s.db, &i, `
		SELECT id, name, ticker, sector, state, country, market_cap, enriched_at
		FROM issuers WHERE ticker = ?
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("store: get issuer by ticker %s: %w", ticker, err)
	}
	return &i, nil
}

// ListAllTickers returns every distinct issuer ticker on file, for the
// matcher's candidate universe.
func (s *Store) ListAllTickers(ctx context.Context) ([]string, error) {
	var tickers []string
	if err := sqlscan.Select(ctx, s.db, &tickers, `SELECT DISTINCT ticker FROM issuers WHERE ticker != ''`); err != nil {
		return nil, fmt.Errorf("store: list tickers: %w", err)
	}
	return tickers, nil
}

// UnpricedDate is one (ticker, trade_date) pair. ListUnpricedTradeDates
// returns the pairs needing a trade-date price fetch, deduplicated so N
// trades on the same (ticker, date) collapse to one external request.
type UnpricedDate struct {
	Ticker string `db:"ticker"`
	Date   string `db:"transaction_date"`
}

func (s *Store) ListUnpricedTradeDates(ctx context.Context) ([]UnpricedDate, error) {
	var rows []UnpricedDate
	err := sqlscan.Select(ctx, s.db, &rows, `
		SELECT DISTINCT i.ticker, t.transaction_date
		FROM trades t
		JOIN issuers i ON i.id = t.issuer_id
		WHERE t.trade_date_price IS NULL AND t.price_attempted = 0 AND i.ticker != ''
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list unpriced trade dates: %w", err)
	}
	return rows, nil
}

// TradesForPriceUpdate returns trades matching (ticker, date) that still
// need their trade-date price written, so a single fetched quote can be
// fanned out to every matching row.
func (s *Store) TradesForPriceUpdate(ctx context.Context, ticker, date string) ([]int64, error) {
	var ids []int64
	err := sqlscan.Select(ctx, s.db, &ids, `
		SELECT t.id FROM trades t
		JOIN issuers i ON i.id = t.issuer_id
		WHERE i.ticker = ? AND t.transaction_date = ? AND t.trade_date_price IS NULL
	`, ticker, date)
	if err != nil {
		return nil, fmt.Errorf("store: trades for price update %s/%s: %w", ticker, date, err)
	}
	return ids, nil
}

// ListTickersNeedingCurrentPrice returns every distinct ticker with at
// least one trade still missing a current price.
func (s *Store) ListTickersNeedingCurrentPrice(ctx context.Context) ([]string, error) {
	var tickers []string
	err := sqlscan.Select(ctx, s.db, &tickers, `
		SELECT DISTINCT i.ticker
		FROM trades t
		JOIN issuers i ON i.id = t.issuer_id
		WHERE t.current_price IS NULL AND i.ticker != ''
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list tickers needing current price: %w", err)
	}
	return tickers, nil
}

// TradesForCurrentPriceUpdate returns every trade for ticker still
// missing a current price, so a single fetched quote fans out to every
// matching row.
func (s *Store) TradesForCurrentPriceUpdate(ctx context.Context, ticker string) ([]int64, error) {
	var ids []int64
	err := sqlscan.Select(ctx, s.db, &ids, `
		SELECT t.id FROM trades t
		JOIN issuers i ON i.id = t.issuer_id
		WHERE i.ticker = ? AND t.current_price IS NULL
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("store: trades for current price update %s: %w", ticker, err)
	}
	return ids, nil
}

// ListUnbenchmarkedTradeDates returns (ticker, trade_date) pairs whose
// trades still need a benchmark price, deduplicated the same way
// ListUnpricedTradeDates is for the trade-date phase.
func (s *Store) ListUnbenchmarkedTradeDates(ctx context.Context) ([]UnpricedDate, error) {
	var rows []UnpricedDate
	err := sqlscan.Select(ctx, s.db, &rows, `
		SELECT DISTINCT i.ticker, t.transaction_date
		FROM trades t
		JOIN issuers i ON i.id = t.issuer_id
		WHERE t.benchmark_price IS NULL AND i.ticker != ''
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list unbenchmarked trade dates: %w", err)
	}
	return rows, nil
}

// TradesForBenchmarkUpdate returns trades matching (ticker, date) that
// still need their benchmark price written.
func (s *Store) TradesForBenchmarkUpdate(ctx context.Context, ticker, date string) ([]int64, error) {
	var ids []int64
	err := sqlscan.Select(ctx, s.db, &ids, `
		SELECT t.id FROM trades t
		JOIN issuers i ON i.id = t.issuer_id
		WHERE i.ticker = ? AND t.transaction_date = ? AND t.benchmark_price IS NULL
	`, ticker, date)
	if err != nil {
		return nil, fmt.Errorf("store: trades for benchmark update %s/%s: %w", ticker, date, err)
	}
	return ids, nil
}

// DonationGroup is one grouped aggregation row over donations.
type DonationGroup struct {
	Key   string  `db:"grp"`
	Sum   float64 `db:"sum_amount"`
	Count int     `db:"count_amount"`
	Avg   float64 `db:"avg_amount"`
	Min   float64 `db:"min_amount"`
	Max   float64 `db:"max_amount"`
}

// DonationGroupBy is the closed set of grouping selectors for donation
// aggregation reads.
type DonationGroupBy string

const (
	GroupByContributor DonationGroupBy = "contributor_name"
	GroupByEmployer     DonationGroupBy = "contributor_employer"
	GroupByState        DonationGroupBy = "contributor_state"
)

// DonationFilter is the typed WHERE-clause builder for donation reads.
type DonationFilter struct {
	CommitteeID string
	State       string
	CycleFrom   int
	CycleTo     int
}

func (f DonationFilter) clause() (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.CommitteeID != "" {
		conds = append(conds, "committee_id = ?")
		args = append(args, f.CommitteeID)
	}
	if f.State != "" {
		conds = append(conds, "contributor_state = ?")
		args = append(args, f.State)
	}
	if f.CycleFrom > 0 {
		conds = append(conds, "election_cycle >= ?")
		args = append(args, f.CycleFrom)
	}
	if f.CycleTo > 0 {
		conds = append(conds, "election_cycle <= ?")
		args = append(args, f.CycleTo)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// AggregateDonations groups donations by groupBy and returns SUM/COUNT/
// AVG/MIN/MAX over amount per group.
func (s *Store) AggregateDonations(ctx context.Context, filter DonationFilter, groupBy DonationGroupBy) ([]DonationGroup, error) {
	where, args := filter.clause()
	query := fmt.Sprintf(`
		SELECT %s AS grp,
			SUM(amount) AS sum_amount,
			COUNT(*) AS count_amount,
			AVG(amount) AS avg_amount,
			MIN(amount) AS min_amount,
			MAX(amount) AS max_amount
		FROM donations
		%s
		GROUP BY %s
		ORDER BY sum_amount DESC
	`, groupBy, where, groupBy)

	var rows []DonationGroup
	if err := sqlscan.Select(ctx, s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("store: aggregate donations: %w", err)
	}
	return rows, nil
}
