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
	"database/sql"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/capitoltrades/pvingest/data"
)

// ListPoliticianIDsWithTrades returns every politician id that has at
// least one trade on file, the positions engine's driving set.
func (s *Store) ListPoliticianIDsWithTrades(ctx context.Context) ([]string, error) {
	var ids []string
	err := sqlscan.Select(ctx, s.db, &ids, `SELECT DISTINCT politician_id FROM trades ORDER BY politician_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list politicians with trades: %w", err)
	}
	return ids, nil
}

// PositionTrade is the narrow trade projection the positions engine
// consumes: just enough to run FIFO lot accounting, with the issuer
// ticker already resolved so the engine never has to join.
type PositionTrade struct {
	ID              int64                `db:"id"`
	TransactionDate time.Time            `db:"transaction_date"`
	TransactionType data.TransactionType `db:"transaction_type"`
	ValueLow        float64             `db:"value_low"`
	ValueHigh       float64             `db:"value_high"`
	AssetType       string              `db:"asset_type"`
	SizeShares      sql.NullFloat64     `db:"size_shares"`
	PriceEstimate   sql.NullFloat64     `db:"price_estimate"`
	Ticker          string              `db:"ticker"`
}

// TradesForPositions returns every trade for politicianID, joined to its
// issuer's ticker, ordered oldest-first (transaction date, then id as a
// stable tiebreaker) for FIFO lot accounting.
func (s *Store) TradesForPositions(ctx context.Context, politicianID string) ([]PositionTrade, error) {
	var rows []PositionTrade
	err := sqlscan.Select(ctx, s.db, &rows, `
		SELECT t.id, t.transaction_date, t.transaction_type,
			t.value_low, t.value_high,
			t.asset_type, t.size_shares, t.price_estimate, i.ticker AS ticker
		FROM trades t
		JOIN issuers i ON i.id = t.issuer_id
		WHERE t.politician_id = ? AND i.ticker != ''
		ORDER BY t.transaction_date ASC, t.id ASC
	`, politicianID)
	if err != nil {
		return nil, fmt.Errorf("store: trades for positions %s: %w", politicianID, err)
	}
	return rows, nil
}

// ReplacePositions replaces every position row for politicianID with
// positions, in a single transaction (delete-then-insert, the same
// rebuild pattern the upsert layer uses for side tables), the positions
// engine's "batched upsert".
func (s *Store) ReplacePositions(politicianID string, positions []*data.Position) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin positions tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM positions WHERE politician_id = ?`, politicianID); err != nil {
		return fmt.Errorf("store: clear positions %s: %w", politicianID, err)
	}
	for _, p := range positions {
		if _, err := tx.Exec(`
			INSERT INTO positions (politician_id, ticker, shares_held, cost_basis, realized_pnl, last_updated)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.PoliticianID, p.Ticker, p.SharesHeld, p.CostBasis, p.RealizedPNL, p.LastUpdated.Format(isoDate)); err != nil {
			return fmt.Errorf("store: insert position %s/%s: %w", p.PoliticianID, p.Ticker, err)
		}
	}

	return tx.Commit()
}

// PositionFilter is the typed WHERE-clause builder for position reads.
type PositionFilter struct {
	PoliticianID string
	Ticker       string
}

// FindPositions returns materialized positions matching filter.
func (s *Store) FindPositions(ctx context.Context, filter PositionFilter) ([]*data.Position, error) {
	query := `SELECT politician_id, ticker, shares_held, cost_basis, realized_pnl, last_updated FROM positions`
	var conds []string
	var args []interface{}
	if filter.PoliticianID != "" {
		conds = append(conds, "politician_id = ?")
		args = append(args, filter.PoliticianID)
	}
	if filter.Ticker != "" {
		conds = append(conds, "ticker = ?")
		args = append(args, filter.Ticker)
	}
	if len(conds) > 0 {
		query += " WHERE "
		for i, c := range conds {
			if i > 0 {
				query += " AND "
			}
			query += c
		}
	}
	query += " ORDER BY politician_id ASC, ticker ASC"

	var positions []*data.Position
	if err := sqlscan.Select(ctx, s.db, &positions, query, args...); err != nil {
		return nil, fmt.Errorf("store: find positions: %w", err)
	}
	return positions, nil
}
