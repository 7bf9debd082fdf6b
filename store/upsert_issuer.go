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
	"database/sql"
	"fmt"
	"time"

	"github.com/capitoltrades/pvingest/data"
)

// UpsertListingIssuer writes a skeleton issuer row observed on a trade
// listing card. Listing cards often carry only the id, so every text
// column is sentinel-guarded: an incoming '' never clears a value the
// detail pass populated. market_cap is nullable-enrichment and is
// COALESCE-protected.
func (s *Store) UpsertListingIssuer(i *data.Issuer) error {
	_, err := s.db.Exec(`
		INSERT INTO issuers (id, name, ticker, sector, state, country, market_cap)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = COALESCE(NULLIF(excluded.name, ''), issuers.name),
			ticker = COALESCE(NULLIF(excluded.ticker, ''), issuers.ticker),
			sector = COALESCE(NULLIF(excluded.sector, ''), issuers.sector),
			state = COALESCE(NULLIF(excluded.state, ''), issuers.state),
			country = COALESCE(NULLIF(excluded.country, ''), issuers.country),
			market_cap = COALESCE(excluded.market_cap, issuers.market_cap)
	`,
		i.ID, i.Name, i.Ticker, i.Sector, i.State, i.Country, nullableFloat(i.MarketCap),
	)
	if err != nil {
		return fmt.Errorf("store: upsert listing issuer %d: %w", i.ID, err)
	}
	return nil
}

// UpdateIssuerDetail applies an issuer detail-enrichment pass: the detail
// payload is authoritative for name/ticker/sector/state/country (guarded
// against an empty parse so '' never clears a populated value), market_cap
// is COALESCE-protected, enriched_at is stamped, and the EOD/performance
// side tables are rebuilt wholesale.
func (s *Store) UpdateIssuerDetail(i *data.Issuer) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin issuer detail tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE issuers SET
			name = COALESCE(NULLIF(?, ''), name),
			ticker = COALESCE(NULLIF(?, ''), ticker),
			sector = COALESCE(NULLIF(?, ''), sector),
			state = COALESCE(NULLIF(?, ''), state),
			country = COALESCE(NULLIF(?, ''), country),
			market_cap = COALESCE(?, market_cap),
			enriched_at = ?
		WHERE id = ?
	`, i.Name, i.Ticker, i.Sector, i.State, i.Country,
		nullableFloat(i.MarketCap), time.Now().UTC().Format(time.RFC3339), i.ID)
	if err != nil {
		return fmt.Errorf("store: update issuer detail %d: %w", i.ID, err)
	}

	if err := rebuildIssuerEOD(tx, i.ID, i.EOD); err != nil {
		return err
	}
	if err := rebuildIssuerPerformance(tx, i.ID, i.Performance); err != nil {
		return err
	}

	return tx.Commit()
}

func rebuildIssuerEOD(tx *sql.Tx, issuerID int64, points []data.EODPrice) error {
	if _, err := tx.Exec(`DELETE FROM issuer_eod_prices WHERE issuer_id = ?`, issuerID); err != nil {
		return fmt.Errorf("store: clear issuer eod %d: %w", issuerID, err)
	}
	for _, p := range points {
		if _, err := tx.Exec(`INSERT INTO issuer_eod_prices (issuer_id, price_date, price) VALUES (?, ?, ?)`,
			issuerID, p.Date.Format(isoDate), p.Price); err != nil {
			return fmt.Errorf("store: insert issuer eod %d/%s: %w", issuerID, p.Date.Format(isoDate), err)
		}
	}
	return nil
}

func rebuildIssuerPerformance(tx *sql.Tx, issuerID int64, points []data.PerformancePoint) error {
	if _, err := tx.Exec(`DELETE FROM issuer_performance WHERE issuer_id = ?`, issuerID); err != nil {
		return fmt.Errorf("store: clear issuer performance %d: %w", issuerID, err)
	}
	for _, p := range points {
		if _, err := tx.Exec(`INSERT INTO issuer_performance (issuer_id, window, return_percent, absolute_change) VALUES (?, ?, ?, ?)`,
			issuerID, string(p.Window), p.ReturnPercent, p.AbsoluteChange); err != nil {
			return fmt.Errorf("store: insert issuer performance %d/%s: %w", issuerID, p.Window, err)
		}
	}
	return nil
}

// UpdateTradePrices writes the three price-enrichment phases for a
// single trade: trade-date price, current price, benchmark price, and the
// price_attempted flag marking a phase that looked back and found nothing.
func (s *Store) UpdateTradePrices(tradeID int64, tradeDatePrice, currentPrice, benchmarkPrice sql.NullFloat64, attempted bool) error {
	_, err := s.db.Exec(`
		UPDATE trades SET
			trade_date_price = COALESCE(?, trade_date_price),
			current_price = COALESCE(?, current_price),
			benchmark_price = COALESCE(?, benchmark_price),
			price_attempted = ?
		WHERE id = ?
	`, nullableFloat(tradeDatePrice), nullableFloat(currentPrice), nullableFloat(benchmarkPrice), attempted, tradeID)
	if err != nil {
		return fmt.Errorf("store: update trade prices %d: %w", tradeID, err)
	}
	return nil
}
