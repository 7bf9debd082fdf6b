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

// UpsertListingTrade writes a skeleton trade row from listing data. Only
// always-authoritative columns overwrite unconditionally; sentinel
// columns overwrite only when the incoming value differs from the
// sentinel, and nullable enrichment columns/enriched_at are never touched
// here (they aren't in the column list at all).
func (s *Store) UpsertListingTrade(t *data.Trade) error {
	_, err := s.db.Exec(`
		INSERT INTO trades (
			id, publish_date, transaction_date, transaction_type, owner,
			value_low, value_high, chamber, politician_id, issuer_id,
			filing_url, filing_id, asset_type, capital_gains
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			publish_date = excluded.publish_date,
			transaction_date = excluded.transaction_date,
			transaction_type = excluded.transaction_type,
			owner = excluded.owner,
			value_low = excluded.value_low,
			value_high = excluded.value_high,
			chamber = excluded.chamber,
			politician_id = excluded.politician_id,
			issuer_id = excluded.issuer_id,
			filing_url = CASE WHEN excluded.filing_url != '' THEN excluded.filing_url ELSE trades.filing_url END,
			filing_id = CASE WHEN excluded.filing_id != 0 THEN excluded.filing_id ELSE trades.filing_id END,
			asset_type = CASE WHEN excluded.asset_type != 'unknown' THEN excluded.asset_type ELSE trades.asset_type END,
			capital_gains = CASE WHEN excluded.capital_gains != 0 THEN excluded.capital_gains ELSE trades.capital_gains END
	`,
		t.ID, t.PublishDate.Format(isoDate), t.TransactionDate.Format(isoDate), string(t.TransactionType), string(t.Owner),
		t.ValueLow, t.ValueHigh, string(t.Chamber), t.PoliticianID, t.IssuerID,
		t.FilingURL, t.FilingID, t.AssetType, t.CapitalGains,
	)
	if err != nil {
		return fmt.Errorf("store: upsert listing trade %d: %w", t.ID, err)
	}
	return nil
}

// UpdateTradeDetail applies a detail-enrichment pass: sentinel fields are
// now authoritative (the detail fetch is the source of truth for them),
// nullable fields are COALESCE-protected against a detail payload that
// didn't carry them, enriched_at is stamped, and the committee/label
// side tables are rebuilt wholesale. Runs in a single transaction,
// committed per-row.
func (s *Store) UpdateTradeDetail(t *data.Trade) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin trade detail tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE trades SET
			filing_url = ?,
			filing_id = ?,
			asset_type = ?,
			capital_gains = ?,
			reporting_gap_days = COALESCE(?, reporting_gap_days),
			size_shares = COALESCE(?, size_shares),
			price_estimate = COALESCE(?, price_estimate),
			enriched_at = ?
		WHERE id = ?
	`,
		t.FilingURL, t.FilingID, t.AssetType, t.CapitalGains,
		nullableInt(t.ReportingGapDays), nullableFloat(t.SizeShares), nullableFloat(t.PriceEstimate),
		time.Now().UTC().Format(time.RFC3339), t.ID,
	)
	if err != nil {
		return fmt.Errorf("store: update trade detail %d: %w", t.ID, err)
	}

	if err := rebuildTradeCommittees(tx, t.ID, t.Committees); err != nil {
		return err
	}
	if err := rebuildTradeLabels(tx, t.ID, t.Labels); err != nil {
		return err
	}

	return tx.Commit()
}

func rebuildTradeCommittees(tx *sql.Tx, tradeID int64, codes []string) error {
	if _, err := tx.Exec(`DELETE FROM trade_committees WHERE trade_id = ?`, tradeID); err != nil {
		return fmt.Errorf("store: clear trade committees %d: %w", tradeID, err)
	}
	for _, code := range codes {
		if _, err := tx.Exec(`INSERT INTO trade_committees (trade_id, committee_code) VALUES (?, ?)`, tradeID, code); err != nil {
			return fmt.Errorf("store: insert trade committee %d/%s: %w", tradeID, code, err)
		}
	}
	return nil
}

func rebuildTradeLabels(tx *sql.Tx, tradeID int64, labels []string) error {
	if _, err := tx.Exec(`DELETE FROM trade_labels WHERE trade_id = ?`, tradeID); err != nil {
		return fmt.Errorf("store: clear trade labels %d: %w", tradeID, err)
	}
	for _, label := range labels {
		if _, err := tx.Exec(`INSERT INTO trade_labels (trade_id, label) VALUES (?, ?)`, tradeID, label); err != nil {
			return fmt.Errorf("store: insert trade label %d/%s: %w", tradeID, label, err)
		}
	}
	return nil
}

func nullableInt(n sql.NullInt64) interface{} {
	if !n.Valid {
		return nil
	}
	return n.Int64
}

func nullableFloat(n sql.NullFloat64) interface{} {
	if !n.Valid {
		return nil
	}
	return n.Float64
}
