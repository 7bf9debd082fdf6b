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

// Package data holds the domain entities shared by the store, parser, and
// orchestrator packages: trades, politicians, issuers, donations, employer
// mappings, and derived positions.
package data

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog"
)

// TransactionType is the closed set of disclosed transaction kinds.
type TransactionType string

const (
	TransactionBuy      TransactionType = "buy"
	TransactionSell     TransactionType = "sell"
	TransactionExchange TransactionType = "exchange"
	TransactionReceive  TransactionType = "receive"
)

// Owner identifies whose holding a trade reports.
type Owner string

const (
	OwnerSelf      Owner = "self"
	OwnerSpouse    Owner = "spouse"
	OwnerDependent Owner = "dependent"
	OwnerJoint     Owner = "joint"
)

// Chamber is the legislative body a politician sits in.
type Chamber string

const (
	ChamberHouse  Chamber = "house"
	ChamberSenate Chamber = "senate"
)

// Sentinel values used by listing ingest for fields only a detail pass can
// know. Upsert logic (store package) treats these specially: an incoming
// value equal to the sentinel never overwrites a previously enriched row.
const (
	SentinelFilingURL  = ""
	SentinelFilingID   = int64(0)
	SentinelAssetType  = "unknown"
	SentinelCapGains   = false
	ReportingGapUnset  = -1
	SentinelCommittees = "" // internal: join-table rebuild has no column sentinel
)

// Trade is a disclosed transaction, keyed by the upstream-assigned numeric
// trade identifier. Created with sentinel defaults by listing ingest;
// mutated by detail enrichment. Never deleted.
type Trade struct {
	ID              int64     `db:"id"`
	PublishDate     time.Time `db:"publish_date"`
	TransactionDate time.Time `db:"transaction_date"`
	TransactionType TransactionType `db:"transaction_type"`
	Owner           Owner     `db:"owner"`
	ValueLow        float64   `db:"value_low"`
	ValueHigh       float64   `db:"value_high"`
	Chamber         Chamber   `db:"chamber"`
	PoliticianID    string    `db:"politician_id"`
	IssuerID        int64     `db:"issuer_id"`

	// Sentinel-defaulted fields: only detail enrichment knows the real
	// value; listing ingest writes the sentinel.
	FilingURL     string `db:"filing_url"`
	FilingID      int64  `db:"filing_id"`
	AssetType     string `db:"asset_type"`
	CapitalGains  bool   `db:"capital_gains"`

	// Nullable enrichment fields protected by COALESCE on upsert.
	ReportingGapDays sql.NullInt64   `db:"reporting_gap_days"`
	SizeShares       sql.NullFloat64 `db:"size_shares"`
	PriceEstimate    sql.NullFloat64 `db:"price_estimate"`
	TradeDatePrice   sql.NullFloat64 `db:"trade_date_price"`
	CurrentPrice     sql.NullFloat64 `db:"current_price"`
	BenchmarkPrice   sql.NullFloat64 `db:"benchmark_price"`

	// PriceAttempted is set once a price-enrichment phase has looked back
	// up to 7 days for a quote and found nothing; prevents endless retry
	// of dates the quote source will never have.
	PriceAttempted bool `db:"price_attempted"`

	// EnrichedAt is non-NULL iff a detail-enrichment pass has completed
	// for this row, even if that pass produced no new data. The sole
	// skip predicate for the orchestrator's trade-detail pipeline.
	EnrichedAt sql.NullTime `db:"enriched_at"`

	// Side tables, populated by detail enrichment (delete-then-insert).
	Committees []string `db:"-"`
	Labels     []string `db:"-"`
}

// MarshalZerologObject lets a Trade be logged as a structured object.
func (t *Trade) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("ID", t.ID)
	e.Str("PoliticianID", t.PoliticianID)
	e.Int64("IssuerID", t.IssuerID)
	e.Str("TransactionType", string(t.TransactionType))
	e.Time("TransactionDate", t.TransactionDate)
	e.Float64("ValueLow", t.ValueLow)
	e.Float64("ValueHigh", t.ValueHigh)
	e.Str("FilingURL", t.FilingURL)
	e.Bool("EnrichedAt", t.EnrichedAt.Valid)
}

// NeedsDetailEnrichment reports whether this row is still awaiting a detail
// pass — the orchestrator's smart-skip predicate.
func (t *Trade) NeedsDetailEnrichment() bool {
	return !t.EnrichedAt.Valid
}
