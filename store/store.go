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

// Package store is the embedded, single-file, relational store:
// schema and migrations, an upsert layer that protects enriched fields
// from listing re-ingest, and a query layer over the resulting tables.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// isoDate is the date-only layout used for every date column; timestamps
// that carry time-of-day use time.RFC3339 instead.
const isoDate = "2006-01-02"

// Store wraps a single sqlite connection pool. sqlite serializes writers
// at the file level regardless of Go-side pooling, so the pool is capped
// at one connection to make that external constraint visible locally
// rather than surfacing as SQLITE_BUSY under concurrent writers.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite file at path, sets the
// required pragmas, and runs pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("store: set foreign_keys: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		return nil, fmt.Errorf("store: set journal_mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA synchronous = NORMAL`); err != nil {
		return nil, fmt.Errorf("store: set synchronous: %w", err)
	}

	s := &Store{db: db}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying pool for packages (scany/sqlscan) that take a
// *sql.DB or *sql.Tx directly.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// Stats is a point-in-time snapshot of row counts, used by the sync
// command's summary output and by tests asserting ingest shape.
type Stats struct {
	Trades       int
	Politicians  int
	Issuers      int
	Donations    int
	UnenrichedTrades      int
	UnenrichedIssuers     int
	UnenrichedPoliticians int
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	queries := []struct {
		dst   *int
		query string
	}{
		{&st.Trades, `SELECT COUNT(*) FROM trades`},
		{&st.Politicians, `SELECT COUNT(*) FROM politicians`},
		{&st.Issuers, `SELECT COUNT(*) FROM issuers`},
		{&st.Donations, `SELECT COUNT(*) FROM donations`},
		{&st.UnenrichedTrades, `SELECT COUNT(*) FROM trades WHERE enriched_at IS NULL`},
		{&st.UnenrichedIssuers, `SELECT COUNT(*) FROM issuers WHERE enriched_at IS NULL`},
		{&st.UnenrichedPoliticians, `SELECT COUNT(*) FROM politicians WHERE enriched_at IS NULL`},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.dst); err != nil {
			return Stats{}, fmt.Errorf("store: stats: %w", err)
		}
	}
	return st, nil
}
