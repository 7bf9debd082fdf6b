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

	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/capitoltrades/pvingest/data"
)

// UpsertEmployerMapping writes one curated normalized-employer -> ticker
// mapping, overwriting any existing row. Its callers are the matcher's
// seed loader and the confirmed human-review import path; the matcher
// never calls it for a fuzzy result.
func (s *Store) UpsertEmployerMapping(m *data.EmployerMapping) error {
	_, err := s.db.Exec(`
		INSERT INTO employer_mappings (normalized_employer, issuer_ticker, confidence, match_type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(normalized_employer) DO UPDATE SET
			issuer_ticker = excluded.issuer_ticker,
			confidence = excluded.confidence,
			match_type = excluded.match_type
	`, m.NormalizedEmployer, m.IssuerTicker, m.Confidence, string(m.MatchType))
	if err != nil {
		return fmt.Errorf("store: upsert employer mapping %s: %w", m.NormalizedEmployer, err)
	}
	return nil
}

// UpsertEmployerLookup writes one raw(lowercased) -> normalized employer
// bridge row, so later reads can join without calling Normalize.
func (s *Store) UpsertEmployerLookup(l *data.EmployerLookup) error {
	_, err := s.db.Exec(`
		INSERT INTO employer_lookup (raw_employer_lower, normalized_employer)
		VALUES (?, ?)
		ON CONFLICT(raw_employer_lower) DO UPDATE SET normalized_employer = excluded.normalized_employer
	`, l.RawEmployerLower, l.NormalizedEmployer)
	if err != nil {
		return fmt.Errorf("store: upsert employer lookup %s: %w", l.RawEmployerLower, err)
	}
	return nil
}

// GetEmployerMapping returns the curated mapping for a normalized employer
// string, if one has been confirmed (exact, seed, or manual).
func (s *Store) GetEmployerMapping(ctx context.Context, normalized string) (*data.EmployerMapping, error) {
	var m data.EmployerMapping
	err := sqlscan.Get(ctx, s.db, &m, `
		SELECT normalized_employer, issuer_ticker, confidence, match_type
		FROM employer_mappings WHERE normalized_employer = ?
	`, normalized)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get employer mapping %s: %w", normalized, err)
	}
	return &m, nil
}

// ListEmployerMappings returns every curated mapping on file.
func (s *Store) ListEmployerMappings(ctx context.Context) ([]data.EmployerMapping, error) {
	var rows []data.EmployerMapping
	err := sqlscan.Select(ctx, s.db, &rows, `
		SELECT normalized_employer, issuer_ticker, confidence, match_type FROM employer_mappings
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list employer mappings: %w", err)
	}
	return rows, nil
}

// IssuerCandidates returns every issuer's (name, ticker, sector) row, the
// candidate universe the matcher scans.
func (s *Store) IssuerCandidates(ctx context.Context) ([]data.IssuerCandidate, error) {
	var rows []data.IssuerCandidate
	err := sqlscan.Select(ctx, s.db, &rows, `SELECT name, ticker, sector FROM issuers WHERE ticker != ''`)
	if err != nil {
		return nil, fmt.Errorf("store: issuer candidates: %w", err)
	}
	return rows, nil
}

// UnmappedEmployer is one distinct donor-reported employer string with no
// confirmed mapping yet, the export path's row source.
type UnmappedEmployer struct {
	Employer string `db:"contributor_employer"`
}

// ListUnmappedEmployers returns every distinct non-blank contributor
// employer string that has no row in employer_lookup yet (i.e. has not
// been confirmed by the seed loader or the import path), for the export
// workflow.
func (s *Store) ListUnmappedEmployers(ctx context.Context) ([]string, error) {
	var rows []UnmappedEmployer
	err := sqlscan.Select(ctx, s.db, &rows, `
		SELECT DISTINCT d.contributor_employer
		FROM donations d
		LEFT JOIN employer_lookup el ON el.raw_employer_lower = LOWER(d.contributor_employer)
		WHERE d.contributor_employer != '' AND el.raw_employer_lower IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list unmapped employers: %w", err)
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Employer
	}
	return out, nil
}
