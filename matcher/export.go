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
package matcher

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"

	"github.com/capitoltrades/pvingest/data"
)

// ExportRow is one line of the employer-review spreadsheet: an unmatched
// employer, its normalized form, the best fuzzy suggestion (if any), and
// an empty ConfirmedTicker column for human review.
type ExportRow struct {
	Employer           string `csv:"employer"`
	Normalized         string `csv:"normalized"`
	SuggestionTicker   string `csv:"suggestion_ticker"`
	SuggestionName     string `csv:"suggestion_name"`
	SuggestionSector   string `csv:"suggestion_sector"`
	Confidence         string `csv:"confidence"`
	ConfirmedTicker    string `csv:"confirmed_ticker"`
	Notes              string `csv:"notes"`
}

// formulaPrefixes are the leading characters a spreadsheet application
// will interpret as the start of a formula; any exported field starting
// with one is tab-prefixed to defeat formula injection.
var formulaPrefixes = []string{"=", "+", "-", "@"}

func sanitizeCSVField(s string) string {
	for _, p := range formulaPrefixes {
		if strings.HasPrefix(s, p) {
			return "\t" + s
		}
	}
	return s
}

// exportStore is the subset of *store.Store Export/Import need.
type exportStore interface {
	ListUnmappedEmployers(ctx context.Context) ([]string, error)
	IssuerCandidates(ctx context.Context) ([]data.IssuerCandidate, error)
	GetIssuerByTicker(ctx context.Context, ticker string) (*data.Issuer, error)
	UpsertEmployerMapping(*data.EmployerMapping) error
	UpsertEmployerLookup(*data.EmployerLookup) error
}

// Export writes every unmatched employer (per store.ListUnmappedEmployers)
// to w as a CSV with the top fuzzy suggestion attached, for human review.
// Rows with no suggestion above threshold still appear, with blank
// suggestion columns, so a reviewer can hand-assign a ticker.
func Export(ctx context.Context, s exportStore, w io.Writer, threshold float64) (int, error) {
	employers, err := s.ListUnmappedEmployers(ctx)
	if err != nil {
		return 0, err
	}
	candidates, err := s.IssuerCandidates(ctx)
	if err != nil {
		return 0, err
	}

	rows := make([]*ExportRow, 0, len(employers))
	for _, raw := range employers {
		row := &ExportRow{
			Employer:   sanitizeCSVField(raw),
			Normalized: sanitizeCSVField(Normalize(raw)),
		}

		result := Match(raw, candidates, threshold)
		if result.Matched {
			row.SuggestionTicker = sanitizeCSVField(result.Ticker)
			row.Confidence = fmt.Sprintf("%.4f", result.Confidence)
			for _, c := range candidates {
				if c.Ticker == result.Ticker {
					row.SuggestionName = sanitizeCSVField(c.Name)
					row.SuggestionSector = sanitizeCSVField(c.Sector)
					break
				}
			}
		}
		rows = append(rows, row)
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return 0, fmt.Errorf("matcher: marshal export: %w", err)
	}
	return len(rows), nil
}

// Import reads back a reviewed export file. Only Employer and
// ConfirmedTicker are consulted. Blank ConfirmedTicker rows are skipped
// silently — an
// unchanged export round-trips as a no-op on the mapping store, the
// idempotence law. An unknown ticker is skipped with a warning, never
// inserted.
func Import(ctx context.Context, s exportStore, r io.Reader) (imported, skipped int, err error) {
	var rows []*ExportRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return 0, 0, fmt.Errorf("matcher: unmarshal import: %w", err)
	}

	for _, row := range rows {
		ticker := strings.TrimSpace(row.ConfirmedTicker)
		if ticker == "" {
			skipped++
			continue
		}

		issuer, err := s.GetIssuerByTicker(ctx, ticker)
		if err != nil || issuer == nil {
			log.Warn().Str("employer", row.Employer).Str("ticker", ticker).Msg("confirmed ticker not found in issuers, skipping")
			skipped++
			continue
		}

		normalized := Normalize(row.Employer)
		if normalized == "" {
			skipped++
			continue
		}

		if err := s.UpsertEmployerMapping(&data.EmployerMapping{
			NormalizedEmployer: normalized,
			IssuerTicker:       ticker,
			Confidence:         1.0,
			MatchType:          data.MatchManual,
		}); err != nil {
			return imported, skipped, err
		}
		if err := s.UpsertEmployerLookup(&data.EmployerLookup{
			RawEmployerLower:   strings.ToLower(strings.TrimSpace(row.Employer)),
			NormalizedEmployer: normalized,
		}); err != nil {
			return imported, skipped, err
		}
		imported++
	}

	return imported, skipped, nil
}
