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
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LastEnriched returns the most recent enriched_at timestamp across all
// entity tables, or the zero time when nothing has been enriched yet.
func (s *Store) LastEnriched() (time.Time, error) {
	var latest time.Time
	for _, table := range []string{"trades", "politicians", "issuers"} {
		var raw sql.NullString
		query := fmt.Sprintf(`SELECT MAX(enriched_at) FROM %s`, table)
		if err := s.db.QueryRow(query).Scan(&raw); err != nil {
			return time.Time{}, fmt.Errorf("store: last enriched: %w", err)
		}
		if !raw.Valid {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw.String)
		if err != nil {
			continue
		}
		if ts.After(latest) {
			latest = ts
		}
	}
	return latest, nil
}

// Summary returns a description of the database in markdown
func (s *Store) Summary(path string) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString("# capitoltrades database\n\n## Details\n\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(fmt.Sprintf("Database: %s\n\n", path)); err != nil {
		return "", err
	}

	stats, err := s.Stats()
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Trades: %d (%d unenriched)\n", stats.Trades, stats.UnenrichedTrades)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Politicians: %d (%d unenriched)\n", stats.Politicians, stats.UnenrichedPoliticians)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Issuers: %d (%d unenriched)\n", stats.Issuers, stats.UnenrichedIssuers)); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Donations: %d\n\n", stats.Donations)); err != nil {
		return "", err
	}

	lastEnriched, err := s.LastEnriched()
	if err != nil {
		return "", err
	}

	if lastEnriched.Equal(time.Time{}) {
		if _, err := builder.WriteString("Last Enriched: Never\n"); err != nil {
			return "", err
		}
	} else {
		age := timeago.English.Format(lastEnriched)
		if _, err := builder.WriteString(fmt.Sprintf("Last Enriched: %s (%s)\n", age, lastEnriched.Local().Format("01/02/2006"))); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}
