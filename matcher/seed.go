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
	_ "embed"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/capitoltrades/pvingest/data"
)

//go:embed seed.toml
var seedTOML []byte

// SeedMapping is one compile-time-curated employer -> issuer entry: a set
// of raw name variants that all resolve to the same canonical ticker.
type SeedMapping struct {
	EmployerNames []string `toml:"employer_names"`
	IssuerTicker  string   `toml:"issuer_ticker"`
	Sector        string   `toml:"sector"`
	Confidence    float64  `toml:"confidence"`
	Notes         string   `toml:"notes,omitempty"`
}

type seedTable struct {
	Mapping []SeedMapping `toml:"mapping"`
}

// Seeds parses the compile-time-embedded seed table.
func Seeds() ([]SeedMapping, error) {
	var t seedTable
	if err := toml.Unmarshal(seedTOML, &t); err != nil {
		return nil, fmt.Errorf("matcher: parse seed data: %w", err)
	}
	return t.Mapping, nil
}

// seedStore is the subset of *store.Store LoadSeed needs, kept narrow so
// matcher doesn't import the store package's full surface just to seed.
type seedStore interface {
	UpsertEmployerMapping(*data.EmployerMapping) error
	UpsertEmployerLookup(*data.EmployerLookup) error
}

// LoadSeed populates both employer_mappings (normalized -> ticker,
// confidence 1.0, type seed) and the employer_lookup bridge (each raw
// variant, lowercased -> normalized) from the embedded seed table. Safe
// to call more than once: every write is an upsert.
func LoadSeed(ctx context.Context, s seedStore) (int, error) {
	seeds, err := Seeds()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, seed := range seeds {
		if len(seed.EmployerNames) == 0 {
			continue
		}
		normalized := Normalize(seed.EmployerNames[0])
		if normalized == "" {
			continue
		}

		if err := s.UpsertEmployerMapping(&data.EmployerMapping{
			NormalizedEmployer: normalized,
			IssuerTicker:       seed.IssuerTicker,
			Confidence:         1.0,
			MatchType:          data.MatchSeed,
		}); err != nil {
			return count, err
		}

		for _, variant := range seed.EmployerNames {
			if err := s.UpsertEmployerLookup(&data.EmployerLookup{
				RawEmployerLower:   strings.ToLower(strings.TrimSpace(variant)),
				NormalizedEmployer: normalized,
			}); err != nil {
				return count, err
			}
		}
		count++
	}
	return count, nil
}
