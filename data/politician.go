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
package data

import (
	"database/sql"

	"github.com/rs/zerolog"
)

// Party is the closed set of party affiliations the upstream site reports.
type Party string

const (
	PartyDemocrat   Party = "democrat"
	PartyRepublican Party = "republican"
	PartyIndependent Party = "independent"
	PartyUnknown    Party = "unknown"
)

// Politician is keyed by the upstream string identifier (e.g. "P000197").
// Created as a side-effect of trade listing ingest; its scalar fields are
// filled by the politician-detail pass, and its committee membership by
// the committee sweep, which never touches its scalar fields.
type Politician struct {
	ID        string `db:"id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	FullName  string `db:"full_name"`
	Party     Party  `db:"party"`
	State     string `db:"state"`
	Chamber   Chamber `db:"chamber"`
	Gender    string `db:"gender"`
	DOB       sql.NullTime `db:"dob"`

	// EnrichedAt is set by the politician-detail pipeline once a
	// politician's detail page has been fetched and persisted. The
	// committee sweep does not write it.
	EnrichedAt sql.NullTime `db:"enriched_at"`

	// Committees is the current membership set, rebuilt wholesale by the
	// committee-enrichment pipeline (delete-all-then-insert per run).
	Committees []string `db:"-"`
}

// NeedsCommitteeEnrichment reports whether enriched_at is still unset,
// i.e. whether this politician still awaits a politician-detail pass. The
// committee sweep works from the fixed committee-code list and does not
// consult it.
func (p *Politician) NeedsCommitteeEnrichment() bool {
	return !p.EnrichedAt.Valid
}

// MarshalZerologObject logs a Politician as a structured object.
func (p *Politician) MarshalZerologObject(e *zerolog.Event) {
	e.Str("ID", p.ID)
	e.Str("FullName", p.FullName)
	e.Str("Party", string(p.Party))
	e.Str("State", p.State)
	e.Str("Chamber", string(p.Chamber))
	e.Strs("Committees", p.Committees)
}
