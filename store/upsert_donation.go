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
	"fmt"

	"github.com/capitoltrades/pvingest/data"
)

// UpsertDonation writes a single FEC contribution record. Donations are
// reported once and never enriched further, so every column is
// always-authoritative.
func (s *Store) UpsertDonation(d *data.Donation) error {
	_, err := s.db.Exec(`
		INSERT INTO donations (id, receipt_date, amount, election_cycle, contributor_name, contributor_employer, contributor_state, committee_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			receipt_date = excluded.receipt_date,
			amount = excluded.amount,
			election_cycle = excluded.election_cycle,
			contributor_name = excluded.contributor_name,
			contributor_employer = excluded.contributor_employer,
			contributor_state = excluded.contributor_state,
			committee_id = excluded.committee_id
	`,
		d.ID, d.ReceiptDate.Format(isoDate), d.Amount, d.ElectionCycle, d.ContributorName, d.ContributorEmployer, d.ContributorState, d.CommitteeID,
	)
	if err != nil {
		return fmt.Errorf("store: upsert donation %s: %w", d.ID, err)
	}
	return nil
}

// UpsertCommitteePolitician writes one committee->politician crosswalk
// entry. A committee maps to at most one politician.
func (s *Store) UpsertCommitteePolitician(cp *data.CommitteePolitician) error {
	_, err := s.db.Exec(`
		INSERT INTO committee_politicians (committee_id, politician_id)
		VALUES (?, ?)
		ON CONFLICT(committee_id) DO UPDATE SET politician_id = excluded.politician_id
	`, cp.CommitteeID, cp.PoliticianID)
	if err != nil {
		return fmt.Errorf("store: upsert committee crosswalk %s: %w", cp.CommitteeID, err)
	}
	return nil
}

// PoliticianForDonation resolves a donation's committee_id to the
// politician it supports via the crosswalk, returning ("", nil) when the
// committee has no known politician (e.g. a non-candidate PAC).
func (s *Store) PoliticianForDonation(d *data.Donation) (string, error) {
	var politicianID string
	err := s.db.QueryRow(`SELECT politician_id FROM committee_politicians WHERE committee_id = ?`, d.CommitteeID).Scan(&politicianID)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("store: resolve donation politician %s: %w", d.ID, err)
	}
	return politicianID, nil
}
