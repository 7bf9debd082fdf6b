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

// UpsertListingPolitician writes a skeleton politician row observed on a
// trade listing card. Listing cards often carry only the id, so every
// text column is sentinel-guarded: an incoming '' never clears a value
// the detail pass populated.
func (s *Store) UpsertListingPolitician(p *data.Politician) error {
	_, err := s.db.Exec(`
		INSERT INTO politicians (id, first_name, last_name, full_name, party, state, chamber, gender, dob)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = COALESCE(NULLIF(excluded.first_name, ''), politicians.first_name),
			last_name = COALESCE(NULLIF(excluded.last_name, ''), politicians.last_name),
			full_name = COALESCE(NULLIF(excluded.full_name, ''), politicians.full_name),
			party = COALESCE(NULLIF(excluded.party, ''), politicians.party),
			state = COALESCE(NULLIF(excluded.state, ''), politicians.state),
			chamber = COALESCE(NULLIF(excluded.chamber, ''), politicians.chamber),
			gender = COALESCE(NULLIF(excluded.gender, ''), politicians.gender),
			dob = COALESCE(excluded.dob, politicians.dob)
	`,
		p.ID, p.FirstName, p.LastName, p.FullName, string(p.Party), p.State, string(p.Chamber), p.Gender, nullableDOB(p),
	)
	if err != nil {
		return fmt.Errorf("store: upsert listing politician %s: %w", p.ID, err)
	}
	return nil
}

func nullableDOB(p *data.Politician) interface{} {
	if !p.DOB.Valid {
		return nil
	}
	return p.DOB.Time.Format(isoDate)
}

// UpdatePoliticianDetail applies a politician detail-enrichment pass: the
// detail payload is authoritative for the attribute columns (guarded
// against an empty parse so '' never clears a populated value), dob is
// COALESCE-protected, and enriched_at is stamped.
func (s *Store) UpdatePoliticianDetail(p *data.Politician) error {
	_, err := s.db.Exec(`
		UPDATE politicians SET
			first_name = COALESCE(NULLIF(?, ''), first_name),
			last_name = COALESCE(NULLIF(?, ''), last_name),
			full_name = COALESCE(NULLIF(?, ''), full_name),
			party = COALESCE(NULLIF(?, ''), party),
			state = COALESCE(NULLIF(?, ''), state),
			chamber = COALESCE(NULLIF(?, ''), chamber),
			gender = COALESCE(NULLIF(?, ''), gender),
			dob = COALESCE(?, dob),
			enriched_at = ?
		WHERE id = ?
	`,
		p.FirstName, p.LastName, p.FullName, string(p.Party), p.State,
		string(p.Chamber), p.Gender, nullableDOB(p),
		time.Now().UTC().Format(time.RFC3339), p.ID,
	)
	if err != nil {
		return fmt.Errorf("store: update politician detail %s: %w", p.ID, err)
	}
	return nil
}

// UpdatePoliticianCommittees rebuilds a single politician's membership set
// wholesale (delete-all-then-insert) and stamps enriched_at. Nothing in
// this module calls it; the committee sweep uses RebuildCommitteeRoster,
// which does not stamp enriched_at.
func (s *Store) UpdatePoliticianCommittees(politicianID string, committees []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin committee tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM politician_committees WHERE politician_id = ?`, politicianID); err != nil {
		return fmt.Errorf("store: clear committees for %s: %w", politicianID, err)
	}
	for _, code := range committees {
		if err := insertPoliticianCommitteeGuarded(tx, politicianID, code); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`UPDATE politicians SET enriched_at = ? WHERE id = ?`, time.Now().UTC().Format(time.RFC3339), politicianID); err != nil {
		return fmt.Errorf("store: stamp politician enriched_at %s: %w", politicianID, err)
	}

	return tx.Commit()
}

// insertPoliticianCommitteeGuarded inserts a single membership row, silently
// skipping it if the politician id has no row in politicians (a committee
// roster may list a member with no trade history, hence no skeleton row).
func insertPoliticianCommitteeGuarded(tx *sql.Tx, politicianID, code string) error {
	var exists int
	if err := tx.QueryRow(`SELECT 1 FROM politicians WHERE id = ?`, politicianID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("store: check politician exists %s: %w", politicianID, err)
	}
	if _, err := tx.Exec(`INSERT INTO politician_committees (politician_id, committee_code) VALUES (?, ?)`, politicianID, code); err != nil {
		return fmt.Errorf("store: insert politician committee %s/%s: %w", politicianID, code, err)
	}
	return nil
}

// RebuildCommitteeRoster is the per-committee-code half of the
// politician-committee pipeline: for committee code, replace its entire
// roster with members, guarding each insert against a missing politician
// row the same way UpdatePoliticianCommittees does per-politician.
func (s *Store) RebuildCommitteeRoster(committeeCode string, members []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin roster tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM politician_committees WHERE committee_code = ?`, committeeCode); err != nil {
		return fmt.Errorf("store: clear roster %s: %w", committeeCode, err)
	}
	for _, pid := range members {
		if err := insertPoliticianCommitteeGuarded(tx, pid, committeeCode); err != nil {
			return err
		}
	}
	return tx.Commit()
}
