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

import "time"

// Donation is an FEC campaign contribution, keyed by the upstream
// contribution identifier. It links to a politician only indirectly,
// through the committee_id -> politician crosswalk (see store.PoliticianForDonation).
type Donation struct {
	ID                string  `db:"id"`
	ReceiptDate       time.Time `db:"receipt_date"`
	Amount            float64 `db:"amount"`
	ElectionCycle     int     `db:"election_cycle"`
	ContributorName   string  `db:"contributor_name"`
	ContributorEmployer string `db:"contributor_employer"`
	ContributorState  string  `db:"contributor_state"`
	CommitteeID       string  `db:"committee_id"`
}

// CommitteePolitician crosswalks an FEC committee identifier to the
// politician it supports. A committee maps to at most one politician;
// a politician may have several committees (principal campaign + leadership
// PAC, etc.) over their career, so the crosswalk is many-to-one, not 1:1.
type CommitteePolitician struct {
	CommitteeID  string `db:"committee_id"`
	PoliticianID string `db:"politician_id"`
}
