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
package parse

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/capitoltrades/pvingest/data"
)

type rawPolitician struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"name"`
	Party     string `json:"party"`
	State     string `json:"state"`
	Chamber   string `json:"chamber"`
	Gender    string `json:"gender"`
	DOB       string `json:"dob"`
}

// DecodePolitician parses a "politician" fragment.
func DecodePolitician(fragment []byte) (*data.Politician, error) {
	var raw rawPolitician
	if err := json.Unmarshal(fragment, &raw); err != nil {
		return nil, &ExtractionError{Key: "politician", Reason: err.Error()}
	}

	p := &data.Politician{
		ID:        raw.ID,
		FirstName: raw.FirstName,
		LastName:  raw.LastName,
		FullName:  raw.FullName,
		Party:     data.Party(raw.Party),
		State:     raw.State,
		Chamber:   data.Chamber(raw.Chamber),
		Gender:    raw.Gender,
	}

	if dob, err := time.Parse(isoDate, raw.DOB); err == nil {
		p.DOB.Time = dob
		p.DOB.Valid = true
	}

	return p, nil
}

// rawCommitteeListing is the embedded payload for a committee member
// listing page: an array of politician ids currently seated on it.
type rawCommitteeListing struct {
	Members []string `json:"members"`
}

// DecodeCommitteeMembers parses a "committeeMembers" fragment into the
// list of politician ids currently seated on that committee.
func DecodeCommitteeMembers(fragment []byte) ([]string, error) {
	var raw rawCommitteeListing
	if err := json.Unmarshal(fragment, &raw); err != nil {
		return nil, &ExtractionError{Key: "committeeMembers", Reason: err.Error()}
	}
	return raw.Members, nil
}
