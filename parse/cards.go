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
	"regexp"
	"strconv"
)

// cardCountPattern accepts both "1 Trade" and "2 Trades" — and the same
// for "Politician"/"Politicians" and "Issuer"/"Issuers" — so a singular
// count on a listing card never fails extraction just because the
// upstream omits the plural 's'.
var cardCountPattern = regexp.MustCompile(`(?i)(\d+)\s+(Trade|Politician|Issuer)s?\b`)

// CardCount is one "N Label(s)" tally parsed off a listing card.
type CardCount struct {
	Count int
	Label string
}

// ParseCardCounts extracts every "N Label(s)" occurrence from a listing
// card's rendered text. Absence of a match is not an error — listing cards
// are not guaranteed to carry every count.
func ParseCardCounts(text string) []CardCount {
	matches := cardCountPattern.FindAllStringSubmatch(text, -1)
	counts := make([]CardCount, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		counts = append(counts, CardCount{Count: n, Label: m[2]})
	}
	return counts
}
