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

// Package matcher is the employer -> issuer entity-resolution subsystem:
// corporate-suffix normalization, a blacklist of non-employer
// donor strings, two-tier (exact then fuzzy) matching against the issuer
// universe, and an export/import workflow for human-in-the-loop
// confirmation of fuzzy suggestions. Fuzzy matches are never persisted
// automatically; Match itself writes nothing, and only the seed loader and
// the CSV import path write to the confirmed mapping store.
package matcher

import (
	"regexp"
	"strings"

	"github.com/xrash/smetrics"

	"github.com/capitoltrades/pvingest/data"
)

// DefaultThreshold is the Jaro-Winkler similarity a candidate must meet or
// exceed (and stay below 1.0, which is reserved for exact matches) to be
// surfaced as a fuzzy suggestion.
const DefaultThreshold = 0.85

// minNormalizedLength is the shortest normalized employer string eligible
// for fuzzy matching. Below this length, short strings like "Ford" and
// "Hartford" collide too easily, so only an exact match is accepted.
const minNormalizedLength = 5

// corporateSuffixes is the ordered suffix-stripping list, sorted longest
// first so "corporation" is tried before the "corp" prefix it contains.
var corporateSuffixes = sortedSuffixes([]string{
	"incorporated", "corporation", "partnership",
	"l.l.c.", "l.p.",
	"gmbh", "ltd", "plc", "llc", "inc", "corp", "co", "ag",
})

func sortedSuffixes(suffixes []string) []string {
	out := append([]string(nil), suffixes...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// blacklist is the fixed set of donor "employer" strings that are not
// actually employers and should never be matched against the issuer
// universe.
var blacklist = map[string]struct{}{
	"retired":        {},
	"self-employed":  {},
	"self employed":  {},
	"homemaker":      {},
	"student":        {},
	"unemployed":     {},
	"n/a":            {},
	"none":           {},
	"not employed":   {},
	"none listed":    {},
	"not applicable": {},
}

// Normalize trims, lowercases, strips at most one trailing corporate
// suffix (longest-first so "corporation" never partially matches as
// "corp"), strips trailing punctuation, and collapses internal
// whitespace. Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	n := strings.ToLower(strings.TrimSpace(raw))
	n = whitespaceRun.ReplaceAllString(n, " ")
	n = stripTrailingPunctuation(n)

	for _, suffix := range corporateSuffixes {
		trimmed, ok := stripSuffixWord(n, suffix)
		if ok {
			n = stripTrailingPunctuation(strings.TrimSpace(trimmed))
			break
		}
	}

	return n
}

// stripSuffixWord removes suffix from the end of n only when it is
// preceded by a word boundary (space or start of string), so "inc" does
// not strip the tail of "Zinc".
func stripSuffixWord(n, suffix string) (string, bool) {
	if !strings.HasSuffix(n, suffix) {
		return n, false
	}
	before := n[:len(n)-len(suffix)]
	if before != "" && !strings.HasSuffix(before, " ") && !strings.HasSuffix(before, ".") && !strings.HasSuffix(before, ",") {
		return n, false
	}
	return strings.TrimRight(before, " ."), true
}

func stripTrailingPunctuation(s string) string {
	return strings.TrimRight(s, ".,;: ")
}

// IsBlacklisted reports whether raw's trimmed, lowercased form is a known
// non-employer placeholder ("retired", "self-employed", "n/a", ...).
func IsBlacklisted(raw string) bool {
	key := strings.ToLower(strings.TrimSpace(raw))
	_, ok := blacklist[key]
	return ok
}

// Candidate is one entry in the issuer universe Match scans: a display
// name plus the ticker it resolves to.
type Candidate = data.IssuerCandidate

// Match resolves a raw donor-reported employer string against issuers,
// as follows:
//  1. blacklisted input -> Skipped result, no candidate scan.
//  2. normalized length < 5 -> exact equality only, to avoid short-string
//     false positives.
//  3. exact match on normalized name -> confidence 1.0, type exact.
//  4. else best Jaro-Winkler candidate >= threshold (and < 1.0) -> type
//     fuzzy. Fuzzy results are never persisted by Match itself; callers
//     route them to the export/import workflow for human confirmation.
func Match(raw string, issuers []Candidate, threshold float64) data.MatchResult {
	if IsBlacklisted(raw) {
		return data.MatchResult{Skipped: true}
	}

	n := Normalize(raw)
	if n == "" {
		return data.MatchResult{Skipped: true}
	}

	shortInput := len(n) < minNormalizedLength

	var bestTicker string
	var bestScore float64
	for _, c := range issuers {
		cn := Normalize(c.Name)
		if cn == n {
			return data.MatchResult{Matched: true, Ticker: c.Ticker, Confidence: 1.0, Type: data.MatchExact}
		}
		if shortInput {
			continue
		}
		score := smetrics.JaroWinkler(n, cn, 0.7, 4)
		if score > bestScore {
			bestScore = score
			bestTicker = c.Ticker
		}
	}

	if shortInput {
		return data.MatchResult{}
	}

	if bestScore >= threshold && bestScore < 1.0 {
		return data.MatchResult{Matched: true, Ticker: bestTicker, Confidence: bestScore, Type: data.MatchFuzzy}
	}

	return data.MatchResult{}
}
