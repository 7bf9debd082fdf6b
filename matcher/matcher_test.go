package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitoltrades/pvingest/data"
)

func TestNormalizeStripsSuffixLongestFirst(t *testing.T) {
	assert.Equal(t, "apple", Normalize("Apple Inc."))
	assert.Equal(t, "acme", Normalize("Acme Corporation"))
	assert.Equal(t, "acme", Normalize("Acme Corp"))
	assert.Equal(t, "widget", Normalize("  Widget   LLC  "))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	cases := []string{"Apple Inc.", "Acme Corporation", "Self-Employed", "Vinci Studios"}
	for _, c := range cases {
		once := Normalize(c)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "Normalize(%q) not idempotent", c)
	}
}

func TestNormalizeDoesNotStripMidWordMatch(t *testing.T) {
	// "Vinci" ends in "inci", not a word-boundary "inc" suffix.
	assert.Equal(t, "da vinci", Normalize("Da Vinci"))
}

func TestIsBlacklisted(t *testing.T) {
	assert.True(t, IsBlacklisted("Retired"))
	assert.True(t, IsBlacklisted("SELF-EMPLOYED"))
	assert.True(t, IsBlacklisted(" N/A "))
	assert.False(t, IsBlacklisted("Apple Inc"))
}

func TestMatchSkipsBlacklistedInput(t *testing.T) {
	result := Match("Retired", nil, DefaultThreshold)
	assert.True(t, result.Skipped)
	assert.False(t, result.Matched)
}

func TestMatchExact(t *testing.T) {
	candidates := []Candidate{{Name: "Apple Inc", Ticker: "AAPL"}}
	result := Match("Apple Inc.", candidates, DefaultThreshold)
	assert.True(t, result.Matched)
	assert.Equal(t, "AAPL", result.Ticker)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, data.MatchExact, result.Type)
}

func TestMatchFuzzySuggestsCloseIssuer(t *testing.T) {
	candidates := []Candidate{
		{Name: "Apple Hospitality REIT", Ticker: "APLE"},
		{Name: "Microsoft Corporation", Ticker: "MSFT"},
	}
	result := Match("Apple Hospitality", candidates, DefaultThreshold)
	assert.True(t, result.Matched)
	assert.Equal(t, "APLE", result.Ticker)
	assert.Equal(t, data.MatchFuzzy, result.Type)
	assert.True(t, result.Confidence < 1.0)
}

func TestMatchShortInputIsExactOnly(t *testing.T) {
	candidates := []Candidate{{Name: "Gap Inc", Ticker: "GPS"}}
	// "Ga" normalizes to 2 characters, below the fuzzy-eligible length,
	// so a near-miss candidate must not surface as a fuzzy suggestion.
	result := Match("Ga", candidates, DefaultThreshold)
	assert.False(t, result.Matched)
}

func TestMatchShortInputStillExactMatches(t *testing.T) {
	candidates := []Candidate{{Name: "Gap Inc", Ticker: "GPS"}}
	result := Match("Gap", candidates, DefaultThreshold)
	assert.True(t, result.Matched)
	assert.Equal(t, data.MatchExact, result.Type)
}

func TestMatchNoCandidatesAboveThreshold(t *testing.T) {
	candidates := []Candidate{{Name: "Totally Unrelated Holdings", Ticker: "TUH"}}
	result := Match("Apple Hospitality", candidates, DefaultThreshold)
	assert.False(t, result.Matched)
}
