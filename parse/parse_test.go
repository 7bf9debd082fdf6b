package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFragments(t *testing.T) {
	html := `<html><script>self.push({"a":1})</script><body></body><script>self.push({"b":2})</script></html>`
	out := ExtractFragments(html)
	assert.Contains(t, out, `{"a":1}`)
	assert.Contains(t, out, `{"b":2}`)
}

func TestExtractObjectBalancesNestedBraces(t *testing.T) {
	text := `prelude "tradeData":{"_id":1,"nested":{"x":"}"},"done":true} trailer`
	raw, err := ExtractObject(text, "tradeData")
	require.NoError(t, err)
	assert.Equal(t, `{"_id":1,"nested":{"x":"}"},"done":true}`, string(raw))
}

func TestExtractObjectHandlesEscapedQuotes(t *testing.T) {
	text := `"tradeData":{"note":"she said \"hi\""}`
	raw, err := ExtractObject(text, "tradeData")
	require.NoError(t, err)
	assert.Equal(t, `{"note":"she said \"hi\""}`, string(raw))
}

func TestExtractObjectMissingKey(t *testing.T) {
	_, err := ExtractObject("no fragments here", "tradeData")
	require.Error(t, err)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
}

func TestExtractObjectUnbalanced(t *testing.T) {
	_, err := ExtractObject(`"tradeData":{"a":1`, "tradeData")
	require.Error(t, err)
}

func TestExtractObjectArray(t *testing.T) {
	text := `"committeeMembers":["P1","P2"]`
	raw, err := ExtractObject(text, "committeeMembers")
	require.NoError(t, err)
	assert.Equal(t, `["P1","P2"]`, string(raw))
}

func TestDecodeTradeSentinelsWhenAbsent(t *testing.T) {
	fragment := []byte(`{"_id":5,"pubDate":"2024-01-02","txDate":"2024-01-01","type":"buy","owner":"self","valueLow":1001,"valueHigh":15000,"chamber":"house","politicianId":"P1","issuerId":10}`)
	tr, err := DecodeTrade(fragment)
	require.NoError(t, err)
	assert.Equal(t, "", tr.FilingURL)
	assert.Equal(t, "unknown", tr.AssetType)
	assert.False(t, tr.SizeShares.Valid)
	assert.Equal(t, int64(5), tr.ID)
}

func TestDecodeTradeWithEnrichedFields(t *testing.T) {
	fragment := []byte(`{"_id":6,"pubDate":"2024-01-02","txDate":"2024-01-01","type":"sell","owner":"spouse","valueLow":1,"valueHigh":2,"chamber":"senate","politicianId":"P2","issuerId":11,"filingURL":"https://example.test/f","filingId":99,"assetType":"stock","size":100,"price":42.5}`)
	tr, err := DecodeTrade(fragment)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/f", tr.FilingURL)
	assert.Equal(t, "stock", tr.AssetType)
	assert.True(t, tr.SizeShares.Valid)
	assert.Equal(t, float64(100), tr.SizeShares.Float64)
	assert.True(t, tr.PriceEstimate.Valid)
}

func TestDecodeTradeReportingGap(t *testing.T) {
	// Explicit upstream value wins.
	fragment := []byte(`{"_id":7,"pubDate":"2024-02-01","txDate":"2024-01-01","type":"buy","owner":"self","politicianId":"P1","issuerId":10,"reportingGap":45}`)
	tr, err := DecodeTrade(fragment)
	require.NoError(t, err)
	require.True(t, tr.ReportingGapDays.Valid)
	assert.Equal(t, int64(45), tr.ReportingGapDays.Int64)

	// Absent upstream, derived from the publish/transaction dates.
	fragment = []byte(`{"_id":8,"pubDate":"2024-01-31","txDate":"2024-01-01","type":"buy","owner":"self","politicianId":"P1","issuerId":10}`)
	tr, err = DecodeTrade(fragment)
	require.NoError(t, err)
	require.True(t, tr.ReportingGapDays.Valid)
	assert.Equal(t, int64(30), tr.ReportingGapDays.Int64)
}

func TestDecodePolitician(t *testing.T) {
	fragment := []byte(`{"_id":"P000197","firstName":"Jane","lastName":"Doe","name":"Jane Doe","party":"democrat","state":"CA","chamber":"house","gender":"F","dob":"1970-05-01"}`)
	p, err := DecodePolitician(fragment)
	require.NoError(t, err)
	assert.Equal(t, "P000197", p.ID)
	assert.True(t, p.DOB.Valid)
}

func TestDecodeIssuer(t *testing.T) {
	fragment := []byte(`{"_id":1,"name":"Acme Corp","ticker":"ACME","sector":"Industrials","marketCap":1000000,"performance":[{"window":"1D","returnPct":0.5,"absChange":1.2}],"eod":[{"date":"2024-01-01","price":10.5}]}`)
	iss, err := DecodeIssuer(fragment)
	require.NoError(t, err)
	assert.Equal(t, "ACME", iss.Ticker)
	assert.True(t, iss.MarketCap.Valid)
	require.Len(t, iss.Performance, 1)
	require.Len(t, iss.EOD, 1)
}

func TestParseCardCountsSingularAndPlural(t *testing.T) {
	counts := ParseCardCounts("1 Trade and 2 Politicians and 1 Issuer")
	require.Len(t, counts, 3)
	assert.Equal(t, 1, counts[0].Count)
	assert.Equal(t, "Trade", counts[0].Label)
	assert.Equal(t, 2, counts[1].Count)
	assert.Equal(t, "Politician", counts[1].Label)
}
