package capitoltrades

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitoltrades/pvingest/parse"
)

func TestDecodeListingTradesPage(t *testing.T) {
	html := `<html><head><script>self.__next_f.push([1,"prelude"])</script></head><body>
<script>"listingData":{"trades":[{"_id":101},{"_id":102}],"page":1,"totalPages":3}</script>
</body></html>`

	l, err := DecodeListing(html)
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 102}, l.TradeIDs)
	assert.True(t, l.HasNextPage)
}

func TestDecodeListingLastPage(t *testing.T) {
	html := `<script>"listingData":{"politicians":[{"_id":"P000197"}],"page":3,"totalPages":3}</script>`

	l, err := DecodeListing(html)
	require.NoError(t, err)
	assert.Equal(t, []string{"P000197"}, l.PoliticianIDs)
	assert.False(t, l.HasNextPage)
}

func TestDecodeListingPageBeyondTotalIsEmpty(t *testing.T) {
	// Requesting past the last page yields an empty listing, not an error.
	html := `<script>"listingData":{"trades":[],"page":9,"totalPages":3}</script>`

	l, err := DecodeListing(html)
	require.NoError(t, err)
	assert.Empty(t, l.TradeIDs)
	assert.False(t, l.HasNextPage)
}

func TestDecodeListingIssuers(t *testing.T) {
	html := `<script>"listingData":{"issuers":[{"_id":7},{"_id":8},{"_id":9}],"page":1,"totalPages":1}</script>`

	l, err := DecodeListing(html)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8, 9}, l.IssuerIDs)
}

func TestDecodeListingMissingFragment(t *testing.T) {
	_, err := DecodeListing(`<html><script>var x = 1;</script></html>`)
	require.Error(t, err)
	var extractionErr *parse.ExtractionError
	assert.ErrorAs(t, err, &extractionErr)
}
