package matcher

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitoltrades/pvingest/data"
	"github.com/capitoltrades/pvingest/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "matcher-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedIssuerAndDonation(t *testing.T, s *store.Store, employer, ticker string) {
	t.Helper()
	require.NoError(t, s.UpsertListingIssuer(&data.Issuer{ID: 1, Name: "Acme Corp", Ticker: ticker}))
	require.NoError(t, s.UpsertListingPolitician(&data.Politician{ID: "P1", FullName: "Jane Doe"}))
	require.NoError(t, s.UpsertCommitteePolitician(&data.CommitteePolitician{CommitteeID: "C1", PoliticianID: "P1"}))
	require.NoError(t, s.UpsertDonation(&data.Donation{
		ID: "D1", ContributorEmployer: employer, CommitteeID: "C1", Amount: 100,
	}))
}

func TestExportListsUnmappedEmployer(t *testing.T) {
	s := openTestStore(t)
	seedIssuerAndDonation(t, s, "Totally Unrelated Holdings", "ACME")

	var buf bytes.Buffer
	n, err := Export(context.Background(), s, &buf, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "Totally Unrelated Holdings")
}

func TestExportPopulatesSuggestionColumns(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertListingIssuer(&data.Issuer{
		ID: 2, Name: "Apple Inc", Ticker: "AAPL", Sector: "Information Technology",
	}))
	require.NoError(t, s.UpsertListingPolitician(&data.Politician{ID: "P2", FullName: "John Roe"}))
	require.NoError(t, s.UpsertCommitteePolitician(&data.CommitteePolitician{CommitteeID: "C2", PoliticianID: "P2"}))
	require.NoError(t, s.UpsertDonation(&data.Donation{
		ID: "D2", ContributorEmployer: "Apple Incorporated", CommitteeID: "C2", Amount: 250,
	}))

	var buf bytes.Buffer
	n, err := Export(context.Background(), s, &buf, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "AAPL")
	assert.Contains(t, buf.String(), "Apple Inc")
	assert.Contains(t, buf.String(), "Information Technology")
}

func TestImportSkipsBlankConfirmedTicker(t *testing.T) {
	s := openTestStore(t)
	seedIssuerAndDonation(t, s, "Totally Unrelated Holdings", "ACME")

	var export bytes.Buffer
	_, err := Export(context.Background(), s, &export, DefaultThreshold)
	require.NoError(t, err)

	// An unchanged export (every confirmed_ticker left blank) round-trips
	// as a no-op on the mapping store.
	imported, skipped, err := Import(context.Background(), s, bytes.NewReader(export.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 1, skipped)

	mappings, err := s.ListEmployerMappings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mappings)
}

func TestImportConfirmedTickerPersistsMapping(t *testing.T) {
	s := openTestStore(t)
	seedIssuerAndDonation(t, s, "Totally Unrelated Holdings", "ACME")

	csv := "employer,normalized,suggestion_ticker,suggestion_name,suggestion_sector,confidence,confirmed_ticker,notes\n" +
		"Totally Unrelated Holdings,totally unrelated holdings,,,,,ACME,\n"
	imported, skipped, err := Import(context.Background(), s, bytes.NewReader([]byte(csv)))
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 0, skipped)

	m, err := s.GetEmployerMapping(context.Background(), Normalize("Totally Unrelated Holdings"))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "ACME", m.IssuerTicker)
	assert.Equal(t, data.MatchManual, m.MatchType)
}

func TestImportUnknownTickerSkipped(t *testing.T) {
	s := openTestStore(t)
	seedIssuerAndDonation(t, s, "Totally Unrelated Holdings", "ACME")

	csv := "employer,normalized,suggestion_ticker,suggestion_name,suggestion_sector,confidence,confirmed_ticker,notes\n" +
		"Totally Unrelated Holdings,totally unrelated holdings,,,,,GHOST,\n"
	imported, skipped, err := Import(context.Background(), s, bytes.NewReader([]byte(csv)))
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 1, skipped)
}
