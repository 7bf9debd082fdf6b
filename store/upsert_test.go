package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitoltrades/pvingest/data"
)

func seedPoliticianAndIssuer(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.UpsertListingPolitician(&data.Politician{
		ID: "P1", FirstName: "Jane", LastName: "Doe", FullName: "Jane Doe",
		Party: data.PartyDemocrat, State: "CA", Chamber: data.ChamberHouse,
	}))
	require.NoError(t, s.UpsertListingIssuer(&data.Issuer{ID: 10, Name: "Acme", Ticker: "ACME", Sector: "Industrials"}))
}

func baseTrade() *data.Trade {
	return &data.Trade{
		ID: 1, PublishDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		TransactionDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TransactionType: data.TransactionBuy, Owner: data.OwnerSelf,
		ValueLow: 1001, ValueHigh: 15000, Chamber: data.ChamberHouse,
		PoliticianID: "P1", IssuerID: 10,
		FilingURL: data.SentinelFilingURL, FilingID: data.SentinelFilingID, AssetType: data.SentinelAssetType,
	}
}

func TestUpsertListingTradeDoesNotClobberEnrichment(t *testing.T) {
	s := openTestStore(t)
	seedPoliticianAndIssuer(t, s)

	require.NoError(t, s.UpsertListingTrade(baseTrade()))

	detail := baseTrade()
	detail.FilingURL = "https://example.test/f1"
	detail.FilingID = 42
	detail.AssetType = "stock"
	require.NoError(t, s.UpdateTradeDetail(detail))

	// Re-ingest the same listing skeleton (sentinel values) again.
	require.NoError(t, s.UpsertListingTrade(baseTrade()))

	got, err := s.GetTrade(ctxBG(), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/f1", got.FilingURL)
	assert.Equal(t, int64(42), got.FilingID)
	assert.Equal(t, "stock", got.AssetType)
	assert.True(t, got.EnrichedAt.Valid)
}

func TestUpsertListingTradeOverwritesWhenSentinelDiffers(t *testing.T) {
	s := openTestStore(t)
	seedPoliticianAndIssuer(t, s)

	tr := baseTrade()
	tr.FilingURL = "https://example.test/f2"
	require.NoError(t, s.UpsertListingTrade(tr))

	got, err := s.GetTrade(ctxBG(), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/f2", got.FilingURL)
}

func TestUpdateTradeDetailRebuildsSideTables(t *testing.T) {
	s := openTestStore(t)
	seedPoliticianAndIssuer(t, s)
	require.NoError(t, s.UpsertListingTrade(baseTrade()))

	detail := baseTrade()
	detail.Committees = []string{"HSAG", "HSAP"}
	detail.Labels = []string{"leadership"}
	require.NoError(t, s.UpdateTradeDetail(detail))

	got, err := s.FindTrades(ctxBG(), TradeFilter{PoliticianID: "P1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.ElementsMatch(t, []string{"HSAG", "HSAP"}, got[0].Committees)
	assert.ElementsMatch(t, []string{"leadership"}, got[0].Labels)

	detail2 := baseTrade()
	detail2.Committees = []string{"HSAP"}
	require.NoError(t, s.UpdateTradeDetail(detail2))

	got2, err := s.FindTrades(ctxBG(), TradeFilter{PoliticianID: "P1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"HSAP"}, got2[0].Committees)
}

func TestPoliticianCommitteeRosterRebuild(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertListingPolitician(&data.Politician{ID: "P1", FirstName: "A", LastName: "B", FullName: "A B"}))

	// Seed (P1,C1),(P1,C2).
	require.NoError(t, s.RebuildCommitteeRoster("C1", []string{"P1"}))
	require.NoError(t, s.RebuildCommitteeRoster("C2", []string{"P1"}))

	// C1 -> {P1}, C2 -> {}, C3 -> {P1}.
	require.NoError(t, s.RebuildCommitteeRoster("C1", []string{"P1"}))
	require.NoError(t, s.RebuildCommitteeRoster("C2", []string{}))
	require.NoError(t, s.RebuildCommitteeRoster("C3", []string{"P1"}))

	rows, err := s.db.Query(`SELECT politician_id, committee_code FROM politician_committees ORDER BY committee_code`)
	require.NoError(t, err)
	defer rows.Close()

	var got [][2]string
	for rows.Next() {
		var pid, code string
		require.NoError(t, rows.Scan(&pid, &code))
		got = append(got, [2]string{pid, code})
	}
	assert.Equal(t, [][2]string{{"P1", "C1"}, {"P1", "C3"}}, got)
}

func TestPoliticianCommitteeGuardSkipsMissingPolitician(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RebuildCommitteeRoster("C1", []string{"GHOST"}))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM politician_committees`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestUpdateIssuerDetailCoalescesMarketCap(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertListingIssuer(&data.Issuer{ID: 1, Name: "Acme", Ticker: "ACME"}))
	require.NoError(t, s.UpdateIssuerDetail(&data.Issuer{ID: 1, MarketCap: sql.NullFloat64{Float64: 500, Valid: true}}))

	got, err := s.GetIssuer(ctxBG(), 1)
	require.NoError(t, err)
	assert.True(t, got.MarketCap.Valid)
	assert.Equal(t, float64(500), got.MarketCap.Float64)
	assert.True(t, got.EnrichedAt.Valid)

	// A subsequent detail pass with no market cap must not clobber it.
	require.NoError(t, s.UpdateIssuerDetail(&data.Issuer{ID: 1}))
	got2, err := s.GetIssuer(ctxBG(), 1)
	require.NoError(t, err)
	assert.Equal(t, float64(500), got2.MarketCap.Float64)
}

func TestUpdateIssuerDetailPersistsAuthoritativeFields(t *testing.T) {
	s := openTestStore(t)
	// Listing cards carry only the id.
	require.NoError(t, s.UpsertListingIssuer(&data.Issuer{ID: 1}))

	require.NoError(t, s.UpdateIssuerDetail(&data.Issuer{
		ID: 1, Name: "Acme Corp", Ticker: "ACME", Sector: "Industrials", State: "DE", Country: "US",
	}))

	got, err := s.GetIssuer(ctxBG(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.Equal(t, "ACME", got.Ticker)
	assert.Equal(t, "Industrials", got.Sector)

	// Re-ingesting the id-only skeleton must not clear the enriched fields.
	require.NoError(t, s.UpsertListingIssuer(&data.Issuer{ID: 1}))
	got2, err := s.GetIssuer(ctxBG(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got2.Name)
	assert.Equal(t, "ACME", got2.Ticker)
	assert.Equal(t, "Industrials", got2.Sector)
	assert.True(t, got2.EnrichedAt.Valid)
}

func TestUpdatePoliticianDetailPersistsAttributes(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertListingPolitician(&data.Politician{ID: "P1"}))

	detail := &data.Politician{
		ID: "P1", FirstName: "Jane", LastName: "Doe", FullName: "Jane Doe",
		Party: data.PartyDemocrat, State: "CA", Chamber: data.ChamberHouse, Gender: "female",
	}
	detail.DOB.Time = time.Date(1970, 5, 1, 0, 0, 0, 0, time.UTC)
	detail.DOB.Valid = true
	require.NoError(t, s.UpdatePoliticianDetail(detail))

	var fullName, party, state string
	var enriched sql.NullString
	require.NoError(t, s.db.QueryRow(
		`SELECT full_name, party, state, enriched_at FROM politicians WHERE id = 'P1'`,
	).Scan(&fullName, &party, &state, &enriched))
	assert.Equal(t, "Jane Doe", fullName)
	assert.Equal(t, string(data.PartyDemocrat), party)
	assert.Equal(t, "CA", state)
	assert.True(t, enriched.Valid)

	// Re-ingesting the id-only skeleton must not clear the enriched fields.
	require.NoError(t, s.UpsertListingPolitician(&data.Politician{ID: "P1"}))
	require.NoError(t, s.db.QueryRow(
		`SELECT full_name, party, state FROM politicians WHERE id = 'P1'`,
	).Scan(&fullName, &party, &state))
	assert.Equal(t, "Jane Doe", fullName)
	assert.Equal(t, string(data.PartyDemocrat), party)
	assert.Equal(t, "CA", state)
}

func TestDonationPoliticianCrosswalk(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertListingPolitician(&data.Politician{ID: "P1", FullName: "Jane Doe"}))
	require.NoError(t, s.UpsertCommitteePolitician(&data.CommitteePolitician{CommitteeID: "C1", PoliticianID: "P1"}))

	don := &data.Donation{ID: "D1", CommitteeID: "C1", ReceiptDate: time.Now()}
	pid, err := s.PoliticianForDonation(don)
	require.NoError(t, err)
	assert.Equal(t, "P1", pid)

	other := &data.Donation{ID: "D2", CommitteeID: "UNKNOWN", ReceiptDate: time.Now()}
	pid2, err := s.PoliticianForDonation(other)
	require.NoError(t, err)
	assert.Equal(t, "", pid2)
}
