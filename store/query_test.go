package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitoltrades/pvingest/data"
)

func TestFindTradesFilterByParty(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertListingPolitician(&data.Politician{ID: "P1", FirstName: "A", LastName: "B", FullName: "A B", Party: data.PartyDemocrat}))
	require.NoError(t, s.UpsertListingPolitician(&data.Politician{ID: "P2", FirstName: "C", LastName: "D", FullName: "C D", Party: data.PartyRepublican}))
	require.NoError(t, s.UpsertListingIssuer(&data.Issuer{ID: 10, Name: "Acme", Ticker: "ACME"}))

	tr1 := baseTrade()
	tr1.ID = 1
	tr1.PoliticianID = "P1"
	tr2 := baseTrade()
	tr2.ID = 2
	tr2.PoliticianID = "P2"

	require.NoError(t, s.UpsertListingTrade(tr1))
	require.NoError(t, s.UpsertListingTrade(tr2))

	got, err := s.FindTrades(ctxBG(), TradeFilter{Party: string(data.PartyDemocrat)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestFindTradesEmptySideTablesYieldEmptyNotNil(t *testing.T) {
	s := openTestStore(t)
	seedPoliticianAndIssuer(t, s)
	require.NoError(t, s.UpsertListingTrade(baseTrade()))

	got, err := s.FindTrades(ctxBG(), TradeFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Committees)
	assert.Empty(t, got[0].Labels)
}

func TestGetUnenrichedTradeIDsOrderedAscending(t *testing.T) {
	s := openTestStore(t)
	seedPoliticianAndIssuer(t, s)

	for _, id := range []int64{3, 1, 2} {
		tr := baseTrade()
		tr.ID = id
		require.NoError(t, s.UpsertListingTrade(tr))
	}

	ids, err := s.GetUnenrichedTradeIDs(ctxBG(), 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestGetUnenrichedTradeIDsRespectsLimit(t *testing.T) {
	s := openTestStore(t)
	seedPoliticianAndIssuer(t, s)

	for _, id := range []int64{1, 2, 3} {
		tr := baseTrade()
		tr.ID = id
		require.NoError(t, s.UpsertListingTrade(tr))
	}

	ids, err := s.GetUnenrichedTradeIDs(ctxBG(), 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestEnrichedTradeExcludedFromQueue(t *testing.T) {
	s := openTestStore(t)
	seedPoliticianAndIssuer(t, s)
	require.NoError(t, s.UpsertListingTrade(baseTrade()))
	require.NoError(t, s.UpdateTradeDetail(baseTrade()))

	ids, err := s.GetUnenrichedTradeIDs(ctxBG(), 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAggregateDonationsByEmployer(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertDonation(&data.Donation{ID: "D1", Amount: 100, ElectionCycle: 2024, ContributorEmployer: "Acme", ReceiptDate: time.Now()}))
	require.NoError(t, s.UpsertDonation(&data.Donation{ID: "D2", Amount: 200, ElectionCycle: 2024, ContributorEmployer: "Acme", ReceiptDate: time.Now()}))
	require.NoError(t, s.UpsertDonation(&data.Donation{ID: "D3", Amount: 50, ElectionCycle: 2024, ContributorEmployer: "Other", ReceiptDate: time.Now()}))

	groups, err := s.AggregateDonations(ctxBG(), DonationFilter{}, GroupByEmployer)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Acme", groups[0].Key)
	assert.Equal(t, float64(300), groups[0].Sum)
	assert.Equal(t, 2, groups[0].Count)
}

func TestListUnpricedTradeDatesDeduplicates(t *testing.T) {
	s := openTestStore(t)
	seedPoliticianAndIssuer(t, s)

	tr1 := baseTrade()
	tr1.ID = 1
	tr2 := baseTrade()
	tr2.ID = 2
	require.NoError(t, s.UpsertListingTrade(tr1))
	require.NoError(t, s.UpsertListingTrade(tr2))

	rows, err := s.ListUnpricedTradeDates(ctxBG())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ACME", rows[0].Ticker)
}
