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

// rawTrade is the embedded-component schema for a single trade detail
// payload. Fields absent upstream unmarshal to their zero value; the
// caller maps sentinels accordingly.
type rawTrade struct {
	ID              int64    `json:"_id"`
	PublishDate     string   `json:"pubDate"`
	TransactionDate string   `json:"txDate"`
	Type            string   `json:"type"`
	Owner           string   `json:"owner"`
	ValueLow        float64  `json:"valueLow"`
	ValueHigh       float64  `json:"valueHigh"`
	Chamber         string   `json:"chamber"`
	PoliticianID    string   `json:"politicianId"`
	IssuerID        int64    `json:"issuerId"`
	FilingURL       string   `json:"filingURL"`
	FilingID        int64    `json:"filingId"`
	AssetType       string   `json:"assetType"`
	CapitalGains    bool     `json:"hasCapitalGains"`
	ReportingGap    *int64   `json:"reportingGap"`
	SizeShares      *int64   `json:"size"`
	PriceEstimate   *float64 `json:"price"`
	Committees      []string `json:"committees"`
	Labels          []string `json:"labels"`
}

const isoDate = "2006-01-02"

// DecodeTrade parses a "tradeData" fragment into a data.Trade, applying
// the same sentinel defaults a listing upsert would.
func DecodeTrade(fragment []byte) (*data.Trade, error) {
	var raw rawTrade
	if err := json.Unmarshal(fragment, &raw); err != nil {
		return nil, &ExtractionError{Key: "tradeData", Reason: err.Error()}
	}

	t := &data.Trade{
		ID:            raw.ID,
		TransactionType: data.TransactionType(raw.Type),
		Owner:         data.Owner(raw.Owner),
		ValueLow:      raw.ValueLow,
		ValueHigh:     raw.ValueHigh,
		Chamber:       data.Chamber(raw.Chamber),
		PoliticianID:  raw.PoliticianID,
		IssuerID:      raw.IssuerID,
		FilingURL:     raw.FilingURL,
		FilingID:      raw.FilingID,
		AssetType:     raw.AssetType,
		CapitalGains:  raw.CapitalGains,
		Committees:    raw.Committees,
		Labels:        raw.Labels,
	}

	if raw.FilingURL == "" {
		t.FilingURL = data.SentinelFilingURL
	}
	if raw.AssetType == "" {
		t.AssetType = data.SentinelAssetType
	}

	if pd, err := time.Parse(isoDate, raw.PublishDate); err == nil {
		t.PublishDate = pd
	}
	if td, err := time.Parse(isoDate, raw.TransactionDate); err == nil {
		t.TransactionDate = td
	}

	if raw.ReportingGap != nil {
		t.ReportingGapDays.Int64 = *raw.ReportingGap
		t.ReportingGapDays.Valid = true
	} else if !t.PublishDate.IsZero() && !t.TransactionDate.IsZero() {
		// Filings disclose the gap themselves; when absent it is the number
		// of days between transaction and publication.
		t.ReportingGapDays.Int64 = int64(t.PublishDate.Sub(t.TransactionDate).Hours() / 24)
		t.ReportingGapDays.Valid = true
	}

	if raw.SizeShares != nil {
		t.SizeShares.Float64 = float64(*raw.SizeShares)
		t.SizeShares.Valid = true
	}
	if raw.PriceEstimate != nil {
		t.PriceEstimate.Float64 = *raw.PriceEstimate
		t.PriceEstimate.Valid = true
	}

	return t, nil
}
