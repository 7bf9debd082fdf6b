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
package capitoltrades

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/capitoltrades/pvingest/data"
	"github.com/capitoltrades/pvingest/parse"
)

// Listing is one page of a `/trades`, `/politicians`, or `/issuers`
// listing, carrying just enough to drive page-number pagination.
type Listing struct {
	TradeIDs      []int64
	PoliticianIDs []string
	IssuerIDs     []int64
	HasNextPage   bool
}

type rawListing struct {
	Trades      []struct{ ID int64 `json:"_id"` } `json:"trades"`
	Politicians []struct{ ID string `json:"_id"` } `json:"politicians"`
	Issuers     []struct{ ID int64 `json:"_id"` } `json:"issuers"`
	Page        int  `json:"page"`
	TotalPages  int  `json:"totalPages"`
}

// DecodeListing extracts the "listingData" fragment from an HTML listing
// page and decodes the set of entity ids plus pagination state. Card
// counts ("1 Trade"/"2 Trades") are not read here; parse.ParseCardCounts
// parses those on its own.
func DecodeListing(html string) (*Listing, error) {
	text := parse.ExtractFragments(html)
	fragment, err := parse.ExtractObject(text, "listingData")
	if err != nil {
		return nil, err
	}

	var raw rawListing
	if err := json.Unmarshal(fragment, &raw); err != nil {
		return nil, &parseExtractionError{err}
	}

	l := &Listing{HasNextPage: raw.Page < raw.TotalPages}
	for _, t := range raw.Trades {
		l.TradeIDs = append(l.TradeIDs, t.ID)
	}
	for _, p := range raw.Politicians {
		l.PoliticianIDs = append(l.PoliticianIDs, p.ID)
	}
	for _, i := range raw.Issuers {
		l.IssuerIDs = append(l.IssuerIDs, i.ID)
	}
	return l, nil
}

type parseExtractionError struct{ err error }

func (e *parseExtractionError) Error() string { return "capitoltrades: decode listing: " + e.err.Error() }
func (e *parseExtractionError) Unwrap() error  { return e.err }

// ListAllTrades pages through `/trades` from page 1, returning every
// skeleton trade the listing carries via an embedded "trade_<id>" fragment
// per card. The trade detail fetch is a separate call; the listing
// page's own fragments already carry enough to seed a skeleton row.
func (c *Client) ListAllTrades(ctx context.Context) ([]*data.Trade, error) {
	var out []*data.Trade
	page := 1
	for {
		body, err := c.get(ctx, "/trades", url.Values{"page": {strconv.Itoa(page)}})
		if err != nil {
			return nil, fmt.Errorf("capitoltrades: list trades page %d: %w", page, err)
		}

		text := parse.ExtractFragments(string(body))
		listing, err := DecodeListing(string(body))
		if err != nil {
			return nil, err
		}

		for _, id := range listing.TradeIDs {
			fragment, err := parse.ExtractObject(text, fmt.Sprintf("trade_%d", id))
			if err != nil {
				// A listing card with no embedded detail fragment still
				// yields a minimal skeleton keyed by id; detail enrichment
				// fills the rest.
				out = append(out, &data.Trade{ID: id, FilingURL: data.SentinelFilingURL, AssetType: data.SentinelAssetType})
				continue
			}
			trade, err := parse.DecodeTrade(fragment)
			if err != nil {
				return nil, err
			}
			out = append(out, trade)
		}

		if !listing.HasNextPage {
			break
		}
		page++
	}
	return out, nil
}

// ListAllIssuersSkeleton pages through `/issuers`, returning minimal
// skeleton rows (id only) for listing ingest.
func (c *Client) ListAllIssuersSkeleton(ctx context.Context) ([]*data.Issuer, error) {
	var out []*data.Issuer
	page := 1
	for {
		body, err := c.get(ctx, "/issuers", url.Values{"page": {strconv.Itoa(page)}})
		if err != nil {
			return nil, fmt.Errorf("capitoltrades: list issuers page %d: %w", page, err)
		}
		listing, err := DecodeListing(string(body))
		if err != nil {
			return nil, err
		}
		for _, id := range listing.IssuerIDs {
			out = append(out, &data.Issuer{ID: id})
		}
		if !listing.HasNextPage {
			break
		}
		page++
	}
	return out, nil
}

// ListAllPoliticiansSkeleton pages through `/politicians`, returning
// minimal skeleton rows (id only) for listing ingest.
func (c *Client) ListAllPoliticiansSkeleton(ctx context.Context) ([]*data.Politician, error) {
	var out []*data.Politician
	page := 1
	for {
		body, err := c.get(ctx, "/politicians", url.Values{"page": {strconv.Itoa(page)}})
		if err != nil {
			return nil, fmt.Errorf("capitoltrades: list politicians page %d: %w", page, err)
		}
		listing, err := DecodeListing(string(body))
		if err != nil {
			return nil, err
		}
		for _, id := range listing.PoliticianIDs {
			out = append(out, &data.Politician{ID: id})
		}
		if !listing.HasNextPage {
			break
		}
		page++
	}
	return out, nil
}
