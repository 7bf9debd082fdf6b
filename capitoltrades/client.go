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

// Package capitoltrades ties the fetcher and parser together
// into endpoint-specific reads against the upstream disclosure site:
// trades, trade details, politicians, politician-committee listings, and
// issuers.
package capitoltrades

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/capitoltrades/pvingest/data"
	"github.com/capitoltrades/pvingest/fetch"
	"github.com/capitoltrades/pvingest/parse"
)

// Client issues GETs against the upstream listing/detail endpoints and
// decodes their embedded-JSON payloads into domain types.
type Client struct {
	fetcher *fetch.Fetcher
	baseURL string
}

// New builds a Client against baseURL (e.g. "https://www.capitoltrades.com")
// using fetcher for all outbound requests.
func New(baseURL string, fetcher *fetch.Fetcher) *Client {
	return &Client{fetcher: fetcher, baseURL: baseURL}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.fetcher.Get(ctx, c.baseURL+path, params)
}

// GetTradeDetail fetches and decodes a single trade's detail page.
func (c *Client) GetTradeDetail(ctx context.Context, txID int64) (*data.Trade, error) {
	body, err := c.get(ctx, fmt.Sprintf("/trades/%d", txID), nil)
	if err != nil {
		return nil, fmt.Errorf("capitoltrades: fetch trade %d: %w", txID, err)
	}
	fragment, err := parse.ExtractObject(parse.ExtractFragments(string(body)), "tradeData")
	if err != nil {
		return nil, err
	}
	return parse.DecodeTrade(fragment)
}

// GetPoliticianDetail fetches and decodes a single politician's detail page.
func (c *Client) GetPoliticianDetail(ctx context.Context, politicianID string) (*data.Politician, error) {
	body, err := c.get(ctx, "/politicians/"+politicianID, nil)
	if err != nil {
		return nil, fmt.Errorf("capitoltrades: fetch politician %s: %w", politicianID, err)
	}
	fragment, err := parse.ExtractObject(parse.ExtractFragments(string(body)), "politician")
	if err != nil {
		return nil, err
	}
	return parse.DecodePolitician(fragment)
}

// GetIssuerDetail fetches and decodes a single issuer's detail page.
func (c *Client) GetIssuerDetail(ctx context.Context, issuerID int64) (*data.Issuer, error) {
	body, err := c.get(ctx, fmt.Sprintf("/issuers/%d", issuerID), nil)
	if err != nil {
		return nil, fmt.Errorf("capitoltrades: fetch issuer %d: %w", issuerID, err)
	}
	fragment, err := parse.ExtractObject(parse.ExtractFragments(string(body)), "issuerData")
	if err != nil {
		return nil, err
	}
	return parse.DecodeIssuer(fragment)
}

// GetCommitteeMembers fetches every page of `/politicians?committee={code}`
// and returns the union of politician ids seated on that committee.
func (c *Client) GetCommitteeMembers(ctx context.Context, code string) ([]string, error) {
	var members []string
	page := 1
	for {
		params := url.Values{"committee": {code}, "page": {strconv.Itoa(page)}}
		body, err := c.get(ctx, "/politicians", params)
		if err != nil {
			return nil, fmt.Errorf("capitoltrades: fetch committee %s page %d: %w", code, page, err)
		}

		listing, err := DecodeListing(string(body))
		if err != nil {
			return nil, err
		}
		members = append(members, listing.PoliticianIDs...)

		if !listing.HasNextPage {
			break
		}
		page++
	}
	return members, nil
}
