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

type rawPerformancePoint struct {
	Window string  `json:"window"`
	Return float64 `json:"returnPct"`
	Change float64 `json:"absChange"`
}

type rawEODPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

type rawIssuer struct {
	ID          int64                 `json:"_id"`
	Name        string                `json:"name"`
	Ticker      string                `json:"ticker"`
	Sector      string                `json:"sector"`
	State       string                `json:"state"`
	Country     string                `json:"country"`
	MarketCap   *float64              `json:"marketCap"`
	Performance []rawPerformancePoint `json:"performance"`
	EOD         []rawEODPoint         `json:"eod"`
}

// DecodeIssuer parses an "issuerData" fragment into a data.Issuer,
// including its performance-window and EOD-price side data.
func DecodeIssuer(fragment []byte) (*data.Issuer, error) {
	var raw rawIssuer
	if err := json.Unmarshal(fragment, &raw); err != nil {
		return nil, &ExtractionError{Key: "issuerData", Reason: err.Error()}
	}

	iss := &data.Issuer{
		ID:      raw.ID,
		Name:    raw.Name,
		Ticker:  raw.Ticker,
		Sector:  raw.Sector,
		State:   raw.State,
		Country: raw.Country,
	}

	if raw.MarketCap != nil {
		iss.MarketCap.Float64 = *raw.MarketCap
		iss.MarketCap.Valid = true
	}

	for _, p := range raw.Performance {
		iss.Performance = append(iss.Performance, data.PerformancePoint{
			Window:         data.PerformanceWindow(p.Window),
			ReturnPercent:  p.Return,
			AbsoluteChange: p.Change,
		})
	}

	for _, e := range raw.EOD {
		d, err := time.Parse(isoDate, e.Date)
		if err != nil {
			continue
		}
		iss.EOD = append(iss.EOD, data.EODPrice{Date: d, Price: e.Price})
	}

	return iss, nil
}
