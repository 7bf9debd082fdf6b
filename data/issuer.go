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
package data

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog"
)

// PerformanceWindow is one of the fixed trailing-return windows the
// upstream issuer-detail page reports.
type PerformanceWindow string

const (
	Window1D   PerformanceWindow = "1D"
	Window7D   PerformanceWindow = "7D"
	Window30D  PerformanceWindow = "30D"
	Window90D  PerformanceWindow = "90D"
	Window365D PerformanceWindow = "365D"
	WindowWTD  PerformanceWindow = "WTD"
	WindowMTD  PerformanceWindow = "MTD"
	WindowQTD  PerformanceWindow = "QTD"
	WindowYTD  PerformanceWindow = "YTD"
)

// AllPerformanceWindows is the fixed set N in {1,7,30,90,365,WTD,MTD,QTD,YTD}.
var AllPerformanceWindows = []PerformanceWindow{
	Window1D, Window7D, Window30D, Window90D, Window365D,
	WindowWTD, WindowMTD, WindowQTD, WindowYTD,
}

// PerformancePoint is one trailing-window return/change pair.
type PerformancePoint struct {
	Window        PerformanceWindow
	ReturnPercent float64
	AbsoluteChange float64
}

// Issuer is a tradable company or instrument, keyed by the upstream numeric
// issuer identifier. Performance and EOD series may be entirely absent for
// private issuers — that is a valid quiescent state, not an error.
type Issuer struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	Ticker string `db:"ticker"`
	Sector string `db:"sector"` // GICS-like sector tag
	State  string `db:"state"`
	Country string `db:"country"`

	MarketCap sql.NullFloat64 `db:"market_cap"`

	EnrichedAt sql.NullTime `db:"enriched_at"`

	Performance []PerformancePoint `db:"-"`
	EOD         []EODPrice         `db:"-"`
}

// EODPrice is one day of an issuer's end-of-day price series.
type EODPrice struct {
	Date  time.Time
	Price float64
}

// MarshalZerologObject logs an Issuer as a structured object.
func (i *Issuer) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("ID", i.ID)
	e.Str("Name", i.Name)
	e.Str("Ticker", i.Ticker)
	e.Str("Sector", i.Sector)
	e.Bool("HasPerformance", len(i.Performance) > 0)
	e.Int("NumEODPoints", len(i.EOD))
}

// BenchmarkETF maps a GICS-like sector to its fixed tracking ETF for the
// benchmark-price phase. Unknown or absent sectors fall back to SPY.
var BenchmarkETF = map[string]string{
	"Information Technology":   "XLK",
	"Financials":               "XLF",
	"Health Care":              "XLV",
	"Consumer Discretionary":   "XLY",
	"Consumer Staples":         "XLP",
	"Energy":                   "XLE",
	"Industrials":              "XLI",
	"Materials":                "XLB",
	"Real Estate":              "XLRE",
	"Utilities":                "XLU",
	"Communication Services":   "XLC",
}

// DefaultBenchmarkETF is used when a trade's issuer has no sector on file.
const DefaultBenchmarkETF = "SPY"

// BenchmarkTickerFor returns the fixed ETF ticker tracking the given sector.
func BenchmarkTickerFor(sector string) string {
	if ticker, ok := BenchmarkETF[sector]; ok {
		return ticker
	}
	return DefaultBenchmarkETF
}
