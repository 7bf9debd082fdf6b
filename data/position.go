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

import "time"

// Position is the materialized per-(politician,ticker) holding derived from
// the trade stream by the positions engine's FIFO lot accounting. Fully
// closed positions are kept with SharesHeld == 0 for historical visibility.
type Position struct {
	PoliticianID string    `db:"politician_id"`
	Ticker       string    `db:"ticker"`
	SharesHeld   float64   `db:"shares_held"`
	CostBasis    float64   `db:"cost_basis"`
	RealizedPNL  float64   `db:"realized_pnl"`
	LastUpdated  time.Time `db:"last_updated"`
}

// Lot is a FIFO accounting unit: a slice of shares acquired at a known
// per-share cost, consumed oldest-first on a sale.
type Lot struct {
	Shares       float64
	CostPerShare float64
}
