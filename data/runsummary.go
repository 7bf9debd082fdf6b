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
	"fmt"
	"time"

	"github.com/xeonx/timeago"
)

// RunSummary is the numeric summary every pipeline invocation yields,
// per the orchestrator's propagation-policy invariant: a run always
// reports {processed, succeeded, failed, skipped}, win or lose.
type RunSummary struct {
	Pipeline  string
	StartTime time.Time
	EndTime   time.Time

	Processed int
	Succeeded int
	Failed    int
	Skipped   int

	BreakerTripped bool
}

// Duration is the wall-clock time the run took.
func (rs *RunSummary) Duration() time.Duration {
	return rs.EndTime.Sub(rs.StartTime)
}

// String renders a one-line human summary with a humanized start time.
func (rs *RunSummary) String() string {
	age := timeago.English.Format(rs.StartTime)
	status := "ok"
	if rs.BreakerTripped {
		status = "breaker tripped"
	}
	return fmt.Sprintf("%s: processed=%d succeeded=%d failed=%d skipped=%d (%s, started %s)",
		rs.Pipeline, rs.Processed, rs.Succeeded, rs.Failed, rs.Skipped, status, age)
}
