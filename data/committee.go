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

// CommitteeCodes is the closed set of ~48 committee codes the upstream site
// indexes listings by. The politician-committee enrichment pipeline
// iterates this list, one `/politicians?committee={code}`
// listing query per code, to rebuild the politician<->committee join table
// since the detail page itself never carries membership.
var CommitteeCodes = []string{
	"HSAG", "HSAP", "HSAS", "HSBA", "HSBU", "HSED", "HSEG", "HSFA",
	"HSHA", "HSHM", "HSIF", "HSII", "HSJU", "HSGO", "HSPW", "HSRU",
	"HSSM", "HSSO", "HSSY", "HSVR", "HSWM", "HLIG", "HLZS",
	"SSAF", "SSAP", "SSAS", "SSBK", "SSBU", "SSCM", "SSEG", "SSEV",
	"SSFI", "SSFR", "SSGA", "SSHR", "SSJU", "SSRA", "SSSB", "SSVA",
	"SLAG", "SLET", "SLIN", "SPAG", "JSPR", "JSEC", "JSLC", "JCSE",
	"HSIG", "SSIC",
}

// Committee carries a human-readable name alongside the code, used when
// logging or exporting; the code is the only value persisted in the join
// table.
type Committee struct {
	Code string
	Name string
}
