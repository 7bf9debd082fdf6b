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

// Package parse extracts server-rendered JSON fragments embedded in
// HTML/streamed-component payloads and decodes them against
// entity-specific schemas.
package parse

import "fmt"

// ExtractionError is surfaced only when a key's JSON object cannot be
// located or balanced — never for merely-absent optional fields.
type ExtractionError struct {
	Key    string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("parse: could not extract %q: %s", e.Key, e.Reason)
}
