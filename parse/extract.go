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
	"regexp"
	"strings"
)

// scriptFragmentPattern pulls the JSON-literal payloads streamed framework
// components embed between script tags, e.g. `self.__next_f.push([1,"..."])`.
var scriptFragmentPattern = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)

// ExtractFragments concatenates every script-tag body in html into one
// synthetic text, the substrate the key-scanning step searches.
func ExtractFragments(html string) string {
	matches := scriptFragmentPattern.FindAllStringSubmatch(html, -1)
	var sb strings.Builder
	for _, m := range matches {
		sb.WriteString(m[1])
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ExtractObject locates `"key":` within text and parses exactly one
// balanced JSON object or array starting at the first `{` or `[` after
// it, tracking string literals and escapes so braces inside strings don't
// confuse the scan. It returns the raw JSON slice (including the outer
// brackets).
func ExtractObject(text, key string) ([]byte, error) {
	needle := `"` + key + `":`
	idx := strings.Index(text, needle)
	if idx < 0 {
		return nil, &ExtractionError{Key: key, Reason: "key not found in fragment text"}
	}

	rest := text[idx+len(needle):]
	start := firstBracket(rest)
	if start < 0 {
		return nil, &ExtractionError{Key: key, Reason: "no opening bracket after key"}
	}

	raw, err := scanBalanced(rest[start:])
	if err != nil {
		return nil, &ExtractionError{Key: key, Reason: err.Error()}
	}
	return raw, nil
}

func firstBracket(s string) int {
	for i, r := range s {
		switch r {
		case '{', '[':
			return i
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return -1
		}
	}
	return -1
}

// scanBalanced walks s (which must begin with '{' or '[') and returns the
// shortest balanced prefix, honoring string literals and backslash escapes.
func scanBalanced(s string) ([]byte, error) {
	if len(s) == 0 {
		return nil, errUnbalanced
	}

	open := s[0]
	var close byte
	switch open {
	case '{':
		close = '}'
	case '[':
		close = ']'
	default:
		return nil, errUnbalanced
	}

	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return []byte(s[:i+1]), nil
			}
		}
	}

	return nil, errUnbalanced
}

var errUnbalanced = unbalancedError{}

type unbalancedError struct{}

func (unbalancedError) Error() string { return "unbalanced JSON fragment" }
