// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeText prepares raw scraped text for embedding and storage.
// It applies NFKC normalization, drops invalid UTF-8 and control or format
// characters, collapses whitespace runs into single spaces, and trims the ends.
func SanitizeText(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			continue
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
