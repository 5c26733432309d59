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

package openai

import "strings"

// repairJSON restores the opening quote small models sometimes drop from
// object keys, turning `{ type": "X"}` into `{ "type": "X"}`.
// Anything that does not look like a key missing its opening quote is copied
// through unchanged.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		b.WriteByte(c)

		switch {
		case c == '"' && !escaped(s, i):
			inString = !inString
		case !inString && (c == '{' || c == ','):
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			k := j
			for k < len(s) && (isLetter(rune(s[k])) || s[k] == '_') {
				k++
			}
			if k > j && k+1 < len(s) && s[k] == '"' && s[k+1] == ':' {
				b.WriteString(s[i+1 : j])
				b.WriteByte('"')
				b.WriteString(s[j : k+1])
				i = k
			}
		}
	}
	return b.String()
}

// escaped reports whether the quote at i is preceded by an odd number of backslashes.
func escaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}
