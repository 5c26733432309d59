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

package search

import (
	"math"
	"strings"
	"unicode"
)

const (
	// DefaultK1 controls term frequency saturation.
	DefaultK1 = 1.5
	// DefaultB controls document length normalization.
	DefaultB = 0.75
)

// tokenize lowercases text, strips runes that are neither alphanumeric nor
// whitespace, then splits on whitespace. "e-mail" becomes "email".
func tokenize(text string) []string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.ToLower(text))
	return strings.Fields(stripped)
}

// bm25Index holds Okapi BM25 statistics for a fixed set of documents.
type bm25Index struct {
	k1, b     float64
	termFreqs []map[string]int
	lengths   []int
	avgLength float64
	docFreq   map[string]int
}

func newBM25Index(texts []string, k1, b float64) *bm25Index {
	idx := &bm25Index{
		k1:        k1,
		b:         b,
		termFreqs: make([]map[string]int, len(texts)),
		lengths:   make([]int, len(texts)),
		docFreq:   make(map[string]int),
	}

	total := 0
	for i, text := range texts {
		tokens := tokenize(text)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		for tok := range freqs {
			idx.docFreq[tok]++
		}
		idx.termFreqs[i] = freqs
		idx.lengths[i] = len(tokens)
		total += len(tokens)
	}
	if len(texts) > 0 {
		idx.avgLength = float64(total) / float64(len(texts))
	}
	return idx
}

// idf is ln(1 + (N - df + 0.5) / (df + 0.5)), which is never negative.
func (idx *bm25Index) idf(term string) float64 {
	n := float64(len(idx.termFreqs))
	df := float64(idx.docFreq[term])
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// scores returns the raw BM25 score of every document for query.
// Repeated query terms count once per occurrence.
func (idx *bm25Index) scores(query string) []float64 {
	out := make([]float64, len(idx.termFreqs))
	terms := tokenize(query)
	if len(terms) == 0 {
		return out
	}

	for i, freqs := range idx.termFreqs {
		norm := 1.0
		if idx.avgLength > 0 {
			norm = 1 - idx.b + idx.b*float64(idx.lengths[i])/idx.avgLength
		}
		var score float64
		for _, term := range terms {
			tf := float64(freqs[term])
			if tf == 0 {
				continue
			}
			score += idx.idf(term) * tf * (idx.k1 + 1) / (tf + idx.k1*norm)
		}
		out[i] = score
	}
	return out
}

// minMaxNormalize rescales values to [0, 1]. When every value is equal the
// result is all zeros.
func minMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}
