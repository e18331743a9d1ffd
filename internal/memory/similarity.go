package memory

import (
	"math"
	"strings"
	"unicode"
)

// termFrequencies builds a bag-of-words vector for similarity ranking.
// The metric only needs to be stable and to degrade gracefully, so plain
// lexical overlap is enough; no embedding service is involved.
func termFrequencies(text string) map[string]float64 {
	freqs := make(map[string]float64)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if len(w) < 2 {
			continue
		}
		freqs[w]++
	}
	return freqs
}

func cosineSimilarity(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for term, fa := range a {
		normA += fa * fa
		if fb, ok := b[term]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range b {
		normB += fb * fb
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
