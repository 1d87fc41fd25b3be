package analysis

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Vectorize computes TF-IDF feature vectors for every theme in place, over the
// vocabulary of the whole normalized corpus. The vocabulary is built from the
// sorted set of tokens, so vector dimensionality and component order depend only
// on the input corpus: repeated runs on identical data produce identical vectors.
//
// Identical normalized texts always yield identical vectors, which is what pins
// duplicate themes to the same cluster downstream.
func Vectorize(themes []NormalizedTheme) {
	if len(themes) == 0 {
		return
	}

	docs := make([][]string, len(themes))
	df := make(map[string]int)
	for i, t := range themes {
		docs[i] = strings.Fields(t.NormalizedText)
		seen := make(map[string]struct{}, len(docs[i]))
		for _, tok := range docs[i] {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	vocab := make([]string, 0, len(df))
	for tok := range df {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)

	index := make(map[string]int, len(vocab))
	for i, tok := range vocab {
		index[tok] = i
	}

	n := float64(len(themes))
	idf := make([]float64, len(vocab))
	for i, tok := range vocab {
		// Smoothed IDF keeps corpus-wide tokens from zeroing out entirely,
		// which matters at this corpus size.
		idf[i] = math.Log((1+n)/(1+float64(df[tok]))) + 1
	}

	for i := range themes {
		vec := make([]float64, len(vocab))
		if len(docs[i]) > 0 {
			for _, tok := range docs[i] {
				vec[index[tok]] += 1 / float64(len(docs[i]))
			}
			for j := range vec {
				vec[j] *= idf[j]
			}
			if norm := floats.Norm(vec, 2); norm > 0 {
				floats.Scale(1/norm, vec)
			}
		}
		themes[i].Vector = vec
	}
}
