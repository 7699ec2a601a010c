package search

import (
	"math"
	"regexp"
	"strings"
)

// vectorizer is a TF-IDF term-weighting model fitted over a document
// corpus. Tokens keep their namespace underscores so "product_soup" and
// "store_soup" stay distinct vocabulary entries.
type vectorizer struct {
	vocabulary map[string]int
	idf        []float64
	terms      []string
	fitted     bool
}

var tokenPattern = regexp.MustCompile(`[a-z0-9_]{2,}`)

// fit builds the vocabulary and smoothed IDF values from the corpus.
func (v *vectorizer) fit(corpus []string) {
	df := make(map[string]int)
	order := make([]string, 0, 64)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			if df[tok] == 0 {
				order = append(order, tok)
			}
			df[tok]++
		}
	}

	v.vocabulary = make(map[string]int, len(order))
	v.idf = make([]float64, len(order))
	v.terms = order
	n := float64(len(corpus))
	for i, term := range order {
		v.vocabulary[term] = i
		// Smoothed IDF, as if one extra document contained every term.
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	v.fitted = len(order) > 0
}

// transform projects text into the fitted term-weight space and
// L2-normalizes the result so that a dot product is cosine similarity.
// Out-of-vocabulary tokens are ignored.
func (v *vectorizer) transform(text string) []float64 {
	vec := make([]float64, len(v.idf))
	if !v.fitted {
		return vec
	}
	counts := make(map[int]int)
	total := 0
	for _, tok := range tokenize(text) {
		if idx, ok := v.vocabulary[tok]; ok {
			counts[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	for idx, count := range counts {
		tf := float64(count) / float64(total)
		vec[idx] = tf * v.idf[idx]
	}
	norm := 0.0
	for _, x := range vec {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
