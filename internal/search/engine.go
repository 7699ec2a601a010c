// Package search implements the retrieval engine: a TF-IDF vector space
// over indexed sale-event documents, ranked by cosine similarity against
// a synonym-expanded query, plus product co-occurrence mining.
package search

import (
	"sort"
	"sync"

	"retailpulse/internal/event"
	"retailpulse/internal/index"
)

const (
	// minSimilarity is the floor applied to expanded-query matches.
	minSimilarity = 0.05
	// fallbackSimilarity is the lower floor used when the expanded
	// query yields nothing and ranking retries with the raw query.
	fallbackSimilarity = 0.01
	// previewLen bounds the document text echoed in each result.
	previewLen = 100
	// maxSampleTerms bounds the vocabulary sample in Stats.
	maxSampleTerms = 20
)

// Result is one ranked search match.
type Result struct {
	Metadata        index.Metadata `json:"metadata"`
	SimilarityScore float64        `json:"similarity_score"`
	Preview         string         `json:"document_preview"`
}

// Stats describes the fitted state of the engine.
type Stats struct {
	Status           string   `json:"status"`
	DocumentsIndexed int      `json:"documents_indexed"`
	UniqueTerms      int      `json:"unique_terms"`
	SampleTerms      []string `json:"sample_terms"`
}

// Engine holds the fitted index. Index replaces all state under one
// lock, so a rebuild is atomic from any searcher's perspective.
type Engine struct {
	mu      sync.RWMutex
	docs    []index.Document
	vectors [][]float64
	model   vectorizer
	ready   bool
}

func NewEngine() *Engine { return &Engine{} }

// Index rebuilds the document set wholesale from events and fits the
// term-weighting model over it. The engine becomes ready only when at
// least one document was produced. Returns the document count.
func (e *Engine) Index(events []event.Event) int {
	docs := index.Build(events)

	var model vectorizer
	var vectors [][]float64
	if len(docs) > 0 {
		corpus := make([]string, len(docs))
		for i, d := range docs {
			corpus[i] = d.Text
		}
		model.fit(corpus)
		vectors = make([][]float64, len(docs))
		for i, d := range docs {
			vectors[i] = model.transform(d.Text)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs = docs
	e.vectors = vectors
	e.model = model
	e.ready = len(docs) > 0 && model.fitted
	return len(docs)
}

// Ready reports whether the engine holds a fitted index.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

// Search returns up to topK documents ranked by cosine similarity
// against the synonym-expanded query. When the expanded query clears no
// match above the similarity floor, ranking retries with the unexpanded
// query at a lower floor. An unready engine returns an empty slice,
// never an error.
func (e *Engine) Search(query string, topK int) []Result {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.ready || len(e.docs) == 0 {
		return []Result{}
	}
	if topK <= 0 {
		topK = 10
	}

	results := e.rank(expandQuery(query), topK, minSimilarity)
	if len(results) == 0 {
		results = e.rank(query, topK, fallbackSimilarity)
	}
	return results
}

// rank must be called with the read lock held.
func (e *Engine) rank(query string, topK int, floor float64) []Result {
	qv := e.model.transform(query)

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(e.vectors))
	for i, dv := range e.vectors {
		scores[i] = scored{idx: i, score: dot(qv, dv)}
	}
	// Stable sort keeps original document order for equal similarity.
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]Result, 0, topK)
	for _, s := range scores[:topK] {
		if s.score <= floor {
			continue
		}
		results = append(results, Result{
			Metadata:        e.docs[s.idx].Meta,
			SimilarityScore: s.score,
			Preview:         preview(e.docs[s.idx].Text),
		})
	}
	return results
}

// Stats returns the fitted state of the engine for diagnostics.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.ready {
		return Stats{Status: "not_fitted", SampleTerms: []string{}}
	}
	sample := e.model.terms
	if len(sample) > maxSampleTerms {
		sample = sample[:maxSampleTerms]
	}
	return Stats{
		Status:           "ready",
		DocumentsIndexed: len(e.docs),
		UniqueTerms:      len(e.model.terms),
		SampleTerms:      append([]string(nil), sample...),
	}
}

func preview(text string) string {
	if len(text) > previewLen {
		text = text[:previewLen]
	}
	return text + "..."
}
