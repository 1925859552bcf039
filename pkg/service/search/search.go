package search

import (
	"sort"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
)

// DefaultTopK is used when a query does not ask for a result count
const DefaultTopK = 10

// Result is one ranked memory
type Result struct {
	Memory *model.Memory
	Score  float64
}

// Engine ranks memories against a query embedding by cosine similarity
type Engine struct {
	defaultTopK int
}

type Option func(*Engine)

// WithDefaultTopK overrides the result count used when topK <= 0
func WithDefaultTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.defaultTopK = k
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{defaultTopK: DefaultTopK}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rank scores every candidate against query and returns at most topK
// results, best first. Memories without an embedding, with a zero vector or
// with a dimension different from the query are not comparable and are
// skipped. Equal scores are ordered by most recently updated, then by ID.
// Fewer than topK comparable candidates yield a shorter result.
func (e *Engine) Rank(query model.Embedding, candidates []*model.Memory, topK int) []Result {
	if topK <= 0 {
		topK = e.defaultTopK
	}

	results := make([]Result, 0, len(candidates))
	for _, m := range candidates {
		if m == nil || !m.HasEmbedding() {
			continue
		}
		score, ok := model.CosineSimilarity(query, m.Embedding)
		if !ok {
			continue
		}
		results = append(results, Result{Memory: m, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		a, b := results[i].Memory, results[j].Memory
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Recent returns up to topK memories by recency with a zero score. It serves
// queries that carry no text to embed.
func (e *Engine) Recent(candidates []*model.Memory, topK int) []Result {
	if topK <= 0 {
		topK = e.defaultTopK
	}

	cfg := interfaces.BuildListMemoryConfig(interfaces.WithLimit(topK))
	sorted := cfg.Apply(append([]*model.Memory(nil), candidates...))

	results := make([]Result, 0, len(sorted))
	for _, m := range sorted {
		results = append(results, Result{Memory: m})
	}
	return results
}
