package knowledge

import (
	"context"
	"fmt"
	"strings"
)

// Retriever answers similarity queries against a loaded index.
type Retriever struct {
	index *Index
	topK  int
}

// NewRetriever creates a Retriever returning at most topK passages per
// query.
func NewRetriever(index *Index, topK int) *Retriever {
	if topK <= 0 {
		topK = 4
	}
	return &Retriever{index: index, topK: topK}
}

// Retrieve returns up to topK passages most similar to the query, in
// descending similarity order. The result count is clamped to the
// collection size.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Passage, error) {
	n := r.topK
	if count := r.index.Count(); n > count {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := r.index.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	passages := make([]Passage, 0, len(results))
	for _, res := range results {
		passages = append(passages, Passage{
			Text:   res.Content,
			Source: res.Metadata["source"],
			Score:  float64(res.Similarity),
		})
	}
	return passages, nil
}

// LazyRetriever resolves its index through a Cache on first use, so
// the process serves requests even when the index is built lazily.
type LazyRetriever struct {
	cache *Cache
	topK  int
}

// NewLazyRetriever creates a LazyRetriever over the given cache.
func NewLazyRetriever(cache *Cache, topK int) *LazyRetriever {
	return &LazyRetriever{cache: cache, topK: topK}
}

// Retrieve resolves the index and queries it.
func (r *LazyRetriever) Retrieve(ctx context.Context, query string) ([]Passage, error) {
	index, err := r.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return NewRetriever(index, r.topK).Retrieve(ctx, query)
}

// Format renders passages as an enumerated context block for prompt
// assembly. Empty input yields the NoContext fallback.
func Format(passages []Passage) string {
	if len(passages) == 0 {
		return NoContext
	}

	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s (relevance %.2f)\n%s", i+1, p.Source, p.Score, p.Text)
	}
	return b.String()
}
