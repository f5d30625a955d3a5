// Package vectorstore holds embedded note chunks and answers nearest
// neighbour queries over them.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/entrhq/notes-agent/pkg/llm"
)

// SourceKey is the metadata key recording where a document came from.
const SourceKey = "source"

// ErrDimensionMismatch is returned when an embedder yields vectors of
// inconsistent length.
var ErrDimensionMismatch = errors.New("vectorstore: embedding dimension mismatch")

// Document is a chunk of text and its metadata.
type Document struct {
	PageContent string                 `json:"page_content" yaml:"page_content"`
	Metadata    map[string]interface{} `json:"metadata" yaml:"metadata"`
}

// Source returns the document's source metadata, or "".
func (d Document) Source() string {
	if s, ok := d.Metadata[SourceKey].(string); ok {
		return s
	}
	return ""
}

type entry struct {
	doc    Document
	vector []float64
	norm   float64
}

// MemoryStore is an in-process vector index. It is rebuilt per query by the
// notes package and never persisted.
type MemoryStore struct {
	embedder llm.Embedder

	mu      sync.RWMutex
	entries []entry
}

// NewMemoryStore creates an empty store backed by embedder.
func NewMemoryStore(embedder llm.Embedder) *MemoryStore {
	return &MemoryStore{embedder: embedder}
}

// Len returns the number of indexed documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// AddDocuments embeds and indexes docs in order.
func (s *MemoryStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.PageContent
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := -1
	if len(s.entries) > 0 {
		dim = len(s.entries[0].vector)
	}
	for i, v := range vectors {
		if dim == -1 {
			dim = len(v)
		}
		if len(v) != dim {
			return ErrDimensionMismatch
		}
		s.entries = append(s.entries, entry{doc: docs[i], vector: v, norm: norm(v)})
	}
	return nil
}

// SimilaritySearch returns up to k documents ordered by descending cosine
// similarity to query. Ties keep insertion order.
func (s *MemoryStore) SimilaritySearch(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	s.mu.RLock()
	empty := len(s.entries) == 0
	s.mu.RUnlock()
	if empty {
		return nil, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vectors))
	}
	q := vectors[0]
	qn := norm(q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		idx   int
		score float64
	}
	results := make([]scored, 0, len(s.entries))
	for i, e := range s.entries {
		if len(e.vector) != len(q) {
			return nil, ErrDimensionMismatch
		}
		results = append(results, scored{idx: i, score: cosine(q, qn, e.vector, e.norm)})
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].score > results[b].score
	})

	if k > len(results) {
		k = len(results)
	}
	docs := make([]Document, k)
	for i := 0; i < k; i++ {
		docs[i] = s.entries[results[i].idx].doc
	}
	return docs, nil
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector is all zeros.
func cosine(a []float64, an float64, b []float64, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (an * bn)
}
