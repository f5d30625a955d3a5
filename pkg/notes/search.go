package notes

import (
	"context"
	"fmt"

	"github.com/entrhq/notes-agent/pkg/llm"
	"github.com/entrhq/notes-agent/pkg/textsplit"
	"github.com/entrhq/notes-agent/pkg/vectorstore"
)

// DefaultK is the number of chunks returned by a search.
const DefaultK = 1

// Searcher answers a query against a store by chunking the notes file and
// indexing it in a fresh in-memory store on every call.
type Searcher struct {
	splitter textsplit.Splitter
	embedder llm.Embedder
	k        int
	checks   []PathCheck
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithK sets how many chunks are returned. Values below 1 are ignored.
func WithK(k int) SearcherOption {
	return func(s *Searcher) {
		if k > 0 {
			s.k = k
		}
	}
}

// WithPathCheck adds a check run on every queried notes directory.
func WithPathCheck(check PathCheck) SearcherOption {
	return func(s *Searcher) {
		if check != nil {
			s.checks = append(s.checks, check)
		}
	}
}

// NewSearcher creates a searcher.
func NewSearcher(splitter textsplit.Splitter, embedder llm.Embedder, opts ...SearcherOption) *Searcher {
	s := &Searcher{splitter: splitter, embedder: embedder, k: DefaultK}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// K returns the configured result count.
func (s *Searcher) K() int {
	return s.k
}

// PathChecks returns the checks configured with WithPathCheck.
func (s *Searcher) PathChecks() []PathCheck {
	return append([]PathCheck(nil), s.checks...)
}

// Search returns the chunks of the store's notes file closest to query,
// best first. An empty notes file yields no documents and no error.
func (s *Searcher) Search(ctx context.Context, store *Store, query string) ([]vectorstore.Document, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	text, err := store.Load()
	if err != nil {
		return nil, err
	}

	source := store.FilePath()
	chunks, err := textsplit.SplitDocuments(s.splitter, []vectorstore.Document{{
		PageContent: text,
		Metadata:    map[string]interface{}{vectorstore.SourceKey: source},
	}})
	if err != nil {
		return nil, fmt.Errorf("notes: split %s: %w", source, err)
	}
	if len(chunks) == 0 {
		notesLog.Infof("notes file %s is empty", source)
		return nil, nil
	}

	index := vectorstore.NewMemoryStore(s.embedder)
	if err := index.AddDocuments(ctx, chunks); err != nil {
		return nil, fmt.Errorf("notes: index %s: %w", source, err)
	}

	docs, err := index.SimilaritySearch(ctx, query, s.k)
	if err != nil {
		return nil, fmt.Errorf("notes: search %s: %w", source, err)
	}
	notesLog.Debugf("query over %d chunks returned %d documents", len(chunks), len(docs))
	return docs, nil
}

// Query validates query and path, in that order, and searches.
func (s *Searcher) Query(ctx context.Context, path, query string) ([]vectorstore.Document, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	store, err := Open(path, s.checks...)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, store, query)
}
