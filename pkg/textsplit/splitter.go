// Package textsplit splits note text into chunks for similarity search.
package textsplit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/entrhq/notes-agent/pkg/logging"
	"github.com/entrhq/notes-agent/pkg/vectorstore"
)

const (
	DefaultSeparator    = "\n\n"
	DefaultChunkSize    = 4000
	DefaultChunkOverlap = 200
)

var splitLog = logging.MustComponent("textsplit")

// LengthFunc measures a piece of text in the splitter's unit.
type LengthFunc func(string) int

// RuneLength measures text in Unicode code points.
func RuneLength(s string) int {
	return utf8.RuneCountInString(s)
}

// Splitter turns raw text into ordered chunks.
type Splitter interface {
	SplitText(text string) ([]string, error)
}

// CharacterSplitter splits on a fixed separator and greedily merges the
// pieces back into chunks of at most ChunkSize, carrying up to ChunkOverlap
// of trailing content into the next chunk. A single piece longer than
// ChunkSize becomes its own oversized chunk.
//
// The merge is langchaingo's recursive splitter restricted to one
// separator, which makes it a plain character splitter.
type CharacterSplitter struct {
	separator    string
	chunkSize    int
	chunkOverlap int
	length       LengthFunc
	inner        textsplitter.RecursiveCharacter
}

// Option configures a CharacterSplitter.
type Option func(*CharacterSplitter)

// WithSeparator sets the separator. An empty separator splits into runes.
func WithSeparator(sep string) Option {
	return func(s *CharacterSplitter) {
		s.separator = sep
	}
}

// WithChunkSize sets the maximum chunk length.
func WithChunkSize(n int) Option {
	return func(s *CharacterSplitter) {
		s.chunkSize = n
	}
}

// WithChunkOverlap sets how much trailing content is repeated in the next chunk.
func WithChunkOverlap(n int) Option {
	return func(s *CharacterSplitter) {
		s.chunkOverlap = n
	}
}

// WithLengthFunc sets the unit chunks are measured in.
func WithLengthFunc(fn LengthFunc) Option {
	return func(s *CharacterSplitter) {
		if fn != nil {
			s.length = fn
		}
	}
}

// NewCharacterSplitter creates a splitter with defaults of "\n\n", 4000 and 200.
func NewCharacterSplitter(opts ...Option) (*CharacterSplitter, error) {
	s := &CharacterSplitter{
		separator:    DefaultSeparator,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		length:       RuneLength,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.chunkSize <= 0 {
		return nil, fmt.Errorf("textsplit: chunk size must be positive, got %d", s.chunkSize)
	}
	if s.chunkOverlap < 0 || s.chunkOverlap >= s.chunkSize {
		return nil, fmt.Errorf("textsplit: chunk overlap %d must be in [0, %d)", s.chunkOverlap, s.chunkSize)
	}

	s.inner = textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators([]string{s.separator}),
		textsplitter.WithChunkSize(s.chunkSize),
		textsplitter.WithChunkOverlap(s.chunkOverlap),
		textsplitter.WithLenFunc(s.length),
	)
	return s, nil
}

// SplitText splits text into chunks with surrounding whitespace trimmed.
// Empty chunks are never returned.
func (s *CharacterSplitter) SplitText(text string) ([]string, error) {
	pieces, err := s.inner.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("textsplit: %w", err)
	}

	chunks := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			if n := s.length(p); n > s.chunkSize {
				splitLog.Warnf("created a chunk of size %d, which is longer than the specified %d", n, s.chunkSize)
			}
			chunks = append(chunks, p)
		}
	}
	return chunks, nil
}

// SplitDocuments splits each document and copies its metadata onto every
// resulting chunk.
func SplitDocuments(s Splitter, docs []vectorstore.Document) ([]vectorstore.Document, error) {
	var out []vectorstore.Document
	for _, doc := range docs {
		chunks, err := s.SplitText(doc.PageContent)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			meta := make(map[string]interface{}, len(doc.Metadata))
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			out = append(out, vectorstore.Document{PageContent: chunk, Metadata: meta})
		}
	}
	return out, nil
}
