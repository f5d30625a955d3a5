package textsplit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/notes-agent/pkg/vectorstore"
)

func newSplitter(t *testing.T, opts ...Option) *CharacterSplitter {
	t.Helper()
	s, err := NewCharacterSplitter(opts...)
	require.NoError(t, err)
	return s
}

func split(t *testing.T, s *CharacterSplitter, text string) []string {
	t.Helper()
	chunks, err := s.SplitText(text)
	require.NoError(t, err)
	return chunks
}

func TestSplitTextMergesUpToChunkSize(t *testing.T) {
	s := newSplitter(t, WithChunkSize(10), WithChunkOverlap(0))

	got := split(t, s, "aaaa\n\nbbbb\n\ncccc")
	assert.Equal(t, []string{"aaaa\n\nbbbb", "cccc"}, got)
}

func TestSplitTextCarriesOverlap(t *testing.T) {
	s := newSplitter(t, WithChunkSize(10), WithChunkOverlap(4))

	got := split(t, s, "aaaa\n\nbbbb\n\ncccc")
	assert.Equal(t, []string{"aaaa\n\nbbbb", "bbbb\n\ncccc"}, got)
}

func TestSplitTextKeepsOversizedPiece(t *testing.T) {
	s := newSplitter(t, WithChunkSize(10), WithChunkOverlap(0))
	long := strings.Repeat("x", 15)

	got := split(t, s, "short\n\n" + long)
	assert.Equal(t, []string{"short", long}, got)
}

func TestSplitTextDropsEmptyChunks(t *testing.T) {
	s := newSplitter(t)

	assert.Empty(t, split(t, s, ""))
	assert.Empty(t, split(t, s, "\n\n\n\n"))
	assert.Empty(t, split(t, s, "   "))
}

func TestSplitTextDefaultsKeepSmallNotesTogether(t *testing.T) {
	s := newSplitter(t)

	got := split(t, s, "Jake likes coffee\nMaria likes tea\n")
	assert.Equal(t, []string{"Jake likes coffee\nMaria likes tea"}, got)
}

func TestSplitTextEmptySeparatorSplitsRunes(t *testing.T) {
	s := newSplitter(t, WithSeparator(""), WithChunkSize(2), WithChunkOverlap(0))

	assert.Equal(t, []string{"ab", "cd", "e"}, split(t, s, "abcde"))
}

func TestNewCharacterSplitterValidates(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"zero size", []Option{WithChunkSize(0)}},
		{"negative overlap", []Option{WithChunkOverlap(-1)}},
		{"overlap not below size", []Option{WithChunkSize(10), WithChunkOverlap(10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCharacterSplitter(tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestWithLengthFunc(t *testing.T) {
	words := func(s string) int { return len(strings.Fields(s)) }
	s := newSplitter(t, WithSeparator(" "), WithChunkSize(2), WithChunkOverlap(0), WithLengthFunc(words))

	assert.Equal(t, []string{"one two", "three"}, split(t, s, "one two three"))
}

func TestSplitDocumentsCopiesMetadata(t *testing.T) {
	s := newSplitter(t, WithChunkSize(4), WithChunkOverlap(0))
	docs := []vectorstore.Document{{
		PageContent: "aaaa\n\nbbbb",
		Metadata:    map[string]interface{}{vectorstore.SourceKey: "notes.txt"},
	}}

	out, err := SplitDocuments(s, docs)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, d := range out {
		assert.Equal(t, "notes.txt", d.Source())
	}
	out[0].Metadata["extra"] = true
	assert.NotContains(t, out[1].Metadata, "extra")
	assert.NotContains(t, docs[0].Metadata, "extra")
}
