package vectorstore

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultHashingDimensions is the vector width of HashingEmbedder.
const DefaultHashingDimensions = 1024

// HashingEmbedder is a deterministic bag-of-words embedder. Each lowercased
// word is hashed into one of Dimensions buckets. It needs no network access
// and is used for offline runs and tests.
type HashingEmbedder struct {
	Dimensions int
}

// NewHashingEmbedder returns an embedder with DefaultHashingDimensions.
func NewHashingEmbedder() *HashingEmbedder {
	return &HashingEmbedder{Dimensions: DefaultHashingDimensions}
}

// Embed implements llm.Embedder.
func (h *HashingEmbedder) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	dims := h.Dimensions
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}

	out := make([][]float64, len(inputs))
	for i, text := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec := make([]float64, dims)
		for _, word := range tokenize(text) {
			hf := fnv.New32a()
			_, _ = hf.Write([]byte(word))
			vec[hf.Sum32()%uint32(dims)]++
		}
		out[i] = vec
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
