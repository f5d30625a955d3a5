package tokenizer

import (
	"testing"

	"github.com/entrhq/notes-agent/pkg/types"
	"github.com/stretchr/testify/assert"
)

// newOrSkip loads the encoding; tiktoken fetches BPE ranks on first use, so
// the tests skip when that is not possible (offline CI).
func newOrSkip(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := New()
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	return tok
}

func TestCountTokens(t *testing.T) {
	tok := newOrSkip(t)

	assert.Equal(t, 0, tok.CountTokens(""))
	assert.Greater(t, tok.CountTokens("Jake likes cold brew coffee."), 0)
	assert.Greater(t,
		tok.CountTokens("Jake likes cold brew coffee. Anna prefers green tea."),
		tok.CountTokens("Jake likes cold brew coffee."))
}

func TestCountMessagesTokensIncludesOverhead(t *testing.T) {
	tok := newOrSkip(t)

	msgs := []*types.Message{types.NewUserMessage("hello")}
	assert.Greater(t, tok.CountMessagesTokens(msgs), tok.CountTokens("hello"))

	withCall := append(msgs, types.NewActionRequestMessage("", types.ToolCall{
		ID: "c1", Name: "query_notes", Arguments: `{"query":"drink"}`,
	}))
	assert.Greater(t, tok.CountMessagesTokens(withCall), tok.CountMessagesTokens(msgs))
}

func TestForModelFallsBack(t *testing.T) {
	newOrSkip(t)

	tok, err := ForModel("not-a-real-model")
	assert.NoError(t, err)
	assert.Equal(t, DefaultEncoding, tok.Name())
}
