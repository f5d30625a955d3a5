// Package tokenizer counts tokens client-side with tiktoken so that the loop
// can report usage and the text splitter can measure chunks in tokens.
package tokenizer

import (
	"fmt"

	"github.com/entrhq/notes-agent/pkg/types"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used when the model has no known encoding.
const DefaultEncoding = "cl100k_base"

// Per-message overhead used by the chat format (role markers and separators).
const (
	tokensPerMessage = 3
	tokensPerName    = 1
	replyPriming     = 3
)

// Tokenizer wraps a tiktoken encoding.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// New returns a tokenizer for the default encoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: load %s: %w", DefaultEncoding, err)
	}
	return &Tokenizer{encoding: enc, name: DefaultEncoding}, nil
}

// ForModel returns a tokenizer for the given model, falling back to the
// default encoding for models tiktoken does not know.
func ForModel(model string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return New()
	}
	return &Tokenizer{encoding: enc, name: model}, nil
}

// Name returns the model or encoding name the tokenizer was built for.
func (t *Tokenizer) Name() string {
	return t.name
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessagesTokens estimates the prompt size of a conversation.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += tokensPerMessage
		total += t.CountTokens(string(msg.Role))
		total += t.CountTokens(msg.Content)
		if msg.Name != "" {
			total += tokensPerName + t.CountTokens(msg.Name)
		}
		if msg.ToolCall != nil {
			total += t.CountTokens(msg.ToolCall.Name) + t.CountTokens(msg.ToolCall.Arguments)
		}
	}
	return total + replyPriming
}
