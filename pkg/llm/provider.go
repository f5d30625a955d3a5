// Package llm provides abstractions for the reasoning and embedding
// collaborators used by the notes agent.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-3.5-turbo"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg, err := provider.Complete(ctx, messages, registry.Definitions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if req, ok := msg.ActionRequest(); ok {
//	    fmt.Println("model wants", req.Name)
//	}
package llm

import (
	"context"

	"github.com/entrhq/notes-agent/pkg/types"
)

// ToolDefinition declares an operation the model may request: its name,
// a description for the model, and a JSON schema for its arguments.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Provider defines the interface for the reasoning collaborator.
//
// Providers handle API communication and return simple StreamChunk values.
// The decision loop is responsible for turning chunks into events and for
// threading the conversation state.
type Provider interface {
	// StreamCompletion sends the conversation and declared tools to the
	// model and streams back response chunks.
	//
	// The returned channel emits:
	// - content deltas (Content set)
	// - tool call deltas (ToolCall set, arguments arriving in fragments)
	// - a final chunk with Finished=true
	// - error chunks with Error set
	//
	// The channel is closed when streaming completes or an error occurs.
	// Returns an error only if streaming cannot be initiated (bad config,
	// network, non-200 status).
	StreamCompletion(ctx context.Context, messages []*types.Message, tools []ToolDefinition) (<-chan *StreamChunk, error)

	// Complete is a convenience wrapper around StreamCompletion that
	// accumulates the stream into exactly one assistant message.
	Complete(ctx context.Context, messages []*types.Message, tools []ToolDefinition) (*types.Message, error)

	// GetModelInfo returns information about the model being used.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name being used.
	GetModel() string
}

// Embedder turns texts into embedding vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float64, error)
}
