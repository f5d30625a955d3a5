package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/notes-agent/pkg/llm"
	"github.com/entrhq/notes-agent/pkg/types"
)

// Reason makes one call to the model with the full conversation and the
// declared actions, and returns the single assistant message it produced.
// Failures are returned as-is in kind and never retried.
func (l *Loop) Reason(ctx context.Context, state *types.State) (*types.Message, error) {
	messages := state.Snapshot()

	var promptTokens int
	if l.tokenizer != nil {
		promptTokens = l.tokenizer.CountMessagesTokens(messages)
	}
	l.emitEvent(types.NewAPICallStartEvent("llm", promptTokens))

	start := time.Now()
	stream, err := l.provider.StreamCompletion(ctx, messages, l.registry.Definitions())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reasoning call failed: %w", err)
	}

	l.emitEvent(types.NewMessageStartEvent())
	msg, err := llm.Accumulate(stream, func(chunk *llm.StreamChunk) {
		if chunk.Content != "" {
			l.emitEvent(types.NewMessageContentEvent(chunk.Content))
		}
	})
	if l.metrics != nil {
		l.metrics.ObserveReasoning(time.Since(start))
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reasoning stream failed: %w", err)
	}
	// A cancelled stream can close without an error chunk.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.emitEvent(types.NewMessageEndEvent())
	l.emitEvent(types.NewAPICallEndEvent("llm"))

	if l.tokenizer != nil {
		completion := l.tokenizer.CountTokens(msg.Content)
		if msg.ToolCall != nil {
			completion += l.tokenizer.CountTokens(msg.ToolCall.Name) + l.tokenizer.CountTokens(msg.ToolCall.Arguments)
		}
		l.emitEvent(types.NewTokenUsageEvent(promptTokens, completion))
	}

	if req, ok := msg.ActionRequest(); ok {
		agentLog.Debugf("conversation %s: model requested %s", state.ConversationID, req.Name)
	} else {
		l.emitEvent(types.NewNoToolCallEvent())
		agentLog.Debugf("conversation %s: model produced a final answer (%d chars)", state.ConversationID, len(msg.Content))
	}
	return msg, nil
}
