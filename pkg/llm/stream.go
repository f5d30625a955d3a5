package llm

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/entrhq/notes-agent/pkg/types"
)

// ErrIncompleteStream is returned when a stream closes before the model
// signalled the end of its reply.
var ErrIncompleteStream = errors.New("llm: stream ended before completion")

// ToolCallDelta is a fragment of a streamed tool call. Index identifies
// which call the fragment belongs to; ID and Name usually arrive on the
// first fragment and Arguments is concatenated across fragments.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// StreamChunk is one piece of a streamed model response.
type StreamChunk struct {
	Role     string
	Content  string
	ToolCall *ToolCallDelta
	Finished bool
	Error    error
}

// IsError reports whether the chunk carries a stream-time error.
func (c *StreamChunk) IsError() bool {
	return c.Error != nil
}

// Accumulate drains a stream into a single assistant message. onChunk, if
// non-nil, sees every non-error chunk as it arrives. The first tool call
// (lowest index) becomes the message's action request; any further calls
// are dropped since the loop executes one action per step. A stream that
// closes without a Finished chunk yields ErrIncompleteStream.
func Accumulate(stream <-chan *StreamChunk, onChunk func(*StreamChunk)) (*types.Message, error) {
	var content strings.Builder
	calls := make(map[int]*types.ToolCall)
	finished := false

	for chunk := range stream {
		if chunk.IsError() {
			// Keep draining so the producer goroutine can exit.
			for range stream {
			}
			return nil, chunk.Error
		}
		if onChunk != nil {
			onChunk(chunk)
		}
		content.WriteString(chunk.Content)
		if chunk.Finished {
			finished = true
		}

		if d := chunk.ToolCall; d != nil {
			call, ok := calls[d.Index]
			if !ok {
				call = &types.ToolCall{}
				calls[d.Index] = call
			}
			if d.ID != "" {
				call.ID = d.ID
			}
			call.Name = mergeName(call.Name, d.Name)
			call.Arguments += d.Arguments
		}
	}
	if !finished {
		return nil, ErrIncompleteStream
	}

	msg := types.NewAssistantMessage(content.String())
	if len(calls) == 0 {
		return msg, nil
	}

	indexes := make([]int, 0, len(calls))
	for i := range calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	first := calls[indexes[0]]
	if first.Name == "" {
		return nil, fmt.Errorf("model returned a tool call without a name")
	}
	msg.ToolCall = first
	return msg, nil
}

// mergeName folds a streamed name fragment into the name seen so far.
// OpenAI sends the name once; some compatible servers repeat it in every
// delta, either whole or as a growing prefix, and those are not appended.
func mergeName(current, fragment string) string {
	switch {
	case fragment == "":
		return current
	case current == "", strings.HasPrefix(fragment, current):
		return fragment
	default:
		return current + fragment
	}
}
