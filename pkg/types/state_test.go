package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateAppendPreservesOrder(t *testing.T) {
	s := NewState(NewSystemMessage("sys"), NewUserMessage("hi"))
	s.Append(NewAssistantMessage("hello"))

	require.Equal(t, 3, s.Len())
	assert.Equal(t, RoleSystem, s.Messages[0].Role)
	assert.Equal(t, RoleUser, s.Messages[1].Role)
	assert.Equal(t, "hello", s.Last().Content)
	assert.NotEmpty(t, s.ConversationID)
}

func TestStateMergeConcatenates(t *testing.T) {
	a := NewState(NewUserMessage("one"))
	b := NewState(NewAssistantMessage("two"), NewAssistantMessage("three"))

	merged := a.Merge(b)

	require.Equal(t, 3, merged.Len())
	assert.Equal(t, "one", merged.Messages[0].Content)
	assert.Equal(t, "three", merged.Last().Content)
	assert.Equal(t, a.ConversationID, merged.ConversationID)
	assert.Equal(t, 1, a.Len(), "merge must not modify its receiver")
	assert.Equal(t, 2, b.Len(), "merge must not modify its argument")

	assert.Equal(t, 1, a.Merge(nil).Len())
}

func TestStateLastEmpty(t *testing.T) {
	assert.Nil(t, NewState().Last())
}

func TestMessageActionRequest(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want bool
	}{
		{"final answer", NewAssistantMessage("done"), false},
		{"action request", NewActionRequestMessage("", ToolCall{ID: "c1", Name: "append_note", Arguments: `{}`}), true},
		{"empty tool name", NewActionRequestMessage("", ToolCall{ID: "c1"}), false},
		{"user message with call", &Message{Role: RoleUser, ToolCall: &ToolCall{Name: "x"}}, false},
		{"nil message", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, ok := tt.msg.ActionRequest()
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, tt.msg.ToolCall.Name, req.Name)
				assert.Equal(t, tt.msg.ToolCall.ID, req.ID)
			}
			assert.Equal(t, tt.want, tt.msg.HasActionRequest())
		})
	}
}

func TestNewActionResultMessage(t *testing.T) {
	m := NewActionResultMessage("append_note", "c1", "Success")
	assert.Equal(t, RoleAction, m.Role)
	assert.Equal(t, "append_note", m.Name)
	assert.Equal(t, "c1", m.ToolCallID)
	assert.False(t, m.HasActionRequest())
}
