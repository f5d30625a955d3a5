package types

// MessageRole identifies who produced a message in the conversation.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // RoleSystem carries instructions for the model.
	RoleUser      MessageRole = "user"      // RoleUser carries the user's request.
	RoleAssistant MessageRole = "assistant" // RoleAssistant carries model output, optionally with an action request.
	RoleAction    MessageRole = "action"    // RoleAction carries the result of an executed action.
)

// ToolCall is an action request as emitted by the model: the action name and
// its raw JSON argument payload. Arguments are kept raw so that parsing
// failures surface in the acting step rather than while streaming.
type ToolCall struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Arguments string `json:"arguments" yaml:"arguments"`
}

// Message is one entry of the conversation history.
type Message struct {
	Role    MessageRole `json:"role" yaml:"role"`
	Content string      `json:"content" yaml:"content"`

	// Name is the action name on action-result messages.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// ToolCall is set on assistant messages that request an action.
	ToolCall *ToolCall `json:"tool_call,omitempty" yaml:"tool_call,omitempty"`

	// ToolCallID links an action-result message to the request it answers.
	ToolCallID string `json:"tool_call_id,omitempty" yaml:"tool_call_id,omitempty"`
}

// ActionRequest is the view of a pending action derived from an assistant
// message. It is never stored on its own.
type ActionRequest struct {
	ID        string
	Name      string
	Arguments string
}

// NewMessage creates a message with the given role and content.
func NewMessage(role MessageRole, content string) *Message {
	return &Message{Role: role, Content: content}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant message without an action request.
func NewAssistantMessage(content string) *Message {
	return NewMessage(RoleAssistant, content)
}

// NewActionRequestMessage creates an assistant message that asks for an action.
func NewActionRequestMessage(content string, call ToolCall) *Message {
	return &Message{
		Role:     RoleAssistant,
		Content:  content,
		ToolCall: &call,
	}
}

// NewActionResultMessage wraps the output of an action as a history entry.
func NewActionResultMessage(name, toolCallID, content string) *Message {
	return &Message{
		Role:       RoleAction,
		Content:    content,
		Name:       name,
		ToolCallID: toolCallID,
	}
}

// ActionRequest returns the action requested by this message, if any.
// Only assistant messages can request actions.
func (m *Message) ActionRequest() (*ActionRequest, bool) {
	if m == nil || m.Role != RoleAssistant || m.ToolCall == nil || m.ToolCall.Name == "" {
		return nil, false
	}
	return &ActionRequest{
		ID:        m.ToolCall.ID,
		Name:      m.ToolCall.Name,
		Arguments: m.ToolCall.Arguments,
	}, true
}

// HasActionRequest reports whether the message asks for an action.
func (m *Message) HasActionRequest() bool {
	_, ok := m.ActionRequest()
	return ok
}
