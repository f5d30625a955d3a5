package types

// AgentEventType defines the type of event emitted by the decision loop.
type AgentEventType string

const (
	EventTypeMessageStart    AgentEventType = "message_start"     // EventTypeMessageStart indicates the model started composing a message.
	EventTypeMessageContent  AgentEventType = "message_content"   // EventTypeMessageContent carries a streamed content delta.
	EventTypeMessageEnd      AgentEventType = "message_end"       // EventTypeMessageEnd indicates the model finished its message.
	EventTypeToolCall        AgentEventType = "tool_call"         // EventTypeToolCall indicates an action is about to run.
	EventTypeToolResult      AgentEventType = "tool_result"       // EventTypeToolResult carries a successful action result.
	EventTypeToolResultError AgentEventType = "tool_result_error" // EventTypeToolResultError indicates an action failed.
	EventTypeNoToolCall      AgentEventType = "no_tool_call"      // EventTypeNoToolCall indicates the model produced a final answer.
	EventTypeAPICallStart    AgentEventType = "api_call_start"    // EventTypeAPICallStart indicates a reasoning call is starting.
	EventTypeAPICallEnd      AgentEventType = "api_call_end"      // EventTypeAPICallEnd indicates a reasoning call completed.
	EventTypeTokenUsage      AgentEventType = "token_usage"       // EventTypeTokenUsage carries client-side token counts.
	EventTypeTurnEnd         AgentEventType = "turn_end"          // EventTypeTurnEnd indicates the loop reached its terminal state.
	EventTypeError           AgentEventType = "error"             // EventTypeError indicates the loop stopped on an error.
)

// AgentEvent represents an event emitted by the loop during execution.
type AgentEvent struct {
	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}

	// ToolInput is the decoded argument payload (for tool call events).
	ToolInput map[string]interface{}

	// ToolOutput is the result from the action (for tool result events).
	ToolOutput interface{}

	// Error contains error information for error events.
	Error error

	// Content holds text content for content events.
	Content string

	// ToolName is the name of the action (for tool events).
	ToolName string

	// Type indicates the kind of event.
	Type AgentEventType

	// TokenUsage contains token usage information (for token usage events).
	TokenUsage *TokenUsage
}

// TokenUsage contains token usage statistics for one reasoning call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ModelInfo describes the model behind a provider.
type ModelInfo struct {
	Provider          string
	Name              string
	SupportsStreaming bool
	SupportsTools     bool
	Metadata          map[string]interface{}
}

func newEvent(t AgentEventType) *AgentEvent {
	return &AgentEvent{Type: t, Metadata: make(map[string]interface{})}
}

// NewMessageStartEvent creates a message start event.
func NewMessageStartEvent() *AgentEvent {
	return newEvent(EventTypeMessageStart)
}

// NewMessageContentEvent creates a message content event.
func NewMessageContentEvent(content string) *AgentEvent {
	e := newEvent(EventTypeMessageContent)
	e.Content = content
	return e
}

// NewMessageEndEvent creates a message end event.
func NewMessageEndEvent() *AgentEvent {
	return newEvent(EventTypeMessageEnd)
}

// NewToolCallEvent creates a tool call event.
func NewToolCallEvent(toolName string, toolInput map[string]interface{}) *AgentEvent {
	e := newEvent(EventTypeToolCall)
	e.ToolName = toolName
	e.ToolInput = toolInput
	return e
}

// NewToolResultEvent creates a tool result event.
func NewToolResultEvent(toolName string, output interface{}) *AgentEvent {
	e := newEvent(EventTypeToolResult)
	e.ToolName = toolName
	e.ToolOutput = output
	return e
}

// NewToolResultErrorEvent creates a tool result error event.
func NewToolResultErrorEvent(toolName string, err error) *AgentEvent {
	e := newEvent(EventTypeToolResultError)
	e.ToolName = toolName
	e.Error = err
	return e
}

// NewNoToolCallEvent creates a no tool call event.
func NewNoToolCallEvent() *AgentEvent {
	return newEvent(EventTypeNoToolCall)
}

// NewAPICallStartEvent creates an API call start event.
func NewAPICallStartEvent(apiName string, promptTokens int) *AgentEvent {
	e := newEvent(EventTypeAPICallStart)
	e.Metadata["api_name"] = apiName
	e.Metadata["prompt_tokens"] = promptTokens
	return e
}

// NewAPICallEndEvent creates an API call end event.
func NewAPICallEndEvent(apiName string) *AgentEvent {
	e := newEvent(EventTypeAPICallEnd)
	e.Metadata["api_name"] = apiName
	return e
}

// NewTokenUsageEvent creates a token usage event.
func NewTokenUsageEvent(promptTokens, completionTokens int) *AgentEvent {
	e := newEvent(EventTypeTokenUsage)
	e.TokenUsage = &TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
	return e
}

// NewTurnEndEvent creates a turn end event.
func NewTurnEndEvent() *AgentEvent {
	return newEvent(EventTypeTurnEnd)
}

// NewErrorEvent creates an error event.
func NewErrorEvent(err error) *AgentEvent {
	e := newEvent(EventTypeError)
	e.Error = err
	return e
}

// WithMetadata adds metadata to the event and returns the event for chaining.
func (e *AgentEvent) WithMetadata(key string, value interface{}) *AgentEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// IsMessageEvent returns true if this is any message-related event.
func (e *AgentEvent) IsMessageEvent() bool {
	return e.Type == EventTypeMessageStart ||
		e.Type == EventTypeMessageContent ||
		e.Type == EventTypeMessageEnd
}

// IsToolEvent returns true if this is any tool-related event.
func (e *AgentEvent) IsToolEvent() bool {
	return e.Type == EventTypeToolCall ||
		e.Type == EventTypeToolResult ||
		e.Type == EventTypeToolResultError ||
		e.Type == EventTypeNoToolCall
}

// IsErrorEvent returns true if this is an error event.
func (e *AgentEvent) IsErrorEvent() bool {
	return e.Type == EventTypeError || e.Type == EventTypeToolResultError
}

// EventHandler receives events emitted by the loop. Handlers run on the
// loop's goroutine and must not block for long.
type EventHandler func(*AgentEvent)
