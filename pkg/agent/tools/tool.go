// Package tools defines the action contract used by the decision loop and
// the registry that dispatches action requests by name.
package tools

import (
	"context"
	"errors"
)

var (
	// ErrUnknownAction is returned when a requested action name is not registered.
	ErrUnknownAction = errors.New("tools: unknown action")

	// ErrMalformedArguments is returned when an argument payload is not a
	// JSON object or does not satisfy the action's schema.
	ErrMalformedArguments = errors.New("tools: malformed arguments")
)

// Tool represents an action the model may request during a conversation.
// Tools are declared to the model with their name, description and JSON
// schema, and invoked with the decoded argument object the model produced.
type Tool interface {
	// Name returns the unique identifier for this tool (e.g., "append_note")
	Name() string

	// Description returns the text the model sees when choosing an action
	Description() string

	// Schema returns the JSON schema for this tool's input parameters.
	// It must be a JSON Schema object describing the argument object.
	Schema() map[string]interface{}

	// Execute runs the tool with arguments already parsed from JSON.
	// Implementations validate the arguments with DecodeArguments.
	Execute(ctx context.Context, args map[string]interface{}) (*ToolResult, error)
}

// ToolResult represents the result of a tool execution with optional metadata.
type ToolResult struct {
	Output   string                 // The content of the action-result message
	Metadata map[string]interface{} // Optional metadata included in tool result events
}

// BaseToolSchema creates a common JSON schema structure for a tool
// with the given properties and required fields
func BaseToolSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty builds a string schema property with a description.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}
