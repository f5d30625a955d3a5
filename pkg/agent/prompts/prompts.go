// Package prompts builds the messages the notes agent sends to the model.
package prompts

import (
	"fmt"
	"strings"

	"github.com/entrhq/notes-agent/pkg/types"
)

// SystemPromptTemplate frames the assistant's job. The %s verb receives
// the notes path, which the model sees wrapped in '<' and '>'.
const SystemPromptTemplate = `You are a helpful assistant.
Your main jobs are to manage notes for the user and use them to help your resonses.
The path for your notes is: <%s>.
Always check tool and parameter descriptions to confirm you are using the tool correctly.`

// BuildSystemPrompt renders the system prompt for a notes directory.
func BuildSystemPrompt(path string) string {
	return fmt.Sprintf(SystemPromptTemplate, path)
}

// BuildMessages returns the initial two-message conversation: the system
// prompt for path followed by the user's request.
func BuildMessages(path, request string) []*types.Message {
	return []*types.Message{
		types.NewSystemMessage(BuildSystemPrompt(path)),
		types.NewUserMessage(request),
	}
}

// ErrorType classifies a failed action for the recovery message.
type ErrorType int

const (
	ErrorTypeToolExecution ErrorType = iota
	ErrorTypeUnknownTool
	ErrorTypeInvalidArguments
)

// ErrorRecoveryContext describes a failed action.
type ErrorRecoveryContext struct {
	Type           ErrorType
	ToolName       string
	Error          error
	AvailableTools []string
}

// BuildErrorRecoveryMessage renders the action-result content fed back to
// the model when a failed action is recovered from.
func BuildErrorRecoveryMessage(c ErrorRecoveryContext) string {
	var b strings.Builder
	switch c.Type {
	case ErrorTypeUnknownTool:
		fmt.Fprintf(&b, "ERROR: Unknown tool '%s'.", c.ToolName)
		if len(c.AvailableTools) > 0 {
			fmt.Fprintf(&b, " Available tools: %s.", strings.Join(c.AvailableTools, ", "))
		}
		b.WriteString(" Please use one of the available tools.")
	case ErrorTypeInvalidArguments:
		fmt.Fprintf(&b, "ERROR: Invalid arguments for tool '%s': %v.", c.ToolName, c.Error)
		b.WriteString(" Check the tool's parameter descriptions and try again.")
	default:
		fmt.Fprintf(&b, "ERROR: Tool '%s' failed: %v.", c.ToolName, c.Error)
		b.WriteString(" Review the error and adjust the parameters if needed.")
	}
	return b.String()
}
