package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/notes-agent/pkg/agent/prompts"
	"github.com/entrhq/notes-agent/pkg/agent/tools"
	"github.com/entrhq/notes-agent/pkg/types"
)

// Act executes the action requested by the newest message and returns the
// action-result message to append. It fails if the newest message carries
// no action request.
func (l *Loop) Act(ctx context.Context, state *types.State) (*types.Message, error) {
	req, ok := state.Last().ActionRequest()
	if !ok {
		return nil, fmt.Errorf("agent: newest message has no action request")
	}

	args, parseErr := tools.ParseArguments(req.Arguments)
	if parseErr != nil {
		args = map[string]interface{}{}
	}
	l.emitEvent(types.NewToolCallEvent(req.Name, args))

	start := time.Now()
	result, err := l.registry.Execute(ctx, req.Name, req.Arguments)
	if l.metrics != nil {
		l.metrics.ObserveAction(req.Name, err, time.Since(start))
	}

	if err != nil {
		l.emitEvent(types.NewToolResultErrorEvent(req.Name, err))
		agentLog.Warnf("conversation %s: action %s failed: %v", state.ConversationID, req.Name, err)

		if l.recoverToolErrors && ctx.Err() == nil {
			content := prompts.BuildErrorRecoveryMessage(l.recoveryContext(req.Name, err))
			return types.NewActionResultMessage(req.Name, req.ID, content), nil
		}
		return nil, fmt.Errorf("action %q failed: %w", req.Name, err)
	}

	event := types.NewToolResultEvent(req.Name, result.Output)
	for k, v := range result.Metadata {
		event.WithMetadata(k, v)
	}
	l.emitEvent(event)
	agentLog.Debugf("conversation %s: action %s succeeded", state.ConversationID, req.Name)

	return types.NewActionResultMessage(req.Name, req.ID, result.Output), nil
}

func (l *Loop) recoveryContext(name string, err error) prompts.ErrorRecoveryContext {
	rc := prompts.ErrorRecoveryContext{
		Type:     prompts.ErrorTypeToolExecution,
		ToolName: name,
		Error:    err,
	}
	switch {
	case errors.Is(err, tools.ErrUnknownAction):
		rc.Type = prompts.ErrorTypeUnknownTool
		rc.AvailableTools = l.registry.Names()
	case errors.Is(err, tools.ErrMalformedArguments):
		rc.Type = prompts.ErrorTypeInvalidArguments
	}
	return rc
}
