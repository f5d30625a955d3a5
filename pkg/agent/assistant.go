package agent

import (
	"context"
	"fmt"

	"github.com/entrhq/notes-agent/pkg/types"
)

// Run drives the conversation from Reasoning until a reply without an
// action request. The initial state is not modified; the returned state
// holds every message produced so far and is returned even on error.
func (l *Loop) Run(ctx context.Context, initial *types.State) (*types.State, error) {
	if initial == nil {
		return nil, fmt.Errorf("agent: initial state is required")
	}
	state := initial.Merge(nil)
	phase := PhaseReasoning
	steps := 0

	agentLog.Infof("conversation %s: starting with %d messages", state.ConversationID, state.Len())

	for {
		switch phase {
		case PhaseReasoning:
			if l.maxSteps > 0 && steps >= l.maxSteps {
				l.emitEvent(types.NewErrorEvent(ErrStepLimit))
				agentLog.Warnf("conversation %s: step limit %d reached", state.ConversationID, l.maxSteps)
				return state, ErrStepLimit
			}
			steps++
			l.observeStep(PhaseReasoning)

			msg, err := l.Reason(ctx, state)
			if err != nil {
				return state, l.fail(state, err)
			}
			state.Append(msg)

			if Decide(state) == DecisionContinue {
				phase = PhaseActing
			} else {
				phase = PhaseDone
			}

		case PhaseActing:
			l.observeStep(PhaseActing)

			msg, err := l.Act(ctx, state)
			if err != nil {
				return state, l.fail(state, err)
			}
			state.Append(msg)
			phase = PhaseReasoning

		case PhaseDone:
			l.observeStep(PhaseDone)
			l.emitEvent(types.NewTurnEndEvent())
			agentLog.Infof("conversation %s: done after %d reasoning steps, %d messages", state.ConversationID, steps, state.Len())
			return state, nil
		}
	}
}

func (l *Loop) fail(state *types.State, err error) error {
	l.emitEvent(types.NewErrorEvent(err))
	agentLog.Errorf("conversation %s: stopped: %v", state.ConversationID, err)
	return err
}
