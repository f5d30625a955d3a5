// Package agent provides the decision loop that drives a notes conversation.
//
// The loop alternates two phases. Reasoning sends the whole conversation to
// the model; if the reply requests an action, Acting executes it through
// the tool registry, appends the result and hands back to Reasoning. A
// reply without an action request ends the conversation.
//
//	loop, err := agent.NewLoop(provider, registry)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	state, err := loop.Run(ctx, agent.NewConversation("./notes/", "What drink does Jake like?"))
package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/notes-agent/pkg/agent/prompts"
	"github.com/entrhq/notes-agent/pkg/agent/tools"
	"github.com/entrhq/notes-agent/pkg/llm"
	"github.com/entrhq/notes-agent/pkg/llm/tokenizer"
	"github.com/entrhq/notes-agent/pkg/logging"
	"github.com/entrhq/notes-agent/pkg/types"
)

// ErrStepLimit is returned by Run when the configured number of reasoning
// steps is exhausted before the model produced a final answer.
var ErrStepLimit = errors.New("agent: step limit reached")

var agentLog = logging.MustComponent("agent")

// Phase is a node of the decision loop.
type Phase int

const (
	PhaseReasoning Phase = iota
	PhaseActing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseReasoning:
		return "reasoning"
	case PhaseActing:
		return "acting"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Decision is the outcome of inspecting the newest message.
type Decision int

const (
	DecisionContinue Decision = iota
	DecisionEnd
)

func (d Decision) String() string {
	if d == DecisionContinue {
		return "continue"
	}
	return "end"
}

// MetricsRecorder receives loop measurements.
type MetricsRecorder interface {
	ObserveStep(phase string)
	ObserveReasoning(d time.Duration)
	ObserveAction(action string, err error, d time.Duration)
}

// Loop runs conversations against one provider and one tool registry.
// A Loop holds no per-conversation state and may run several
// conversations concurrently.
type Loop struct {
	provider          llm.Provider
	registry          *tools.Registry
	maxSteps          int
	recoverToolErrors bool
	onEvent           types.EventHandler
	metrics           MetricsRecorder
	tokenizer         *tokenizer.Tokenizer
}

// LoopOption is a function that configures a loop
type LoopOption func(*Loop)

// WithMaxSteps caps the number of reasoning steps per conversation. Zero
// means unbounded.
func WithMaxSteps(n int) LoopOption {
	return func(l *Loop) {
		if n >= 0 {
			l.maxSteps = n
		}
	}
}

// WithToolErrorRecovery makes failed actions produce an error description
// as the action result instead of aborting the conversation.
func WithToolErrorRecovery(enabled bool) LoopOption {
	return func(l *Loop) {
		l.recoverToolErrors = enabled
	}
}

// WithEventHandler sets the callback that receives loop events. It is
// called synchronously from the loop's goroutine.
func WithEventHandler(handler types.EventHandler) LoopOption {
	return func(l *Loop) {
		l.onEvent = handler
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) LoopOption {
	return func(l *Loop) {
		l.metrics = m
	}
}

// WithTokenizer enables client-side token accounting.
func WithTokenizer(t *tokenizer.Tokenizer) LoopOption {
	return func(l *Loop) {
		l.tokenizer = t
	}
}

// NewLoop creates a decision loop.
func NewLoop(provider llm.Provider, registry *tools.Registry, opts ...LoopOption) (*Loop, error) {
	if provider == nil {
		return nil, fmt.Errorf("agent: provider is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("agent: tool registry is required")
	}

	l := &Loop{provider: provider, registry: registry}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// MaxSteps returns the configured step cap (0 means unbounded).
func (l *Loop) MaxSteps() int {
	return l.maxSteps
}

// Registry returns the loop's tool registry.
func (l *Loop) Registry() *tools.Registry {
	return l.registry
}

// NewConversation builds the initial state: a system message naming the
// notes path followed by the user's request.
func NewConversation(path, request string) *types.State {
	return types.NewState(prompts.BuildMessages(path, request)...)
}

// Decide inspects the newest message. It continues to Acting only when
// that message requests an action.
func Decide(state *types.State) Decision {
	if state == nil || !state.Last().HasActionRequest() {
		return DecisionEnd
	}
	return DecisionContinue
}

func (l *Loop) emitEvent(event *types.AgentEvent) {
	if l.onEvent != nil {
		l.onEvent(event)
	}
}

func (l *Loop) observeStep(p Phase) {
	if l.metrics != nil {
		l.metrics.ObserveStep(p.String())
	}
}
