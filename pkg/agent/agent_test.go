package agent

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/notes-agent/pkg/agent/tools"
	"github.com/entrhq/notes-agent/pkg/llm"
	"github.com/entrhq/notes-agent/pkg/notes"
	"github.com/entrhq/notes-agent/pkg/textsplit"
	"github.com/entrhq/notes-agent/pkg/tools/notetools"
	"github.com/entrhq/notes-agent/pkg/types"
	"github.com/entrhq/notes-agent/pkg/vectorstore"
)

// scriptedProvider replays one reply per call and records what it saw.
type scriptedProvider struct {
	mu      sync.Mutex
	replies []*types.Message
	errs    []error
	seen    [][]*types.Message
	defs    [][]llm.ToolDefinition
}

func (p *scriptedProvider) StreamCompletion(_ context.Context, messages []*types.Message, defs []llm.ToolDefinition) (<-chan *llm.StreamChunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	call := len(p.seen)
	p.seen = append(p.seen, append([]*types.Message(nil), messages...))
	p.defs = append(p.defs, defs)

	if call < len(p.errs) && p.errs[call] != nil {
		return nil, p.errs[call]
	}
	if call >= len(p.replies) {
		return nil, errors.New("script exhausted")
	}
	reply := p.replies[call]

	ch := make(chan *llm.StreamChunk, 4)
	ch <- &llm.StreamChunk{Role: "assistant", Content: reply.Content}
	if reply.ToolCall != nil {
		ch <- &llm.StreamChunk{ToolCall: &llm.ToolCallDelta{
			ID:        reply.ToolCall.ID,
			Name:      reply.ToolCall.Name,
			Arguments: reply.ToolCall.Arguments,
		}}
	}
	ch <- &llm.StreamChunk{Finished: true}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) Complete(ctx context.Context, messages []*types.Message, defs []llm.ToolDefinition) (*types.Message, error) {
	stream, err := p.StreamCompletion(ctx, messages, defs)
	if err != nil {
		return nil, err
	}
	return llm.Accumulate(stream, nil)
}

func (p *scriptedProvider) GetModelInfo() *types.ModelInfo {
	return &types.ModelInfo{Provider: "scripted", Name: "scripted"}
}

func (p *scriptedProvider) GetModel() string { return "scripted" }

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

type recordingMetrics struct {
	steps   map[string]int
	actions map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{steps: map[string]int{}, actions: map[string]int{}}
}

func (m *recordingMetrics) ObserveStep(phase string)       { m.steps[phase]++ }
func (m *recordingMetrics) ObserveReasoning(time.Duration) {}
func (m *recordingMetrics) ObserveAction(action string, err error, _ time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.actions[action+"/"+outcome]++
}

func actionCall(t *testing.T, id, name string, args map[string]interface{}) *types.Message {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return types.NewActionRequestMessage("", types.ToolCall{ID: id, Name: name, Arguments: string(raw)})
}

func newNotesRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	splitter, err := textsplit.NewCharacterSplitter()
	require.NoError(t, err)
	r, err := notetools.NewRegistry(notes.NewSearcher(splitter, vectorstore.NewHashingEmbedder()))
	require.NoError(t, err)
	return r
}

func newTestLoop(t *testing.T, p llm.Provider, opts ...LoopOption) *Loop {
	t.Helper()
	l, err := NewLoop(p, newNotesRegistry(t), opts...)
	require.NoError(t, err)
	return l
}

func TestNewLoopRequiresCollaborators(t *testing.T) {
	_, err := NewLoop(nil, newNotesRegistry(t))
	assert.Error(t, err)

	_, err = NewLoop(&scriptedProvider{}, nil)
	assert.Error(t, err)
}

func TestNewConversation(t *testing.T) {
	state := NewConversation("./notes/", "What drink does Jake like?")

	require.Equal(t, 2, state.Len())
	assert.Equal(t, types.RoleSystem, state.Messages[0].Role)
	assert.Contains(t, state.Messages[0].Content, "<./notes/>")
	assert.Equal(t, types.RoleUser, state.Messages[1].Role)
	assert.Equal(t, "What drink does Jake like?", state.Messages[1].Content)
	assert.NotEmpty(t, state.ConversationID)
}

func TestDecide(t *testing.T) {
	state := NewConversation("./notes/", "hi")
	assert.Equal(t, DecisionEnd, Decide(state))

	state.Append(types.NewAssistantMessage("hello"))
	assert.Equal(t, DecisionEnd, Decide(state))

	state.Append(actionCall(t, "c1", "append_note", map[string]interface{}{"note": "x", "path": "p"}))
	assert.Equal(t, DecisionContinue, Decide(state))

	assert.Equal(t, DecisionEnd, Decide(nil))
}

func TestRunEndsOnFinalAnswer(t *testing.T) {
	p := &scriptedProvider{replies: []*types.Message{types.NewAssistantMessage("Hello!")}}
	loop := newTestLoop(t, p)

	initial := NewConversation(t.TempDir(), "hi")
	state, err := loop.Run(context.Background(), initial)
	require.NoError(t, err)

	require.Equal(t, 3, state.Len())
	assert.Equal(t, "Hello!", state.Last().Content)
	assert.Equal(t, 1, p.calls())
	assert.Equal(t, 2, initial.Len(), "initial state must not be modified")
	assert.Equal(t, initial.ConversationID, state.ConversationID)
}

func TestRunDeclaresToolsAndSendsFullHistory(t *testing.T) {
	dir := t.TempDir()
	p := &scriptedProvider{replies: []*types.Message{
		actionCall(t, "c1", "append_note", map[string]interface{}{"note": "x", "path": "<" + dir + ">"}),
		types.NewAssistantMessage("Saved."),
	}}
	loop := newTestLoop(t, p)

	state, err := loop.Run(context.Background(), NewConversation(dir, "remember x"))
	require.NoError(t, err)

	require.Len(t, p.seen, 2)
	assert.Len(t, p.seen[0], 2)
	assert.Len(t, p.seen[1], 4)
	for _, defs := range p.defs {
		require.Len(t, defs, 2)
		assert.Equal(t, "append_note", defs[0].Name)
		assert.Equal(t, "query_notes", defs[1].Name)
	}

	require.Equal(t, 5, state.Len())
	result := state.Messages[3]
	assert.Equal(t, types.RoleAction, result.Role)
	assert.Equal(t, "append_note", result.Name)
	assert.Equal(t, "c1", result.ToolCallID)
	assert.Equal(t, "Success", result.Content)

	b, err := os.ReadFile(filepath.Join(dir, notes.FileName))
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(b))
}

func TestRunRelativeNotesPath(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir("notes", 0o755))

	p := &scriptedProvider{replies: []*types.Message{
		actionCall(t, "c1", "append_note", map[string]interface{}{"note": "Jake likes cold brew", "path": "<./notes/>"}),
		actionCall(t, "c2", "query_notes", map[string]interface{}{"query": "Jake drink", "path": "<./notes/>"}),
		types.NewAssistantMessage("Cold brew."),
	}}
	var results []*types.AgentEvent
	loop := newTestLoop(t, p, WithEventHandler(func(e *types.AgentEvent) {
		if e.Type == types.EventTypeToolResult {
			results = append(results, e)
		}
	}))

	state, err := loop.Run(context.Background(), NewConversation("./notes/", "remember Jake likes cold brew"))
	require.NoError(t, err)
	assert.Equal(t, "Cold brew.", state.Last().Content)

	b, err := os.ReadFile(filepath.Join("notes", notes.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Jake likes cold brew\n", string(b))

	require.Len(t, results, 2)
	assert.Contains(t, results[1].ToolOutput, "Jake likes cold brew")
	assert.Equal(t, 1, results[1].Metadata["matches"])
}

func TestActAppendNote(t *testing.T) {
	dir := t.TempDir()
	loop := newTestLoop(t, &scriptedProvider{})

	state := NewConversation(dir, "remember x")
	state.Append(actionCall(t, "c1", "append_note", map[string]interface{}{"note": "x", "path": "<" + dir + ">"}))

	msg, err := loop.Act(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, types.RoleAction, msg.Role)
	assert.Equal(t, "Success", msg.Content)
	assert.Equal(t, "append_note", msg.Name)
}

func TestActWithoutActionRequest(t *testing.T) {
	loop := newTestLoop(t, &scriptedProvider{})
	state := NewConversation(t.TempDir(), "hi")

	_, err := loop.Act(context.Background(), state)
	assert.Error(t, err)
}

func TestRunStopsOnActionErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		reply *types.Message
		want  error
	}{
		{"unknown action", actionCall(t, "c1", "delete_note", map[string]interface{}{"id": "1"}), tools.ErrUnknownAction},
		{"malformed arguments", types.NewActionRequestMessage("", types.ToolCall{ID: "c1", Name: "append_note", Arguments: "{not json"}), tools.ErrMalformedArguments},
		{"empty note", actionCall(t, "c1", "append_note", map[string]interface{}{"note": "", "path": dir}), notes.ErrEmptyNote},
		{"invalid path", actionCall(t, "c1", "query_notes", map[string]interface{}{"query": "q", "path": "<" + filepath.Join(dir, "missing") + ">"}), notes.ErrInvalidPath},
		{"missing file", actionCall(t, "c1", "query_notes", map[string]interface{}{"query": "q", "path": dir}), notes.ErrNotesFileMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptedProvider{replies: []*types.Message{tt.reply, types.NewAssistantMessage("unreachable")}}
			var events []*types.AgentEvent
			loop := newTestLoop(t, p, WithEventHandler(func(e *types.AgentEvent) { events = append(events, e) }))

			state, err := loop.Run(context.Background(), NewConversation(dir, "go"))
			assert.ErrorIs(t, err, tt.want)
			require.NotNil(t, state)
			assert.Equal(t, 3, state.Len(), "partial state holds the request but no result")
			assert.Equal(t, 1, p.calls())

			last := events[len(events)-1]
			assert.Equal(t, types.EventTypeError, last.Type)
		})
	}
}

func TestRunRecoversFromToolErrorsWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	p := &scriptedProvider{replies: []*types.Message{
		actionCall(t, "c1", "append_note", map[string]interface{}{"note": "", "path": dir}),
		actionCall(t, "c2", "append_note", map[string]interface{}{"note": "fixed", "path": dir}),
		types.NewAssistantMessage("Done."),
	}}
	m := newRecordingMetrics()
	loop := newTestLoop(t, p, WithToolErrorRecovery(true), WithMetrics(m))

	state, err := loop.Run(context.Background(), NewConversation(dir, "save something"))
	require.NoError(t, err)

	require.Equal(t, 7, state.Len())
	assert.Contains(t, state.Messages[3].Content, "ERROR")
	assert.Contains(t, state.Messages[3].Content, "note must not be empty")
	assert.Equal(t, "Success", state.Messages[5].Content)
	assert.Equal(t, 1, m.actions["append_note/error"])
	assert.Equal(t, 1, m.actions["append_note/success"])
	assert.Equal(t, 3, m.steps["reasoning"])
	assert.Equal(t, 2, m.steps["acting"])
	assert.Equal(t, 1, m.steps["done"])
}

func TestRunPropagatesReasoningFailure(t *testing.T) {
	boom := errors.New("API request failed with status 429: rate limited")
	p := &scriptedProvider{errs: []error{boom}}
	loop := newTestLoop(t, p)

	state, err := loop.Run(context.Background(), NewConversation(t.TempDir(), "hi"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, state.Len())
	assert.Equal(t, 1, p.calls(), "failures are not retried")
}

func TestRunStepLimit(t *testing.T) {
	dir := t.TempDir()
	call := func(id string) *types.Message {
		return actionCall(t, id, "append_note", map[string]interface{}{"note": "again", "path": dir})
	}
	p := &scriptedProvider{replies: []*types.Message{call("1"), call("2"), call("3")}}
	loop := newTestLoop(t, p, WithMaxSteps(2))
	assert.Equal(t, 2, loop.MaxSteps())

	state, err := loop.Run(context.Background(), NewConversation(dir, "loop"))
	assert.ErrorIs(t, err, ErrStepLimit)
	assert.Equal(t, 2, p.calls())
	assert.Equal(t, 6, state.Len())
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &scriptedProvider{replies: []*types.Message{types.NewAssistantMessage("late")}}
	loop := newTestLoop(t, p)

	_, err := loop.Run(ctx, NewConversation(t.TempDir(), "hi"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmitsEvents(t *testing.T) {
	dir := t.TempDir()
	p := &scriptedProvider{replies: []*types.Message{
		actionCall(t, "c1", "append_note", map[string]interface{}{"note": "x", "path": dir}),
		types.NewAssistantMessage("ok"),
	}}
	var seen []types.AgentEventType
	loop := newTestLoop(t, p, WithEventHandler(func(e *types.AgentEvent) { seen = append(seen, e.Type) }))

	_, err := loop.Run(context.Background(), NewConversation(dir, "x"))
	require.NoError(t, err)

	assert.Contains(t, seen, types.EventTypeToolCall)
	assert.Contains(t, seen, types.EventTypeToolResult)
	assert.Contains(t, seen, types.EventTypeMessageContent)
	assert.Contains(t, seen, types.EventTypeNoToolCall)
	assert.Equal(t, types.EventTypeTurnEnd, seen[len(seen)-1])
}

// The full save-then-recall scenario: the model saves a preference, then
// in a later conversation queries for it and answers from the result.
func TestEndToEndJakeColdBrew(t *testing.T) {
	dir := t.TempDir()
	path := "<" + dir + ">"

	save := &scriptedProvider{replies: []*types.Message{
		actionCall(t, "c1", "append_note", map[string]interface{}{"note": "Jake likes cold brew", "path": path}),
		types.NewAssistantMessage("I've saved that Jake likes cold brew."),
	}}
	_, err := newTestLoop(t, save).Run(context.Background(), NewConversation(dir, "Remember that Jake likes cold brew"))
	require.NoError(t, err)

	recall := &scriptedProvider{replies: []*types.Message{
		actionCall(t, "c2", "query_notes", map[string]interface{}{"query": "What drink does Jake like?", "path": path}),
		types.NewAssistantMessage("Jake likes cold brew."),
	}}
	state, err := newTestLoop(t, recall).Run(context.Background(), NewConversation(dir, "What drink does Jake like?"))
	require.NoError(t, err)

	require.Equal(t, 5, state.Len())
	var doc vectorstore.Document
	require.NoError(t, json.Unmarshal([]byte(state.Messages[3].Content), &doc))
	assert.Equal(t, "Jake likes cold brew", doc.PageContent)
	assert.Equal(t, filepath.Join(dir, notes.FileName), doc.Source())

	// The second reasoning call saw the query result.
	require.Len(t, recall.seen, 2)
	assert.Equal(t, state.Messages[3], recall.seen[1][3])
	assert.Equal(t, "Jake likes cold brew.", state.Last().Content)
}

func TestPhaseAndDecisionStrings(t *testing.T) {
	assert.Equal(t, "reasoning", PhaseReasoning.String())
	assert.Equal(t, "acting", PhaseActing.String())
	assert.Equal(t, "done", PhaseDone.String())
	assert.Equal(t, "continue", DecisionContinue.String())
	assert.Equal(t, "end", DecisionEnd.String())
}
