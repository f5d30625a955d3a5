// Package render prints conversation transcripts for the command line.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/notes-agent/pkg/types"
)

// Format selects the transcript encoding.
type Format string

const (
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPretty, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatPretty, nil
	default:
		return "", fmt.Errorf("unknown output format %q (must be pretty, json or yaml)", s)
	}
}

var (
	roleStyles = map[types.MessageRole]lipgloss.Style{
		types.RoleSystem:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true),
		types.RoleUser:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		types.RoleAssistant: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		types.RoleAction:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
	}
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Renderer writes transcripts to an output stream.
type Renderer struct {
	out      io.Writer
	format   Format
	color    bool
	markdown func(string) (string, error)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor forces styled output on or off.
func WithColor(enabled bool) Option {
	return func(r *Renderer) {
		r.color = enabled
	}
}

// WithMarkdownStyle renders assistant replies as markdown using a named
// glamour style ("dark", "light", "notty", ...). An empty name picks a
// style from the terminal background.
func WithMarkdownStyle(style string) Option {
	return func(r *Renderer) {
		opt := glamour.WithAutoStyle()
		if style != "" {
			opt = glamour.WithStandardStyle(style)
		}
		tr, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(100))
		if err != nil {
			return
		}
		r.markdown = tr.Render
	}
}

// NewRenderer creates a renderer. For pretty output to a terminal, colour
// and markdown rendering are enabled automatically.
func NewRenderer(out io.Writer, format Format, opts ...Option) *Renderer {
	r := &Renderer{out: out, format: format}
	if isTerminal(out) && termenv.ColorProfile() != termenv.Ascii {
		r.color = true
		WithMarkdownStyle("")(r)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Format returns the configured output format.
func (r *Renderer) Format() Format {
	return r.format
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Transcript is the encoded form of a finished conversation.
type Transcript struct {
	ConversationID string           `json:"conversation_id" yaml:"conversation_id"`
	Messages       []*types.Message `json:"messages" yaml:"messages"`
	Error          string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewTranscript captures a state and the error the loop stopped with.
func NewTranscript(state *types.State, runErr error) *Transcript {
	t := &Transcript{}
	if state != nil {
		t.ConversationID = state.ConversationID
		t.Messages = state.Snapshot()
	}
	if runErr != nil {
		t.Error = runErr.Error()
	}
	return t
}

// Render writes the transcript in the configured format.
func (r *Renderer) Render(t *Transcript) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return err
		}
		return enc.Close()
	default:
		return r.renderPretty(t)
	}
}

// Value writes a single value (a tool result or document) in the
// configured format. Pretty output prints strings as-is.
func (r *Renderer) Value(v interface{}) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		return yaml.NewEncoder(r.out).Encode(v)
	default:
		if s, ok := v.(string); ok {
			_, err := fmt.Fprintln(r.out, s)
			return err
		}
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(r.out, string(b))
		return err
	}
}

func (r *Renderer) renderPretty(t *Transcript) error {
	for _, msg := range t.Messages {
		if msg.Role == types.RoleSystem {
			continue
		}
		if _, err := fmt.Fprintln(r.out, r.header(msg)); err != nil {
			return err
		}
		if body := r.body(msg); body != "" {
			if _, err := fmt.Fprintln(r.out, body); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(r.out); err != nil {
			return err
		}
	}
	if t.Error != "" {
		_, err := fmt.Fprintln(r.out, r.style(actionStyle, "error: "+t.Error))
		return err
	}
	return nil
}

func (r *Renderer) header(msg *types.Message) string {
	label := string(msg.Role)
	if msg.Role == types.RoleAction && msg.Name != "" {
		label += " (" + msg.Name + ")"
	}
	return r.style(roleStyles[msg.Role], label+":")
}

func (r *Renderer) body(msg *types.Message) string {
	var parts []string
	content := strings.TrimSpace(msg.Content)
	if content != "" {
		if msg.Role == types.RoleAssistant && r.markdown != nil {
			if rendered, err := r.markdown(content); err == nil {
				content = strings.TrimRight(rendered, "\n")
			}
		}
		parts = append(parts, content)
	}
	if req, ok := msg.ActionRequest(); ok {
		parts = append(parts, r.style(actionStyle, fmt.Sprintf("-> %s %s", req.Name, req.Arguments)))
	}
	return strings.Join(parts, "\n")
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// StreamHandler returns an event handler that prints assistant content
// deltas and action calls as they happen.
func (r *Renderer) StreamHandler() types.EventHandler {
	return func(e *types.AgentEvent) {
		switch {
		case e.IsMessageEvent():
			if e.Type == types.EventTypeMessageEnd {
				fmt.Fprintln(r.out)
				return
			}
			fmt.Fprint(r.out, e.Content)
		case e.IsToolEvent() && e.IsErrorEvent():
			fmt.Fprintln(r.out, r.style(actionStyle, fmt.Sprintf("!! %s: %v", e.ToolName, e.Error)))
		case e.Type == types.EventTypeToolCall:
			fmt.Fprintln(r.out, r.style(actionStyle, "-> "+e.ToolName))
		}
	}
}
