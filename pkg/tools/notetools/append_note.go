package notetools

import (
	"context"

	"github.com/entrhq/notes-agent/pkg/agent/tools"
	"github.com/entrhq/notes-agent/pkg/notes"
)

// AppendNoteResult is the content returned after a successful append.
const AppendNoteResult = "Success"

// AppendNoteTool saves a note as one new line of the notes file.
type AppendNoteTool struct {
	checks []notes.PathCheck
}

// NewAppendNoteTool creates a new AppendNoteTool. Checks run on the notes
// directory after it has been validated.
func NewAppendNoteTool(checks ...notes.PathCheck) *AppendNoteTool {
	return &AppendNoteTool{checks: checks}
}

// Name returns the tool name.
func (t *AppendNoteTool) Name() string {
	return AppendNoteName
}

// Description returns the tool description.
func (t *AppendNoteTool) Description() string {
	return "Useful for when you want to save a note for the user."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *AppendNoteTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"note": tools.StringProperty("This should be the note that needs to be saved."),
			"path": tools.StringProperty(pathDescription),
		},
		[]string{"note", "path"},
	)
}

type appendNoteArgs struct {
	Note string `mapstructure:"note"`
	Path string `mapstructure:"path"`
}

// Execute appends the note.
func (t *AppendNoteTool) Execute(_ context.Context, args map[string]interface{}) (*tools.ToolResult, error) {
	var in appendNoteArgs
	if err := tools.DecodeArguments(t.Schema(), args, &in); err != nil {
		return nil, err
	}

	if err := notes.AppendNote(in.Path, in.Note, t.checks...); err != nil {
		return nil, err
	}

	return &tools.ToolResult{
		Output: AppendNoteResult,
		Metadata: map[string]interface{}{
			"bytes_written": len(in.Note) + 1,
		},
	}, nil
}
