package notetools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrhq/notes-agent/pkg/agent/tools"
	"github.com/entrhq/notes-agent/pkg/notes"
)

// NoNotesResult is returned when the notes file exists but holds nothing.
const NoNotesResult = "No notes found."

// QueryNotesTool returns the stored notes most relevant to a query.
type QueryNotesTool struct {
	searcher *notes.Searcher
}

// NewQueryNotesTool creates a new QueryNotesTool.
func NewQueryNotesTool(searcher *notes.Searcher) *QueryNotesTool {
	return &QueryNotesTool{searcher: searcher}
}

// Name returns the tool name.
func (t *QueryNotesTool) Name() string {
	return QueryNotesName
}

// Description returns the tool description.
func (t *QueryNotesTool) Description() string {
	return "Useful for when you want to query existing notes for more information."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *QueryNotesTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"query": tools.StringProperty("This should be the query for searching through the notes with."),
			"path":  tools.StringProperty(pathDescription),
		},
		[]string{"query", "path"},
	)
}

type queryNotesArgs struct {
	Query string `mapstructure:"query"`
	Path  string `mapstructure:"path"`
}

// Execute searches the notes. A single match is encoded as one document
// object; several matches as an array, best first.
func (t *QueryNotesTool) Execute(ctx context.Context, args map[string]interface{}) (*tools.ToolResult, error) {
	var in queryNotesArgs
	if err := tools.DecodeArguments(t.Schema(), args, &in); err != nil {
		return nil, err
	}

	docs, err := t.searcher.Query(ctx, in.Path, in.Query)
	if err != nil {
		return nil, err
	}

	meta := map[string]interface{}{"matches": len(docs), "k": t.searcher.K()}
	if len(docs) == 0 {
		return &tools.ToolResult{Output: NoNotesResult, Metadata: meta}, nil
	}

	var payload interface{} = docs
	if len(docs) == 1 {
		payload = docs[0]
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("notetools: encode result: %w", err)
	}
	return &tools.ToolResult{Output: string(out), Metadata: meta}, nil
}
