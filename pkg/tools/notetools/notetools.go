package notetools

import (
	"github.com/entrhq/notes-agent/pkg/agent/tools"
	"github.com/entrhq/notes-agent/pkg/notes"
)

// NewRegistry returns a registry holding append_note and query_notes.
// append_note applies the searcher's path checks too.
func NewRegistry(searcher *notes.Searcher) (*tools.Registry, error) {
	return tools.NewRegistry(NewAppendNoteTool(searcher.PathChecks()...), NewQueryNotesTool(searcher))
}
