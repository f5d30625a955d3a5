package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/entrhq/notes-agent/pkg/agent/tools"
	"github.com/entrhq/notes-agent/pkg/render"
	"github.com/entrhq/notes-agent/pkg/tools/notetools"
)

// actionOutput is the json and yaml form of an action result. Output that
// is itself JSON, such as query matches, is embedded rather than quoted.
type actionOutput struct {
	Output   interface{}            `json:"output" yaml:"output"`
	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func resultValue(format render.Format, res *tools.ToolResult) interface{} {
	if format == render.FormatPretty {
		return res.Output
	}
	out := actionOutput{Output: res.Output, Metadata: res.Metadata}
	var decoded interface{}
	if json.Valid([]byte(res.Output)) && json.Unmarshal([]byte(res.Output), &decoded) == nil {
		out.Output = decoded
	}
	return out
}

func newNotesCmd(c *cli) *cobra.Command {
	var path, format string

	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Run the note actions directly, without the model",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "Notes directory (default from config)")
	cmd.PersistentFlags().StringVarP(&format, "format", "f", string(render.FormatPretty), "Output format: pretty, json or yaml")

	run := func(cmd *cobra.Command, action, key, value string) error {
		if path == "" {
			path = c.cfg.Notes.Path
		}
		renderer, err := c.renderer(cmd, format)
		if err != nil {
			return err
		}
		registry, err := newRegistry(c.cfg)
		if err != nil {
			return err
		}
		tool, err := registry.Lookup(action)
		if err != nil {
			return err
		}
		res, err := tool.Execute(cmd.Context(), map[string]interface{}{key: value, "path": path})
		if err != nil {
			return err
		}
		return renderer.Value(resultValue(renderer.Format(), res))
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <note>",
			Short: "Append a note to the notes file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, notetools.AppendNoteName, "note", args[0])
			},
		},
		&cobra.Command{
			Use:   "query <query>",
			Short: "Find the notes closest to a query",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, notetools.QueryNotesName, "query", args[0])
			},
		},
	)
	return cmd
}
