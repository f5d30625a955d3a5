package main

import (
	"github.com/spf13/cobra"

	"github.com/entrhq/notes-agent/pkg/mcpserver"
)

func newMCPCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the note actions as a Model Context Protocol server on stdio",
		Long: `Exposes append_note and query_notes as MCP tools over standard input and
output. Logs go to the session log file so stdout stays JSON-RPC only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry(c.cfg)
			if err != nil {
				return err
			}
			srv := mcpserver.NewServer(registry, version)
			cliLog.Infof("mcp: serving %v on stdio", srv.ToolNames())
			return srv.ServeStdio()
		},
	}
}
