// Package mcpserver exposes the note actions as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/entrhq/notes-agent/pkg/agent/tools"
	"github.com/entrhq/notes-agent/pkg/logging"
)

var mcpLog = logging.MustComponent("mcp")

// Server serves a tool registry over MCP.
type Server struct {
	registry  *tools.Registry
	mcpServer *server.MCPServer
	names     []string
}

// NewServer registers every tool of registry on a new MCP server.
func NewServer(registry *tools.Registry, version string) *Server {
	s := &Server{
		registry:  registry,
		mcpServer: server.NewMCPServer("notes-agent", version),
	}
	for _, t := range registry.Tools() {
		s.mcpServer.AddTool(toMCPTool(t), s.handler(t))
		s.names = append(s.names, t.Name())
	}
	return s
}

// ServeStdio serves JSON-RPC on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	mcpLog.Infof("serving %d tools over stdio", len(s.names))
	return server.ServeStdio(s.mcpServer)
}

// ToolNames returns the exposed tool names.
func (s *Server) ToolNames() []string {
	return append([]string(nil), s.names...)
}

// toMCPTool declares the tool's string properties. Properties listed as
// required in the schema are required in MCP too.
func toMCPTool(t tools.Tool) mcp.Tool {
	schema := t.Schema()
	required := map[string]bool{}
	if req, ok := schema["required"].([]string); ok {
		for _, name := range req {
			required[name] = true
		}
	}

	opts := []mcp.ToolOption{mcp.WithDescription(t.Description())}
	props, _ := schema["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, _ := props[name].(map[string]interface{})
		desc, _ := prop["description"].(string)
		propOpts := []mcp.PropertyOption{mcp.Description(desc)}
		if required[name] {
			propOpts = append(propOpts, mcp.Required())
		}
		opts = append(opts, mcp.WithString(name, propOpts...))
	}
	return mcp.NewTool(t.Name(), opts...)
}

func (s *Server) handler(t tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]interface{}{}
		}

		res, err := t.Execute(ctx, args)
		if err != nil {
			mcpLog.Warnf("tool %s failed: %v", t.Name(), err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(res.Output), nil
	}
}
