// Package mcpserver exposes the tool registry over the Model Context
// Protocol, so external MCP clients can call the same tools the
// assistant uses.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quorumbot/quorum/internal/log"
	"github.com/quorumbot/quorum/internal/tools"
)

// Server wraps the MCP SDK server around the tool registry.
type Server struct {
	mcpServer *mcp.Server
	registry  *tools.Registry
	logger    log.Logger
}

// Config holds MCP server configuration.
type Config struct {
	Name     string
	Version  string
	Registry *tools.Registry
	Logger   log.Logger
}

// NewServer creates an MCP server exposing every non-admin registry
// tool. Admin-only tools stay internal; MCP clients are not
// authenticated, so they get the non-admin view.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		registry: cfg.Registry,
		logger:   cfg.Logger,
	}
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on the given transport. Blocking.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("mcp server starting", "tools", len(s.registry.Specs(false)))
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) registerTools() {
	for _, spec := range s.registry.Specs(false) {
		def, ok := s.registry.Lookup(spec.Name)
		if !ok {
			continue
		}
		s.mcpServer.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Schema,
		}, s.toolHandler(def))
	}
}

// toolHandler adapts a registry definition to the MCP tool handler
// shape. Arguments arrive as raw JSON; results go back as one JSON text
// block. Execution errors become tool errors, not protocol errors.
func (s *Server) toolHandler(def *tools.Definition) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]any
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return toolError(fmt.Sprintf("failed to parse arguments: %v", err)), nil
			}
		}

		result, err := def.Handler(ctx, args)
		if err != nil {
			s.logger.Warn("mcp tool failed", "tool", def.Name, "error", err)
			return toolError(err.Error()), nil
		}

		payload, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshal result for %s: %w", def.Name, err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		}, nil
	}
}

func toolError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
	}
}
