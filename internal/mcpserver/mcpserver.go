// Package mcpserver exposes the hunt to agents over the Model Context Protocol.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/deadhunt/pkg/config"
)

// Server wraps the MCP server and registers the deadhunt tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	logger *slog.Logger
}

// NewServer creates a new MCP server. cfg supplies the defaults every tool
// call starts from; nil means the built-in defaults.
func NewServer(version string, cfg *config.Config, logger *slog.Logger) *Server {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "deadhunt",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, config: cfg, logger: logger}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "hunt_dead_exports",
		Description: describeHuntDeadExports(),
	}, s.handleHuntDeadExports)
}

func describeHuntDeadExports() string {
	return `Finds exported JavaScript and TypeScript components, hooks, functions and types that no other file references.

USE WHEN:
- Cleaning up a React or TypeScript codebase before a refactor
- Checking whether a component or hook can be deleted
- Reviewing leftovers after a feature was removed

INTERPRETING RESULTS:
- unused: exports whose name never appears in another scanned file
- Matching is by name only: any same-named identifier elsewhere keeps an export alive
- Dynamic imports, string keys and re-exports are invisible, so verify before deleting
- collisions: names exported by several files; only the last file is tracked
- summary.files_skipped counts files that could not be read or parsed

METRICS RETURNED:
- unused: type, name, file, line for each dead export
- used (with show_used): name, file and number of referencing files
- summary: totals per category and file counts`
}
