package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadhunt/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that lets LLMs run a dead
export hunt on a directory.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "deadhunt": {
        "command": "deadhunt",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - hunt_dead_exports    Unused components, hooks, functions and types

Available prompts:
  - dead-export-cleanup  Walk through removing dead exports safely`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest (server.json)",
				Action: runManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	server := mcpserver.NewServer(version, cfg, newLogger(c.Bool("verbose")))
	if err := server.Run(c.Context); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
