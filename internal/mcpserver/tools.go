package mcpserver

import (
	"bytes"
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/deadhunt/internal/output"
	"github.com/panbanda/deadhunt/internal/service/analysis"
	"github.com/panbanda/deadhunt/pkg/hunt"
)

// HuntInput is the input of the hunt_dead_exports tool.
type HuntInput struct {
	Dir       string   `json:"dir,omitempty" jsonschema:"Directory to scan. Defaults to the configured directory (./src)."`
	Types     []string `json:"types,omitempty" jsonschema:"Categories to hunt: component, hook, function, type. Defaults to all."`
	Detectors []string `json:"detectors,omitempty" jsonschema:"Usage detectors to enable: import, markup, identifier, type. Defaults to all."`
	ShowUsed  bool     `json:"show_used,omitempty" jsonschema:"Also list referenced exports with their reference counts."`
	Tolerant  bool     `json:"tolerant,omitempty" jsonschema:"Read files with recoverable syntax errors instead of skipping them."`
	Format    string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

func getFormat(format string) output.Format {
	switch format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data output.Renderable, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toolResult(data output.Renderable, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleHuntDeadExports(ctx context.Context, req *mcp.CallToolRequest, input HuntInput) (*mcp.CallToolResult, any, error) {
	opts := analysis.HuntOptions{Dir: input.Dir, Tolerant: input.Tolerant}

	if len(input.Types) > 0 {
		cats, err := hunt.ParseCategorySet(input.Types)
		if err != nil {
			return toolError(err.Error())
		}
		opts.Categories = cats
	}
	if len(input.Detectors) > 0 {
		dets, err := hunt.ParseDetectorSet(input.Detectors)
		if err != nil {
			return toolError(err.Error())
		}
		opts.Detectors = dets
	}

	svc := analysis.New(analysis.WithConfig(s.config), analysis.WithLogger(s.logger))
	outcome, err := svc.Hunt(ctx, opts)
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(output.NewDeadReport(outcome.Report(), outcome.Root, input.ShowUsed), getFormat(input.Format))
}
