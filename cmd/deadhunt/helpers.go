package main

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadhunt/internal/output"
	"github.com/panbanda/deadhunt/internal/service/analysis"
	"github.com/panbanda/deadhunt/pkg/config"
	"github.com/panbanda/deadhunt/pkg/hunt"
)

// getDir returns the directory argument, or "" to use the configured one.
func getDir(c *cli.Context) string {
	if c.NArg() == 0 {
		return ""
	}
	return c.Args().First()
}

// loadConfig loads --config, or the first config file in the working directory.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, path, err := config.LoadOrDefault(c.String("config"), cwd)
	if err != nil {
		return nil, err
	}
	if path != "" && c.Bool("verbose") {
		fmt.Fprintf(os.Stderr, "Using config %s\n", path)
	}
	if c.IsSet("format") {
		format := strings.ToLower(c.String("format"))
		if format == "md" {
			format = string(output.FormatMarkdown)
		}
		if !slices.Contains(config.Formats, format) {
			return nil, fmt.Errorf("--format: unknown format %q (want %s)", format, strings.Join(config.Formats, ", "))
		}
		cfg.Output.Format = format
	}
	return cfg, nil
}

// huntOptions collects the per-run overrides from flags.
func huntOptions(c *cli.Context) (analysis.HuntOptions, error) {
	opts := analysis.HuntOptions{
		Dir:      getDir(c),
		Workers:  c.Int("workers"),
		Tolerant: c.Bool("tolerant"),
		NoCache:  c.Bool("no-cache"),
	}
	if types := c.StringSlice("types"); len(types) > 0 {
		cats, err := hunt.ParseCategorySet(types)
		if err != nil {
			return opts, fmt.Errorf("--types: %w", err)
		}
		opts.Categories = cats
	}
	if dets := c.StringSlice("detectors"); len(dets) > 0 {
		ds, err := hunt.ParseDetectorSet(dets)
		if err != nil {
			return opts, fmt.Errorf("--detectors: %w", err)
		}
		opts.Detectors = ds
	}
	if opts.Workers < 0 {
		return opts, fmt.Errorf("--workers must not be negative (got %d)", opts.Workers)
	}
	return opts, nil
}

// newLogger logs warnings to stderr, or everything with --verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
