package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadhunt/internal/output"
	"github.com/panbanda/deadhunt/internal/progress"
	"github.com/panbanda/deadhunt/internal/prompt"
	"github.com/panbanda/deadhunt/internal/service/analysis"
	"github.com/panbanda/deadhunt/pkg/config"
)

func runHuntCmd(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("expected at most one directory, got %d", c.NArg())
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	opts, err := huntOptions(c)
	if err != nil {
		return err
	}

	if shouldPrompt(c) {
		cats, _ := cfg.Categories()
		answers, err := prompt.New().Ask(c.Context, cfg.Hunt.Dir, cats)
		if errors.Is(err, prompt.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
		opts.Dir = answers.Dir
		opts.Categories = answers.Categories
	}

	logger := newLogger(c.Bool("verbose"))
	outcome, err := runHunt(c.Context, cfg, opts, logger, showProgress(cfg))
	if err != nil {
		return err
	}
	return writeReport(outcome, cfg, c.String("output"), c.Bool("show-used"))
}

// shouldPrompt asks only on a terminal, and only when nothing on the command
// line already says what to hunt.
func shouldPrompt(c *cli.Context) bool {
	if c.Bool("no-input") || c.NArg() > 0 || c.IsSet("types") {
		return false
	}
	return prompt.Interactive()
}

// showProgress draws bars on an interactive stderr for human-readable output.
func showProgress(cfg *config.Config) bool {
	if output.ParseFormat(cfg.Output.Format) != output.FormatText {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func runHunt(ctx context.Context, cfg *config.Config, opts analysis.HuntOptions, logger *slog.Logger, bars bool) (*analysis.Outcome, error) {
	svcOpts := []analysis.Option{
		analysis.WithConfig(cfg),
		analysis.WithLogger(logger),
	}
	if bars {
		svcOpts = append(svcOpts, analysis.WithProgress(progress.NewHunt(os.Stderr)))
	}

	outcome, err := analysis.New(svcOpts...).Hunt(ctx, opts)
	if err != nil {
		return nil, err
	}
	if n := outcome.Scan.Oversized; n > 0 {
		logger.Warn("files over the size limit were not read",
			slog.Int("count", n),
			slog.Int64("max_file_size", cfg.Scan.MaxFileSize),
		)
	}
	return outcome, nil
}

// writeReport renders the outcome. Finding dead code is not an error.
func writeReport(outcome *analysis.Outcome, cfg *config.Config, path string, showUsed bool) error {
	formatter, err := output.NewFormatter(output.ParseFormat(cfg.Output.Format), path, cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(output.NewDeadReport(outcome.Report(), outcome.Root, showUsed))
}
