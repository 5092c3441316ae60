package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	scannerSvc "github.com/panbanda/deadhunt/internal/service/scanner"
	"github.com/panbanda/deadhunt/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch for file changes and re-run the hunt",
		ArgsUsage: "[dir]",
		Flags: append(huntFlags(),
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "How long files must stay unchanged before re-running",
			},
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	opts, err := huntOptions(c)
	if err != nil {
		return err
	}
	if opts.Dir == "" {
		opts.Dir = cfg.Hunt.Dir
	}
	absPath, err := filepath.Abs(opts.Dir)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	opts.Dir = absPath

	logger := newLogger(c.Bool("verbose"))
	outPath := c.String("output")
	showUsed := c.Bool("show-used")

	rerun := func(ctx context.Context) {
		outcome, err := runHunt(ctx, cfg, opts, logger, false)
		if err != nil {
			color.Red("Hunt error: %v", err)
			return
		}
		if err := writeReport(outcome, cfg, outPath, showUsed); err != nil {
			color.Red("Output error: %v", err)
		}
	}

	outcome, err := runHunt(c.Context, cfg, opts, logger, false)
	if err != nil {
		return err
	}
	if err := writeReport(outcome, cfg, outPath, showUsed); err != nil {
		return err
	}

	filter := scannerSvc.New(scannerSvc.WithConfig(cfg)).Scanner()
	watcher, err := watch.NewWatcher(absPath, filter, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	watcher.SetCallback(func([]string) {
		rerun(c.Context)
	})

	if err := watcher.Start(c.Context); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
