package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		stop()
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "deadhunt",
		Usage:     "Find unused exports in JavaScript and TypeScript code",
		Version:   version,
		ArgsUsage: "[dir]",
		Metadata:  make(map[string]interface{}),
		Description: `deadhunt registers every exported component, hook, function and type,
then looks for references to them in other files: imports, JSX tags,
identifiers and type references. Exports nobody references are reported.

Matching is by name. Dynamic imports and string-based references are not seen.`,
		Flags:  append(huntFlags(), globalFlags()...),
		Before: startProfiling,
		After:  stopProfiling,
		Action: runHuntCmd,
		Commands: []*cli.Command{
			initCmd(),
			watchCmd(),
			mcpCmd(),
			cacheCmd(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file (TOML, YAML, JSON or JSONC)",
			EnvVars: []string{"DEADHUNT_CONFIG"},
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Log debug details, including skipped files",
		},
		&cli.StringFlag{
			Name:  "pprof",
			Usage: "Enable pprof profiling and write to specified prefix (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
		},
	}
}

// huntFlags are shared by the default action and watch.
func huntFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "types",
			Aliases: []string{"t"},
			Usage:   "Categories to hunt: component, hook, function, type (default: all)",
		},
		&cli.StringSliceFlag{
			Name:  "detectors",
			Usage: "Usage detectors: import, markup, identifier, type (default: all)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, toon",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Disable the parse cache",
		},
		&cli.BoolFlag{
			Name:  "no-input",
			Usage: "Never prompt, even on a terminal",
		},
		&cli.BoolFlag{
			Name:  "tolerant",
			Usage: "Read files with recoverable syntax errors instead of skipping them",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Parallel parse workers (default: 2x CPUs)",
		},
		&cli.BoolFlag{
			Name:  "show-used",
			Usage: "Also list referenced exports with their reference counts",
		},
	}
}

func startProfiling(c *cli.Context) error {
	pprofPrefix := c.String("pprof")
	if pprofPrefix == "" {
		return nil
	}
	cpuFile, err := os.Create(pprofPrefix + ".cpu.pprof")
	if err != nil {
		return fmt.Errorf("failed to create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		cpuFile.Close()
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}
	c.App.Metadata["pprofCPU"] = cpuFile
	return nil
}

func stopProfiling(c *cli.Context) error {
	pprofPrefix := c.String("pprof")
	if pprofPrefix == "" {
		return nil
	}

	pprof.StopCPUProfile()
	if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
		cpuFile.Close()
		color.Green("CPU profile written to %s.cpu.pprof", pprofPrefix)
	}

	memFile, err := os.Create(pprofPrefix + ".mem.pprof")
	if err != nil {
		return fmt.Errorf("failed to create memory profile: %w", err)
	}
	defer memFile.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}
	color.Green("Memory profile written to %s.mem.pprof", pprofPrefix)
	return nil
}
