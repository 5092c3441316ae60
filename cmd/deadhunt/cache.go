package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/deadhunt/internal/cache"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the parse cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache location, entry count and size",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cache entry",
				Action: runCacheClear,
			},
		},
	}
}

func openCache(c *cli.Context) (*cache.Cache, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
}

func runCacheStats(c *cli.Context) error {
	ch, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := ch.GetStats()
	if err != nil {
		return fmt.Errorf("reading cache: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Directory: %s\n", ch.Dir())
	fmt.Fprintf(w, "Entries:   %d\n", stats.Entries)
	fmt.Fprintf(w, "Size:      %d bytes\n", stats.TotalSize)
	if stats.Entries > 0 {
		fmt.Fprintf(w, "Oldest:    %s ago\n", stats.OldestAge.Round(time.Second))
		fmt.Fprintf(w, "Newest:    %s ago\n", stats.NewestAge.Round(time.Second))
	}
	return nil
}

func runCacheClear(c *cli.Context) error {
	ch, err := openCache(c)
	if err != nil {
		return err
	}
	if err := ch.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	color.Green("Cleared %s", ch.Dir())
	return nil
}
