// Package analysis runs a complete hunt: scan, both passes and the report.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panbanda/deadhunt/internal/cache"
	scannerSvc "github.com/panbanda/deadhunt/internal/service/scanner"
	"github.com/panbanda/deadhunt/pkg/config"
	"github.com/panbanda/deadhunt/pkg/hunt"
)

// Service orchestrates hunts.
type Service struct {
	config   *config.Config
	logger   *slog.Logger
	progress hunt.Progress
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the logger passed to the engine.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p hunt.Progress) Option {
	return func(s *Service) {
		s.progress = p
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// HuntOptions overrides configuration for one hunt. Zero values keep the
// configured setting.
type HuntOptions struct {
	Dir        string
	Categories hunt.CategorySet
	Detectors  hunt.DetectorSet
	Workers    int
	// Tolerant accepts files with recoverable syntax errors.
	Tolerant bool
	NoCache  bool
}

// Outcome is a finished hunt together with the scan it ran on.
type Outcome struct {
	Root   string
	Scan   *scannerSvc.ScanResult
	Result *hunt.Result
}

// Report returns the hunt report.
func (o *Outcome) Report() *hunt.Report {
	return o.Result.Report
}

// Hunt scans the directory and runs both passes.
func (s *Service) Hunt(ctx context.Context, opts HuntOptions) (*Outcome, error) {
	h, err := s.hunter(opts)
	if err != nil {
		return nil, err
	}

	dir := opts.Dir
	if dir == "" {
		dir = s.config.Hunt.Dir
	}
	scan, err := scannerSvc.New(scannerSvc.WithConfig(s.config)).ScanRoot(dir)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("scanned",
		slog.String("root", scan.Root),
		slog.Int("register", len(scan.Register)),
		slog.Int("usage", len(scan.Usage)),
		slog.Int("oversized", scan.Oversized),
	)

	result, err := h.Hunt(ctx, scan.Register, scan.Usage)
	if err != nil {
		return nil, fmt.Errorf("hunt failed: %w", err)
	}
	return &Outcome{Root: scan.Root, Scan: scan, Result: result}, nil
}

// hunter builds an engine from the configuration and overrides.
func (s *Service) hunter(opts HuntOptions) (*hunt.Hunter, error) {
	cats := opts.Categories
	if cats.Empty() {
		var err error
		if cats, err = s.config.Categories(); err != nil {
			return nil, err
		}
	}
	dets := opts.Detectors
	if dets == 0 {
		var err error
		if dets, err = s.config.Detectors(); err != nil {
			return nil, err
		}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = s.config.Hunt.Workers
	}

	c, err := cache.New(s.config.Cache.Dir, s.config.Cache.TTL, s.config.Cache.Enabled && !opts.NoCache)
	if err != nil {
		return nil, err
	}

	hopts := []hunt.Option{
		hunt.WithDetectors(dets),
		hunt.WithWorkers(workers),
		hunt.WithStrict(s.config.Hunt.Strict && !opts.Tolerant),
		hunt.WithCache(c),
		hunt.WithLogger(s.logger),
	}
	if s.progress != nil {
		hopts = append(hopts, hunt.WithProgress(s.progress))
	}
	return hunt.New(cats, hopts...)
}
