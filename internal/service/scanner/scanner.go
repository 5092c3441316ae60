// Package scanner resolves a hunt root and lists the files of both passes.
package scanner

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/panbanda/deadhunt/pkg/config"
	"github.com/panbanda/deadhunt/pkg/scanner"
)

// ScanResult contains the result of a file scan.
type ScanResult struct {
	// Root is the absolute directory that was scanned.
	Root      string
	Register  []string
	Usage     []string
	Oversized int
}

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{config: config.DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scanner returns the file scanner built from the service configuration.
func (s *Service) Scanner() *scanner.Scanner {
	return scanner.NewScanner(s.config)
}

// ScanRoot scans a directory and returns the registration and usage lists.
func (s *Service) ScanRoot(root string) (*ScanResult, error) {
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &PathError{Path: root, Err: errNotDir}
	}

	passes, err := s.Scanner().ScanPasses(absRoot)
	if err != nil {
		return nil, &ScanError{Path: root, Err: err}
	}

	return &ScanResult{
		Root:      absRoot,
		Register:  passes.Register,
		Usage:     passes.Usage,
		Oversized: passes.Oversized,
	}, nil
}

var errNotDir = errors.New("not a directory")

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
