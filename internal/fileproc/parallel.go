// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panbanda/deadhunt/pkg/parser"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string `json:"path" toon:"path"`
	Err  error  `json:"-" toon:"-"`
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Len returns the number of collected errors.
func (e *ProcessingErrors) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors)
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap returns nil (ProcessingErrors doesn't wrap a single error).
func (e *ProcessingErrors) Unwrap() error {
	return nil
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func(path string)

// Result is the outcome for one input file. Err is set when fn failed.
type Result[T any] struct {
	Path  string
	Value T
	Err   error
}

// Workers resolves a requested worker count; <= 0 means 2x NumCPU.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// MapFiles processes files in parallel, calling fn with a parser owned by the
// worker. It returns one Result per input file at the same index, so callers
// can consume results in input order.
//
// Per-file errors are recorded in the Result and never stop the pool. A
// cancelled context stops scheduling and MapFiles returns the context error.
func MapFiles[T any](ctx context.Context, files []string, maxWorkers int, fn func(*parser.Parser, string) (T, error), onProgress ProgressFunc) ([]Result[T], error) {
	if len(files) == 0 {
		return nil, ctx.Err()
	}

	maxWorkers = Workers(maxWorkers)
	results := make([]Result[T], len(files))

	parsers := newParserPool(maxWorkers)
	defer parsers.close()

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			results[i].Path = path
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return err
			}

			psr := parsers.get()
			defer parsers.put(psr)

			results[i].Value, results[i].Err = fn(psr, path)
			if onProgress != nil {
				onProgress(path)
			}
			return nil
		})
	}
	_ = p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Failures collects the failed results of a MapFiles call, or nil when none failed.
func Failures[T any](results []Result[T]) *ProcessingErrors {
	errs := &ProcessingErrors{}
	for _, r := range results {
		if r.Err != nil {
			errs.Add(r.Path, r.Err)
		}
	}
	if !errs.HasErrors() {
		return nil
	}
	return errs
}

// parserPool hands out tree-sitter parsers so each worker reuses one instead
// of allocating per file.
type parserPool struct {
	ch chan *parser.Parser
}

func newParserPool(size int) *parserPool {
	return &parserPool{ch: make(chan *parser.Parser, size)}
}

func (p *parserPool) get() *parser.Parser {
	select {
	case psr := <-p.ch:
		return psr
	default:
		return parser.New()
	}
}

func (p *parserPool) put(psr *parser.Parser) {
	select {
	case p.ch <- psr:
	default:
		psr.Close()
	}
}

func (p *parserPool) close() {
	close(p.ch)
	for psr := range p.ch {
		psr.Close()
	}
}
