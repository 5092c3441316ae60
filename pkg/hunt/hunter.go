package hunt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/panbanda/deadhunt/internal/cache"
	"github.com/panbanda/deadhunt/internal/fileproc"
	"github.com/panbanda/deadhunt/pkg/parser"
)

// Progress receives per-pass progress notifications. Advance may be called
// concurrently.
type Progress interface {
	Begin(label string, total int)
	Advance(path string)
	End()
}

// FileFacts is everything the two passes need from one file. It is the unit
// of caching: a file is parsed at most once per run.
type FileFacts struct {
	Exports      []Declaration `json:"exports"`
	References   []Reference   `json:"references"`
	SyntaxErrors bool          `json:"syntax_errors,omitempty"`
}

// Result is the outcome of a complete hunt.
type Result struct {
	Registry *Registry
	Report   *Report
	Skipped  []fileproc.ProcessingError
}

// Option configures a Hunter.
type Option func(*Hunter)

// WithDetectors restricts usage detection to the given detectors.
func WithDetectors(d DetectorSet) Option {
	return func(h *Hunter) {
		if d != 0 {
			h.detectors = d
		}
	}
}

// WithWorkers sets the number of parallel parse workers (<= 0 means 2x NumCPU).
func WithWorkers(n int) Option {
	return func(h *Hunter) { h.workers = n }
}

// WithStrict controls whether files with syntax errors are skipped (true,
// the default) or analyzed from the recovered tree.
func WithStrict(strict bool) Option {
	return func(h *Hunter) { h.strict = strict }
}

// WithCache enables the on-disk fact cache.
func WithCache(c *cache.Cache) Option {
	return func(h *Hunter) { h.cache = c }
}

// WithLogger sets the logger for skipped files and collisions.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hunter) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithProgress reports per-file progress for both passes.
func WithProgress(p Progress) Option {
	return func(h *Hunter) { h.progress = p }
}

// Hunter runs the registration and usage passes over file lists.
type Hunter struct {
	categories CategorySet
	detectors  DetectorSet
	workers    int
	strict     bool
	cache      *cache.Cache
	logger     *slog.Logger
	progress   Progress
}

// New creates a Hunter for the given category selection.
func New(categories CategorySet, opts ...Option) (*Hunter, error) {
	if categories.Empty() {
		return nil, ErrNoCategories
	}
	h := &Hunter{
		categories: categories,
		detectors:  AllDetectorSet(),
		strict:     true,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Categories returns the selected categories.
func (h *Hunter) Categories() CategorySet {
	return h.categories
}

// Detectors returns the enabled detectors.
func (h *Hunter) Detectors() DetectorSet {
	return h.detectors
}

// Hunt runs both passes and assembles the report. registerFiles and
// usageFiles are independent lists; a file in both is parsed once.
func (h *Hunter) Hunt(ctx context.Context, registerFiles, usageFiles []string) (*Result, error) {
	run := h.newRun()

	reg, regSkipped, registered, err := run.buildRegistry(ctx, cleanPaths(registerFiles))
	if err != nil {
		return nil, err
	}
	usageSkipped, scanned, err := run.resolveUsages(ctx, reg, cleanPaths(usageFiles))
	if err != nil {
		return nil, err
	}

	report := Assemble(reg, h.categories)
	skipped := mergeSkipped(regSkipped, usageSkipped)
	report.Summary.FilesRegistered = registered
	report.Summary.FilesScanned = scanned
	report.Summary.FilesSkipped = len(skipped)

	h.logger.Debug("hunt complete",
		slog.Int("exports", report.Summary.TotalExports),
		slog.Int("unused", report.Summary.Unused),
		slog.Int("skipped", len(skipped)),
		slog.Int64("cache_hits", run.cacheHits.Load()),
	)

	return &Result{Registry: reg, Report: report, Skipped: skipped}, nil
}

// BuildRegistry runs only the registration pass.
func (h *Hunter) BuildRegistry(ctx context.Context, files []string) (*Registry, []fileproc.ProcessingError, error) {
	reg, skipped, _, err := h.newRun().buildRegistry(ctx, cleanPaths(files))
	return reg, skipped, err
}

// ResolveUsages runs only the usage pass against an existing registry.
func (h *Hunter) ResolveUsages(ctx context.Context, reg *Registry, files []string) ([]fileproc.ProcessingError, error) {
	skipped, _, err := h.newRun().resolveUsages(ctx, reg, cleanPaths(files))
	return skipped, err
}

// run holds the per-invocation memo shared by both passes.
type run struct {
	*Hunter

	mu        sync.Mutex
	memo      map[string]memoEntry
	cacheHits atomic.Int64
}

type memoEntry struct {
	facts *FileFacts
	err   error
}

func (h *Hunter) newRun() *run {
	return &run{Hunter: h, memo: make(map[string]memoEntry)}
}

func (r *run) buildRegistry(ctx context.Context, files []string) (*Registry, []fileproc.ProcessingError, int, error) {
	results, err := r.extractAll(ctx, "registering exports", files)
	if err != nil {
		return nil, nil, 0, err
	}

	reg := NewRegistry(r.categories)
	var skipped []fileproc.ProcessingError
	processed := 0
	for _, res := range results {
		if res.Err != nil {
			skipped = append(skipped, r.skip(res))
			continue
		}
		processed++
		for _, decl := range res.Value.Exports {
			prev, exists := reg.Lookup(decl.Name)
			if !reg.Register(decl, res.Path) || !exists {
				continue
			}
			r.logger.Warn("export name registered twice, keeping the later file",
				slog.String("name", decl.Name),
				slog.String("previous", prev.File),
				slog.String("current", res.Path),
			)
		}
	}
	return reg, skipped, processed, nil
}

func (r *run) resolveUsages(ctx context.Context, reg *Registry, files []string) ([]fileproc.ProcessingError, int, error) {
	results, err := r.extractAll(ctx, "resolving usages", files)
	if err != nil {
		return nil, 0, err
	}

	resolver := NewResolver(reg, r.detectors)
	var skipped []fileproc.ProcessingError
	processed := 0
	for i, res := range results {
		if res.Err != nil {
			skipped = append(skipped, r.skip(res))
			continue
		}
		processed++
		resolver.Resolve(res.Path, uint32(i), res.Value.References)
	}
	return skipped, processed, nil
}

func (r *run) skip(res fileproc.Result[*FileFacts]) fileproc.ProcessingError {
	r.logger.Debug("skipping file", slog.String("path", res.Path), slog.String("err", res.Err.Error()))
	return fileproc.ProcessingError{Path: res.Path, Err: res.Err}
}

func (r *run) extractAll(ctx context.Context, label string, files []string) ([]fileproc.Result[*FileFacts], error) {
	var onProgress fileproc.ProgressFunc
	if r.progress != nil {
		r.progress.Begin(label, len(files))
		defer r.progress.End()
		onProgress = r.progress.Advance
	}
	return fileproc.MapFiles(ctx, files, r.workers, r.factsFor, onProgress)
}

// factsFor returns the facts of one file, consulting the run memo and the
// disk cache before parsing.
func (r *run) factsFor(psr *parser.Parser, path string) (*FileFacts, error) {
	r.mu.Lock()
	entry, ok := r.memo[path]
	r.mu.Unlock()
	if ok {
		return entry.facts, entry.err
	}

	facts, err := r.extract(psr, path)

	r.mu.Lock()
	r.memo[path] = memoEntry{facts: facts, err: err}
	r.mu.Unlock()
	return facts, err
}

func (r *run) extract(psr *parser.Parser, path string) (*FileFacts, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LangUnknown {
		return nil, fmt.Errorf("%w: %s", parser.ErrUnsupportedLanguage, path)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var hash string
	if r.cache.Enabled() {
		hash = cache.HashBytes(source)
		var cached FileFacts
		if r.cache.Load(path, hash, &cached) && !(r.strict && cached.SyntaxErrors) {
			r.cacheHits.Add(1)
			return &cached, nil
		}
	}

	ctx := context.Background()
	var result *parser.ParseResult
	if r.strict {
		result, err = psr.ParseStrict(ctx, source, lang, path)
	} else {
		result, err = psr.Parse(ctx, source, lang, path)
	}
	if err != nil {
		return nil, err
	}
	defer result.Tree.Close()

	facts := &FileFacts{
		Exports:      ExtractExports(result),
		References:   ExtractReferences(result),
		SyntaxErrors: result.HasErrors(),
	}

	if r.cache.Enabled() {
		if err := r.cache.Store(path, hash, facts); err != nil {
			r.logger.Debug("cache write failed", slog.String("path", path), slog.String("err", err.Error()))
		}
	}
	return facts, nil
}

func cleanPaths(files []string) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = filepath.Clean(f)
	}
	return out
}

// mergeSkipped joins the skipped files of both passes, listing each path once.
func mergeSkipped(lists ...[]fileproc.ProcessingError) []fileproc.ProcessingError {
	seen := make(map[string]bool)
	var out []fileproc.ProcessingError
	for _, list := range lists {
		for _, e := range list {
			if seen[e.Path] {
				continue
			}
			seen[e.Path] = true
			out = append(out, e)
		}
	}
	return out
}

// IsSyntaxError reports whether a skipped file failed because it could not be parsed.
func IsSyntaxError(err error) bool {
	return errors.Is(err, parser.ErrSyntax)
}
