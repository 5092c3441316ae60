// Package scanner discovers the source files each hunt pass reads.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/deadhunt/pkg/config"
)

// Policy is the exclusion rule set of one pass. Patterns are doublestar
// globs matched against slash-separated paths relative to the scan root.
type Policy struct {
	Exclude []string
}

// Excludes reports whether the relative file path matches any pattern.
func (p Policy) Excludes(rel string) bool {
	for _, pattern := range p.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// excludesDir reports whether every file under the relative directory is
// excluded, which holds when a pattern of the form "<dir-glob>/**" matches it.
func (p Policy) excludesDir(rel string) bool {
	for _, pattern := range p.Exclude {
		prefix, ok := strings.CutSuffix(pattern, "/**")
		if !ok {
			continue
		}
		if matched, _ := doublestar.Match(prefix, rel); matched {
			return true
		}
	}
	return false
}

// Passes holds the file lists of the registration and usage passes, each in
// lexical walk order.
type Passes struct {
	Register []string
	Usage    []string
	// Oversized counts files dropped by the size limit.
	Oversized int
}

// Scanner finds source files in a directory.
type Scanner struct {
	extensions  map[string]bool
	register    Policy
	usage       Policy
	gitignore   bool
	maxFileSize int64
}

// NewScanner creates a scanner from the scan section of cfg.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	exts := make(map[string]bool, len(cfg.Scan.Extensions))
	for _, ext := range cfg.Scan.Extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Scanner{
		extensions:  exts,
		register:    Policy{Exclude: cfg.Scan.Register.Exclude},
		usage:       Policy{Exclude: cfg.Scan.Usage.Exclude},
		gitignore:   cfg.Scan.Gitignore,
		maxFileSize: cfg.Scan.MaxFileSize,
	}
}

// Accepts reports whether path has a recognised source extension.
func (s *Scanner) Accepts(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// Prunes reports whether neither pass reads anything under the relative
// directory, so a walk may skip it.
func (s *Scanner) Prunes(rel string) bool {
	rel = filepath.ToSlash(rel)
	return s.register.excludesDir(rel) && s.usage.excludesDir(rel)
}

// ScanPasses walks root once and splits the recognised source files into the
// registration and usage lists, each filtered by its own policy.
// Paths that resolve outside root through symlinks are never returned.
func (s *Scanner) ScanPasses(root string) (*Passes, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	ignore := s.loadGitignore(absRoot)
	passes := &Passes{}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		rel := filepath.ToSlash(relPath)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if ignore.excluded(relPath, true) || s.Prunes(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.Accepts(path) || ignore.excluded(relPath, false) {
			return nil
		}
		if !s.register.Excludes(rel) {
			passes.Register = append(passes.Register, path)
		}
		if !s.usage.Excludes(rel) {
			passes.Usage = append(passes.Usage, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	var dropped, droppedUsage int
	passes.Register, dropped = FilterBySize(passes.Register, s.maxFileSize)
	passes.Usage, droppedUsage = FilterBySize(passes.Usage, s.maxFileSize)
	passes.Oversized = max(dropped, droppedUsage)

	return passes, nil
}

// ScanDir returns every recognised source file that either pass would read.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	passes, err := s.ScanPasses(root)
	if err != nil {
		return nil, err
	}
	files := slices.Concat(passes.Register, passes.Usage)
	slices.Sort(files)
	return slices.Compact(files), nil
}

// ignoreMatcher applies .gitignore rules relative to the repository root.
type ignoreMatcher struct {
	// prefix holds the path segments from the repository root to the scan root.
	prefix  []string
	matcher gitignore.Matcher
}

// excluded matches a path relative to the scan root.
func (m ignoreMatcher) excluded(rel string, isDir bool) bool {
	if m.matcher == nil || rel == "." {
		return false
	}
	parts := append(slices.Clone(m.prefix), strings.Split(rel, string(filepath.Separator))...)
	return m.matcher.Match(parts, isDir)
}

// loadGitignore reads every .gitignore of the enclosing repository, or of
// root itself when it is not inside one.
func (s *Scanner) loadGitignore(absRoot string) ignoreMatcher {
	if !s.gitignore {
		return ignoreMatcher{}
	}
	base := findGitRoot(absRoot)
	if base == "" {
		base = absRoot
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(base), nil)
	if err != nil || len(patterns) == 0 {
		return ignoreMatcher{}
	}

	var prefix []string
	if rel, err := filepath.Rel(base, absRoot); err == nil && rel != "." {
		prefix = strings.Split(rel, string(filepath.Separator))
	}
	return ignoreMatcher{prefix: prefix, matcher: gitignore.NewMatcher(patterns)}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	// Separator suffix keeps "/root2" from matching "/root".
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// FilterBySize filters files that exceed maxSize bytes.
// Returns the filtered list and the count of files that were skipped.
// If maxSize is 0, returns the original list unchanged.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered, skipped
}
