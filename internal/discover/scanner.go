// # internal/discover/scanner.go
package discover

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"depmap/internal/depmaperr"
)

// Directory names pruned on every scan regardless of configuration.
var builtinIgnoreDirs = []string{
	".git", ".hg", ".svn",
	"__pycache__", ".venv", "venv", ".tox",
	".mypy_cache", ".pytest_cache", ".ruff_cache",
	"node_modules", "build", "dist",
	".idea", ".vscode",
	"*.egg-info",
}

// File names skipped on every scan regardless of configuration.
var builtinIgnoreFiles = []string{
	"*.pyc", "*.pyo", ".DS_Store",
}

// pattern is a compiled glob plus the flags that shape where it applies.
// Patterns are fnmatch-like: `*` crosses path separators.
type pattern struct {
	g        glob.Glob
	raw      string
	dirOnly  bool
	anchored bool
}

func (p pattern) match(rel, base string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	if p.g.Match(rel) {
		return true
	}
	return !p.anchored && p.g.Match(base)
}

// Options configures a Scanner. Include patterns apply to files only;
// exclude patterns prune directories as well.
type Options struct {
	Include      []string
	Exclude      []string
	UseGitignore bool
}

// Scanner walks a project root and returns the files that survive the
// built-in ignores, the root .gitignore, and the user patterns.
type Scanner struct {
	root    string
	include []pattern
	exclude []pattern
	ignored []pattern
}

func New(root string, opts Options) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeConfig, "resolve root")
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, depmaperr.Newf(depmaperr.CodeConfig, "invalid repository path: %s", root)
	}

	s := &Scanner{root: abs}
	if s.include, err = compileAll(opts.Include, "include"); err != nil {
		return nil, err
	}
	if s.exclude, err = compileAll(opts.Exclude, "exclude"); err != nil {
		return nil, err
	}

	for _, raw := range builtinIgnoreDirs {
		g, _ := glob.Compile(raw)
		s.ignored = append(s.ignored, pattern{g: g, raw: raw, dirOnly: true})
	}
	for _, raw := range builtinIgnoreFiles {
		g, _ := glob.Compile(raw)
		s.ignored = append(s.ignored, pattern{g: g, raw: raw})
	}
	if opts.UseGitignore {
		s.ignored = append(s.ignored, loadGitignore(abs)...)
	}
	return s, nil
}

func compileAll(raws []string, kind string) ([]pattern, error) {
	patterns := make([]pattern, 0, len(raws))
	for _, raw := range raws {
		g, err := glob.Compile(raw)
		if err != nil {
			return nil, depmaperr.Newf(depmaperr.CodeConfig, "invalid %s pattern %q: %v", kind, raw, err)
		}
		patterns = append(patterns, pattern{g: g, raw: raw})
	}
	return patterns, nil
}

// loadGitignore reads the root .gitignore. Failures fall back to the
// built-in patterns alone; negation lines are not supported.
func loadGitignore(root string) []pattern {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not read .gitignore", "error", err)
		}
		return nil
	}

	var patterns []pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "!") {
			slog.Debug("ignoring unsupported .gitignore negation", "pattern", line)
			continue
		}
		p := pattern{raw: line}
		if strings.HasSuffix(line, "/") {
			p.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		if strings.HasPrefix(line, "/") {
			p.anchored = true
			line = strings.TrimPrefix(line, "/")
		}
		g, err := glob.Compile(line)
		if err != nil {
			slog.Warn("skipping invalid .gitignore pattern", "pattern", p.raw, "error", err)
			continue
		}
		p.g = g
		patterns = append(patterns, p)
	}
	return patterns
}

// Root returns the absolute root the scanner walks.
func (s *Scanner) Root() string {
	return s.root
}

// IgnoresDir reports whether a directory would be pruned on a scan.
// Paths outside the root count as ignored.
func (s *Scanner) IgnoresDir(path string) bool {
	rel, ok := s.relativize(path)
	if !ok {
		return true
	}
	if rel == "." {
		return false
	}
	return s.skipDir(rel, filepath.Base(path))
}

// IgnoresFile reports whether a file would be dropped on a scan.
func (s *Scanner) IgnoresFile(path string) bool {
	rel, ok := s.relativize(path)
	if !ok || rel == "." {
		return true
	}
	return !s.keepFile(rel, filepath.Base(path))
}

func (s *Scanner) relativize(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Scan walks the root and returns the absolute paths of every kept file,
// sorted. Unreadable subtrees are logged and skipped.
func (s *Scanner) Scan() ([]string, error) {
	var files []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		base := d.Name()

		if d.IsDir() {
			if s.skipDir(rel, base) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.keepFile(rel, base) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeConfig, "scan root")
	}

	sort.Strings(files)
	slog.Debug("discovery complete", "root", s.root, "files", len(files))
	return files, nil
}

func (s *Scanner) skipDir(rel, base string) bool {
	for _, p := range s.exclude {
		if p.match(rel, base, true) {
			return true
		}
	}
	for _, p := range s.ignored {
		if p.match(rel, base, true) {
			return true
		}
	}
	return false
}

func (s *Scanner) keepFile(rel, base string) bool {
	for _, p := range s.exclude {
		if p.match(rel, base, false) {
			return false
		}
	}
	for _, p := range s.ignored {
		if p.match(rel, base, false) {
			return false
		}
	}
	if len(s.include) == 0 {
		return true
	}
	for _, p := range s.include {
		if p.match(rel, base, false) {
			return true
		}
	}
	return false
}
