// # internal/graph/record.go
package graph

import (
	"path/filepath"
	"sort"
	"strings"

	"depmap/internal/depmaperr"
)

// FileRecord is one discovered source file. Identity is the canonical
// absolute path string; records live in the owning Graph's arena and
// dependency edges reference records from that same arena by relative
// path, so no record is ever duplicated or shared across graphs.
type FileRecord struct {
	AbsPath  string
	RootPath string
	RelPath  string // slash-separated, derived from AbsPath minus RootPath

	// deps is written exactly once, by the single build task that owns
	// this file, and is read-only afterward.
	deps map[string]*FileRecord
}

// NewFileRecord canonicalizes both paths and derives the relative path.
// The root must be a proper ancestor of the file.
func NewFileRecord(absPath, rootPath string) (*FileRecord, error) {
	abs, err := filepath.Abs(absPath)
	if err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeConfig, "resolve file path")
	}
	root, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeConfig, "resolve root path")
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, depmaperr.Newf(depmaperr.CodeConfig, "root %s is not an ancestor of %s", root, abs)
	}

	return &FileRecord{
		AbsPath:  abs,
		RootPath: root,
		RelPath:  filepath.ToSlash(rel),
	}, nil
}

// Equal compares records by identity (canonical absolute path).
func (r *FileRecord) Equal(other *FileRecord) bool {
	return other != nil && r.AbsPath == other.AbsPath
}

func (r *FileRecord) DepCount() int {
	return len(r.deps)
}

// DepPaths returns the relative paths of direct dependencies, sorted.
func (r *FileRecord) DepPaths() []string {
	paths := make([]string, 0, len(r.deps))
	for rel := range r.deps {
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	return paths
}

func (r *FileRecord) HasDep(relPath string) bool {
	_, ok := r.deps[relPath]
	return ok
}
