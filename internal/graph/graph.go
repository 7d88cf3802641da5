// # internal/graph/graph.go
package graph

import (
	"path"
	"sort"

	"depmap/internal/depmaperr"
	"depmap/internal/shared/util"
)

// EntryFileName is the conventional start file selected as entry point
// when none is supplied explicitly.
const EntryFileName = "main.py"

// Graph is the completed dependency graph: an arena of File Records keyed
// by relative path, one distinguished entry point, and the files with no
// outgoing dependencies. It is read-only once Build returns.
type Graph struct {
	root        string
	files       map[string]*FileRecord
	entry       *FileRecord
	sourceNodes []*FileRecord
	failures    []FileError
}

// FileError records a per-file extraction failure the build recovered
// from. The file stays in the graph with an empty dependency set.
type FileError struct {
	RelPath string
	Err     error
}

func (g *Graph) Root() string { return g.root }

func (g *Graph) Len() int { return len(g.files) }

func (g *Graph) Get(relPath string) (*FileRecord, bool) {
	rec, ok := g.files[relPath]
	return rec, ok
}

// RelPaths returns all file keys in sorted order.
func (g *Graph) RelPaths() []string {
	return util.SortedStringKeys(g.files)
}

func (g *Graph) Entry() *FileRecord { return g.entry }

// SourceNodes returns the records with empty dependency sets, sorted by
// relative path.
func (g *Graph) SourceNodes() []*FileRecord {
	return g.sourceNodes
}

func (g *Graph) EdgeCount() int {
	total := 0
	for _, rec := range g.files {
		total += rec.DepCount()
	}
	return total
}

// ParseFailures lists the files whose content could not be read or
// parsed; callers decide whether to surface them.
func (g *Graph) ParseFailures() []FileError {
	return g.failures
}

// DependencyView is the serialization view: every file keyed by relative
// path mapped to the sorted relative paths of its direct dependencies.
func (g *Graph) DependencyView() map[string][]string {
	view := make(map[string][]string, len(g.files))
	for rel, rec := range g.files {
		view[rel] = rec.DepPaths()
	}
	return view
}

// finalize selects the entry point and computes source nodes once all
// dependency sets are populated.
func (g *Graph) finalize(explicitEntry string) error {
	if explicitEntry != "" {
		rec, ok := g.files[explicitEntry]
		if !ok {
			return depmaperr.Newf(depmaperr.CodeConfig, "entry point %q not found in analyzed set", explicitEntry)
		}
		g.entry = rec
	} else {
		var candidates []string
		for rel := range g.files {
			if path.Base(rel) == EntryFileName {
				candidates = append(candidates, rel)
			}
		}
		if len(candidates) == 0 {
			return depmaperr.Newf(depmaperr.CodeConfig, "no entry point: no file named %s under root", EntryFileName)
		}
		sort.Strings(candidates)
		g.entry = g.files[candidates[0]]
	}

	for _, rel := range g.RelPaths() {
		if rec := g.files[rel]; rec.DepCount() == 0 {
			g.sourceNodes = append(g.sourceNodes, rec)
		}
	}
	return nil
}
