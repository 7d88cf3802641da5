// # internal/graph/builder.go
package graph

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"depmap/internal/depmaperr"
	"depmap/internal/parser"
	"depmap/internal/resolver"
	"depmap/internal/shared/observability"
	"depmap/internal/shared/util"
)

const defaultMaxWorkers = 8

type Options struct {
	// Workers bounds the extraction pool; <= 0 means min(GOMAXPROCS, 8).
	Workers int
	// Entry is an explicit entry point as a relative path. Empty selects
	// the first file named main.py.
	Entry string
	// Parser may be shared across builds (watch mode); nil constructs one.
	Parser *parser.Parser
	// ReadFile is the content-access collaborator; nil means os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

// Build constructs the dependency graph for the given file paths under
// root. Every record is created up front; a bounded worker pool then runs
// one extraction+resolution task per file, and each task's only write is
// its own record's dependency set, so tasks need no locks. Per-file
// failures degrade to an empty import set and never abort the build. The
// resulting edge set is a pure function of file contents regardless of
// scheduling order.
func Build(ctx context.Context, paths []string, root string, opts Options) (*Graph, error) {
	ctx, span := observability.Tracer.Start(ctx, "depmap.build",
		trace.WithAttributes(attribute.String("root", root)))
	defer span.End()
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeConfig, "resolve root path")
	}
	if info, statErr := os.Stat(absRoot); statErr != nil || !info.IsDir() {
		return nil, depmaperr.Newf(depmaperr.CodeConfig, "root is not a directory: %s", absRoot)
	}

	p := opts.Parser
	if p == nil {
		p, err = parser.NewParser(parser.NewGrammarLoader())
		if err != nil {
			return nil, err
		}
	}
	readFile := opts.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	g := &Graph{
		root:  absRoot,
		files: make(map[string]*FileRecord, len(paths)),
	}

	// byAbs is the identity index: duplicates in the input list collapse
	// onto one record.
	byAbs := make(map[string]*FileRecord, len(paths))
	skipped := 0
	for _, path := range paths {
		if !strings.HasSuffix(path, parser.Extension) {
			skipped++
			continue
		}
		rec, recErr := NewFileRecord(path, absRoot)
		if recErr != nil {
			return nil, recErr
		}
		if _, dup := byAbs[rec.AbsPath]; dup {
			continue
		}
		byAbs[rec.AbsPath] = rec
		g.files[rec.RelPath] = rec
	}
	if skipped > 0 {
		slog.Debug("ignored files without source extension", "count", skipped)
	}

	// The module index and the container mapping are the only shared
	// state during the parallel phase; both are read-only from here on.
	idx := resolver.New(g.RelPaths())

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
		if workers > defaultMaxWorkers {
			workers = defaultMaxWorkers
		}
	}
	if workers > len(g.files) {
		workers = len(g.files)
	}

	jobs := make(chan *FileRecord, len(g.files))
	var wg sync.WaitGroup
	var failuresMu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if ferr := processRecord(p, readFile, idx, g, rec); ferr != nil {
					failuresMu.Lock()
					g.failures = append(g.failures, *ferr)
					failuresMu.Unlock()
					observability.ParseErrorsTotal.Inc()
					slog.Warn("extraction failed, recording no imports",
						"path", ferr.RelPath, "error", ferr.Err)
				}
			}
		}()
	}

	for _, rel := range g.RelPaths() {
		jobs <- g.files[rel]
	}
	close(jobs)
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err := g.finalize(util.NormalizePatternPath(opts.Entry)); err != nil {
		return nil, err
	}

	observability.GraphNodes.Set(float64(g.Len()))
	observability.GraphEdges.Set(float64(g.EdgeCount()))
	observability.BuildDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("files", g.Len()),
		attribute.Int("edges", g.EdgeCount()),
		attribute.Int("parse_errors", len(g.failures)),
	)
	slog.Debug("graph built",
		"files", g.Len(),
		"edges", g.EdgeCount(),
		"parse_errors", len(g.failures),
		"duration", time.Since(start))

	return g, nil
}

// processRecord is one unit of work: read, parse, resolve, then the
// single write to rec's own dependency set. Returns the failure to record
// when content was unreadable or unparsable.
func processRecord(p *parser.Parser, readFile func(string) ([]byte, error), idx *resolver.Resolver, g *Graph, rec *FileRecord) *FileError {
	parseStart := time.Now()

	content, err := readFile(rec.AbsPath)
	if err != nil {
		return &FileError{RelPath: rec.RelPath, Err: depmaperr.Wrap(err, depmaperr.CodeParse, "read file")}
	}

	file, err := p.ParseFile(rec.AbsPath, content, parser.ModuleName(rec.RelPath))
	observability.ParsingDuration.Observe(time.Since(parseStart).Seconds())
	if err != nil {
		return &FileError{RelPath: rec.RelPath, Err: err}
	}
	observability.FilesParsedTotal.Inc()

	deps := make(map[string]*FileRecord, len(file.Imports))
	for _, imp := range file.Imports {
		rel, ok := idx.Resolve(imp.Module)
		if !ok {
			// external import, contributes no edge
			continue
		}
		deps[rel] = g.files[rel]
		slog.Debug("resolved import", "from", rec.RelPath, "to", rel, "line", imp.Location.Line)
	}
	rec.deps = deps
	return nil
}
