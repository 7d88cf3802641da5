// # cmd/depmap/app.go
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"depmap/internal/config"
	"depmap/internal/depmaperr"
	"depmap/internal/discover"
	"depmap/internal/graph"
	"depmap/internal/history"
	"depmap/internal/output"
	"depmap/internal/parser"
	"depmap/internal/shared/observability"
	"depmap/internal/shared/util"
	"depmap/internal/tokens"
	"depmap/internal/watcher"
)

// App wires discovery, graph building, rendering, history and watch mode
// together. One instance lives for the whole process.
type App struct {
	Config *config.Config
	Parser *parser.Parser

	// Console receives the rendered dependency listing; nil keeps stdout
	// free for the TUI.
	Console io.Writer
	Quiet   bool

	scanner    *discover.Scanner
	store      *history.Store
	limiter    *util.Limiter
	watcher    *watcher.Watcher
	teaProgram *tea.Program

	mu         sync.Mutex
	lastResult RunResult
	lastCycles [][]string
	lastRunAt  time.Time
	runs       uint64
}

// RunResult summarizes one analysis run for callers that branch on it.
type RunResult struct {
	RunID       string
	Files       int
	Edges       int
	Cycles      int
	SourceNodes int
	ParseErrors int
	Duration    time.Duration
}

func NewApp(cfg *config.Config) (*App, error) {
	scanner, err := discover.New(cfg.Analysis.Root, discover.Options{
		Include:      cfg.Analysis.Include,
		Exclude:      cfg.Analysis.Exclude,
		UseGitignore: cfg.Analysis.GitignoreEnabled(),
	})
	if err != nil {
		return nil, err
	}

	p, err := parser.NewParser(parser.NewGrammarLoader())
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Parser:  p,
		scanner: scanner,
		limiter: util.NewLimiter(cfg.Watch.RebuildPerSec, cfg.Watch.RebuildBurst),
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("history store unavailable, runs will not be recorded", "error", err)
		} else {
			app.store = store
		}
	}

	return app, nil
}

// RunOnce performs one full discovery, build, detection and render pass.
// Output and history failures are reported but never fail the run.
func (a *App) RunOnce(ctx context.Context, trigger string) (RunResult, error) {
	runID := uuid.NewString()
	logger := slog.With("run_id", runID)
	start := time.Now()

	ctx, span := observability.Tracer.Start(ctx, "depmap.run",
		trace.WithAttributes(
			attribute.String("trigger", trigger),
			attribute.String("run_id", runID),
		))
	defer span.End()

	paths, err := a.discover(ctx)
	if err != nil {
		return RunResult{}, err
	}

	g, err := graph.Build(ctx, paths, a.scanner.Root(), graph.Options{
		Workers: a.Config.Analysis.Workers,
		Entry:   a.Config.Analysis.Entry,
		Parser:  a.Parser,
	})
	if err != nil {
		return RunResult{}, err
	}

	cycles := a.detectCycles(ctx, g)
	observability.GraphCycles.Set(float64(len(cycles)))
	observability.RunsTotal.WithLabelValues(trigger).Inc()

	if a.Console != nil {
		renderer := output.NewConsoleRenderer(g, a.Quiet)
		if err := renderer.Render(a.Console, cycles); err != nil {
			logger.Error("failed to render console output", "error", err)
		}
	}
	if err := a.GenerateOutputs(g, cycles); err != nil {
		logger.Error("failed to generate outputs", "error", err)
	}

	result := RunResult{
		RunID:       runID,
		Files:       g.Len(),
		Edges:       g.EdgeCount(),
		Cycles:      len(cycles),
		SourceNodes: len(g.SourceNodes()),
		ParseErrors: len(g.ParseFailures()),
		Duration:    time.Since(start),
	}
	a.recordRun(logger, result, cycles)

	if a.teaProgram != nil {
		a.teaProgram.Send(updateMsg{
			cycles:      cycles,
			fileCount:   result.Files,
			edgeCount:   result.Edges,
			parseErrors: result.ParseErrors,
			runID:       result.RunID,
			duration:    result.Duration,
		})
	}

	span.SetAttributes(
		attribute.Int("files", result.Files),
		attribute.Int("edges", result.Edges),
		attribute.Int("cycles", result.Cycles),
	)
	logger.Info("analysis complete",
		"trigger", trigger,
		"files", result.Files,
		"edges", result.Edges,
		"cycles", result.Cycles,
		"parse_errors", result.ParseErrors,
		"duration", result.Duration)

	return result, nil
}

func (a *App) discover(ctx context.Context) ([]string, error) {
	_, span := observability.Tracer.Start(ctx, "depmap.discover")
	defer span.End()

	paths, err := a.scanner.Scan()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("files", len(paths)))
	return paths, nil
}

func (a *App) detectCycles(ctx context.Context, g *graph.Graph) [][]string {
	_, span := observability.Tracer.Start(ctx, "depmap.detect_cycles")
	defer span.End()

	cycles := g.DetectCycles()
	span.SetAttributes(attribute.Int("cycles", len(cycles)))
	return cycles
}

// recordRun persists the run when history is enabled and updates the
// shared state behind HealthStatus and the TUI.
func (a *App) recordRun(logger *slog.Logger, result RunResult, cycles [][]string) {
	if a.store != nil {
		run := history.Run{
			RunID:       result.RunID,
			Timestamp:   time.Now().UTC(),
			Root:        a.scanner.Root(),
			Files:       result.Files,
			Edges:       result.Edges,
			Cycles:      result.Cycles,
			SourceNodes: result.SourceNodes,
			ParseErrors: result.ParseErrors,
			Duration:    result.Duration,
		}
		if err := a.store.SaveRun(run); err != nil {
			logger.Warn("failed to record run", "error", err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runs > 0 && result.Cycles != a.lastResult.Cycles {
		logger.Warn("cycle count changed",
			"previous", a.lastResult.Cycles,
			"current", result.Cycles)
	}
	a.lastResult = result
	a.lastCycles = cycles
	a.lastRunAt = time.Now()
	a.runs++
}

func (a *App) GenerateOutputs(g *graph.Graph, cycles [][]string) error {
	if a.Config.Output.JSON != "" {
		if err := output.WriteJSON(a.Config.Output.JSON, g); err != nil {
			return err
		}
	}

	if a.Config.Output.DOT != "" {
		dot, err := output.NewDOTGenerator(g).Generate(cycles)
		if err != nil {
			return err
		}
		if err := util.WriteFileWithDirs(a.Config.Output.DOT, []byte(dot), 0o644); err != nil {
			return depmaperr.Wrap(err, depmaperr.CodeOutput, "write dot output")
		}
	}

	if a.Config.Output.TSV != "" {
		tsv, err := output.NewTSVGenerator(g).Generate(cycles)
		if err != nil {
			return err
		}
		if err := util.WriteFileWithDirs(a.Config.Output.TSV, []byte(tsv), 0o644); err != nil {
			return depmaperr.Wrap(err, depmaperr.CodeOutput, "write tsv output")
		}
	}

	if a.Config.Output.Mermaid != "" {
		diagram, err := output.NewMermaidGenerator(g).Generate(cycles)
		if err != nil {
			return err
		}
		if err := util.WriteFileWithDirs(a.Config.Output.Mermaid, []byte(diagram), 0o644); err != nil {
			return depmaperr.Wrap(err, depmaperr.CodeOutput, "write mermaid output")
		}
	}

	return nil
}

// HandleChanges is the watcher callback. Each debounced batch triggers a
// full re-analysis, paced by the rebuild limiter.
func (a *App) HandleChanges(paths []string) {
	slog.Debug("change batch received", "files", len(paths))

	if err := a.limiter.Wait(context.Background(), 1); err != nil {
		slog.Error("rebuild limiter failed", "error", err)
		return
	}

	if _, err := a.RunOnce(context.Background(), "watch"); err != nil {
		slog.Error("re-analysis failed", "error", err)
	}
}

func (a *App) StartWatcher() error {
	w, err := watcher.New(a.scanner, a.Config.Watch.Debounce(), a.HandleChanges)
	if err != nil {
		return err
	}
	a.watcher = w
	return w.Start()
}

func (a *App) RunUI() error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	a.teaProgram = p

	// Push the state of the run that completed before the program started.
	go func() {
		a.mu.Lock()
		msg := updateMsg{
			cycles:      a.lastCycles,
			fileCount:   a.lastResult.Files,
			edgeCount:   a.lastResult.Edges,
			parseErrors: a.lastResult.ParseErrors,
			runID:       a.lastResult.RunID,
			duration:    a.lastResult.Duration,
		}
		a.mu.Unlock()
		p.Send(msg)
	}()

	_, err := p.Run()
	return err
}

// HealthStatus reports liveness data for the /health endpoint.
func (a *App) HealthStatus() observability.HealthStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return observability.HealthStatus{
		Status:    "up",
		Runs:      a.runs,
		LastRunID: a.lastResult.RunID,
		LastRunAt: a.lastRunAt,
		HeapMB:    util.GetHeapAllocMB(),
	}
}

// PrintHistory renders the most recent recorded runs as a table.
func (a *App) PrintHistory(w io.Writer, limit int) error {
	store := a.store
	if store == nil {
		s, err := history.Open(a.Config.History.Path)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-19s  %6s  %6s  %6s  %10s\n", "RUN", "WHEN", "FILES", "EDGES", "CYCLES", "TIME")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-19s  %6d  %6d  %6d  %10s\n",
			r.RunID,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Files, r.Edges, r.Cycles,
			r.Duration.Round(time.Millisecond))
	}
	return nil
}

// CountTokens counts tokens across the discovered files and renders the
// per-file table.
func (a *App) CountTokens(w io.Writer) error {
	counter, err := tokens.NewCounter(a.Config.Tokens.Model)
	if err != nil {
		return err
	}
	paths, err := a.scanner.Scan()
	if err != nil {
		return err
	}
	report := counter.CountFiles(a.scanner.Root(), paths)
	return report.Render(w)
}

func (a *App) Close() error {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
