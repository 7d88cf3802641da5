// # cmd/depmap/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"depmap/internal/config"
	"depmap/internal/depmaperr"
	"depmap/internal/shared/observability"
	"depmap/internal/shared/util"
)

var (
	configPath  = flag.String("config", "", "Path to config file (default "+config.DefaultPath+" when present)")
	entryPoint  = flag.String("entry", "", "Entry point as a path relative to the root")
	jsonPath    = flag.String("output", "", "Write the dependency map as JSON to this file")
	dotPath     = flag.String("dot", "", "Write a Graphviz DOT graph to this file")
	tsvPath     = flag.String("tsv", "", "Write a TSV edge list to this file")
	mermaidPath = flag.String("mermaid", "", "Write a Mermaid diagram to this file")
	include     = flag.String("include", "", "Comma-separated include globs, quotes protect commas")
	exclude     = flag.String("exclude", "", "Comma-separated exclude globs, quotes protect commas")
	workers     = flag.Int("workers", 0, "Worker pool size, 0 picks a default")
	checkCycles = flag.Bool("check-cycles", false, "Exit with status 1 when cycles are found")
	quiet       = flag.Bool("quiet", false, "Suppress the console dependency listing")
	watch       = flag.Bool("watch", false, "Watch the tree and re-analyze on change")
	ui          = flag.Bool("ui", false, "Enable terminal UI mode (implies -watch)")
	historyN    = flag.Int("history", 0, "Print the last N recorded runs and exit")
	countTokens = flag.Bool("count-tokens", false, "Count tokens over the discovered files and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func init() {
	flag.StringVar(jsonPath, "o", "", "Shorthand for -output")
}

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("depmap v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	logOutput := io.Writer(os.Stderr)
	if *ui {
		// In UI mode, avoid terminal logs corrupting the TUI.
		logOutput = openUILog()
	}

	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	applyFlagOverrides(cfg)

	if flag.NArg() > 0 {
		cfg.Analysis.Root = flag.Arg(0)
	}

	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
		SampleAll:    cfg.Observability.SampleAll,
		Version:      VERSION,
	})
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	} else {
		defer shutdownTracing(context.Background())
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(exitCode(err))
	}
	defer app.Close()

	app.Quiet = *quiet
	if !*ui {
		app.Console = os.Stdout
	}

	if *historyN > 0 {
		if err := app.PrintHistory(os.Stdout, *historyN); err != nil {
			slog.Error("failed to read history", "error", err)
			os.Exit(exitCode(err))
		}
		return
	}

	if *countTokens {
		if err := app.CountTokens(os.Stdout); err != nil {
			slog.Error("failed to count tokens", "error", err)
			os.Exit(exitCode(err))
		}
		return
	}

	result, err := app.RunOnce(ctx, "cli")
	if err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(exitCode(err))
	}

	if *checkCycles {
		if result.Cycles > 0 {
			os.Exit(1)
		}
		return
	}

	if !cfg.Watch.Enabled {
		return
	}

	// Watch mode
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		srv := observability.NewServer(addr, app.HealthStatus)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
		} else {
			defer srv.Stop(context.Background())
		}
	}

	if err := app.StartWatcher(); err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(exitCode(err))
	}

	if *ui {
		if err := app.RunUI(); err != nil {
			slog.Error("failed to run UI", "error", err)
			os.Exit(1)
		}
	} else {
		// Block forever; the watcher drives further runs.
		select {}
	}
}

// loadConfig resolves an explicit -config path strictly. Without one it
// reads the default file when present and otherwise starts from defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(config.DefaultPath); err == nil {
		return config.Load(config.DefaultPath)
	}
	return config.Default(), nil
}

// applyFlagOverrides lets flags that were set on the command line win over
// file values.
func applyFlagOverrides(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "entry":
			cfg.Analysis.Entry = *entryPoint
		case "workers":
			cfg.Analysis.Workers = *workers
		case "include":
			cfg.Analysis.Include = util.SplitPatternList(*include)
		case "exclude":
			cfg.Analysis.Exclude = util.SplitPatternList(*exclude)
		case "o", "output":
			cfg.Output.JSON = *jsonPath
		case "dot":
			cfg.Output.DOT = *dotPath
		case "tsv":
			cfg.Output.TSV = *tsvPath
		case "mermaid":
			cfg.Output.Mermaid = *mermaidPath
		case "watch", "ui":
			cfg.Watch.Enabled = true
		}
	})
}

// exitCode maps configuration mistakes to exit status 2; everything else is 1.
func exitCode(err error) int {
	if depmaperr.IsCode(err, depmaperr.CodeConfig) {
		return 2
	}
	return 1
}

func openUILog() io.Writer {
	logPath := resolveLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		return io.Discard
	}
	if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
		fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
		return io.Discard
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
		return io.Discard
	}
	return f
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "depmap", "depmap.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "depmap", "depmap.log")
	}

	return "depmap.log"
}
