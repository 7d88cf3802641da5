// # internal/shared/observability/metrics.go
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depmap_files_parsed_total",
		Help: "Total number of source files parsed.",
	})

	ParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depmap_parse_errors_total",
		Help: "Total number of files that failed to parse or read.",
	})

	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "depmap_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "depmap_build_seconds",
		Help:    "Time spent building the dependency graph.",
		Buckets: prometheus.DefBuckets,
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "depmap_graph_nodes",
		Help: "Number of files in the most recent dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "depmap_graph_edges",
		Help: "Number of dependency edges in the most recent graph.",
	})

	GraphCycles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "depmap_graph_cycles",
		Help: "Number of cycles detected in the most recent graph.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depmap_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depmap_runs_total",
		Help: "Total number of analysis runs, by trigger.",
	}, []string{"trigger"})
)
