// # internal/output/dot.go
package output

import (
	"fmt"
	"strings"

	"depmap/internal/graph"
	"depmap/internal/parser"
)

type DOTGenerator struct {
	graph *graph.Graph
}

func NewDOTGenerator(g *graph.Graph) *DOTGenerator {
	return &DOTGenerator{graph: g}
}

func (d *DOTGenerator) Generate(cycles [][]string) (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=\"white\", fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	cycleEdges := cycleEdgeSet(cycles)
	cycleNodes := cycleNodeSet(cycles)
	sourceNodes := make(map[string]bool)
	for _, rec := range d.graph.SourceNodes() {
		sourceNodes[rec.RelPath] = true
	}

	for _, rel := range d.graph.RelPaths() {
		name := parser.ModuleName(rel)
		switch {
		case cycleNodes[rel]:
			fmt.Fprintf(&buf, "  \"%s\" [fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", name)
		case sourceNodes[rel]:
			fmt.Fprintf(&buf, "  \"%s\" [fillcolor=\"palegreen\", color=\"forestgreen\"];\n", name)
		default:
			fmt.Fprintf(&buf, "  \"%s\" [color=\"darkslategrey\"];\n", name)
		}
	}
	buf.WriteString("\n")

	for _, rel := range d.graph.RelPaths() {
		rec, _ := d.graph.Get(rel)
		for _, dep := range rec.DepPaths() {
			from := parser.ModuleName(rel)
			to := parser.ModuleName(dep)
			if cycleEdges[rel+"->"+dep] {
				fmt.Fprintf(&buf, "  \"%s\" -> \"%s\" [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", from, to)
			} else {
				fmt.Fprintf(&buf, "  \"%s\" -> \"%s\" [color=\"darkslategrey\"];\n", from, to)
			}
		}
	}

	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"Legend\";\n")
	buf.WriteString("    style=dashed;\n")
	buf.WriteString("    legend_module [label=\"Module\", fillcolor=\"white\"];\n")
	buf.WriteString("    legend_source [label=\"Source Node\", fillcolor=\"palegreen\"];\n")
	buf.WriteString("    legend_cycle [label=\"Circular Import\", fillcolor=\"mistyrose\", color=\"red\"];\n")
	buf.WriteString("  }\n")
	buf.WriteString("}\n")

	return buf.String(), nil
}

// cycleEdgeSet keys the consecutive pairs of every cycle as "from->to".
// Cycle slices repeat their first element at the end, so plain adjacent
// pairs cover the closing edge.
func cycleEdgeSet(cycles [][]string) map[string]bool {
	edges := make(map[string]bool)
	for _, cycle := range cycles {
		for i := 0; i+1 < len(cycle); i++ {
			edges[cycle[i]+"->"+cycle[i+1]] = true
		}
	}
	return edges
}

func cycleNodeSet(cycles [][]string) map[string]bool {
	nodes := make(map[string]bool)
	for _, cycle := range cycles {
		for _, rel := range cycle {
			nodes[rel] = true
		}
	}
	return nodes
}
