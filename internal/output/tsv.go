// # internal/output/tsv.go
package output

import (
	"fmt"
	"strings"

	"depmap/internal/graph"
	"depmap/internal/parser"
)

type TSVGenerator struct {
	graph *graph.Graph
}

func NewTSVGenerator(g *graph.Graph) *TSVGenerator {
	return &TSVGenerator{graph: g}
}

func (t *TSVGenerator) Generate(cycles [][]string) (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tInCycle\n")

	cycleEdges := cycleEdgeSet(cycles)
	for _, rel := range t.graph.RelPaths() {
		rec, _ := t.graph.Get(rel)
		for _, dep := range rec.DepPaths() {
			fmt.Fprintf(&buf, "%s\t%s\t%t\n",
				parser.ModuleName(rel), parser.ModuleName(dep), cycleEdges[rel+"->"+dep])
		}
	}

	return buf.String(), nil
}
