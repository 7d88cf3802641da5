// # internal/output/mermaid.go
package output

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"depmap/internal/graph"
	"depmap/internal/parser"
)

type MermaidGenerator struct {
	graph *graph.Graph
}

func NewMermaidGenerator(g *graph.Graph) *MermaidGenerator {
	return &MermaidGenerator{graph: g}
}

func (m *MermaidGenerator) Generate(cycles [][]string) (string, error) {
	var b strings.Builder
	b.WriteString("graph LR\n")

	rels := m.graph.RelPaths()

	// IDs are keyed by relative path so module-name collisions cannot
	// merge two nodes; repeats get a numeric suffix.
	ids := make(map[string]string, len(rels))
	used := make(map[string]int, len(rels))
	for _, rel := range rels {
		base := sanitizeMermaidID(parser.ModuleName(rel))
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[rel] = base
		} else {
			ids[rel] = fmt.Sprintf("%s_%d", base, idx+1)
		}
	}

	for _, rel := range rels {
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", ids[rel], escapeMermaidLabel(parser.ModuleName(rel)))
	}

	cycleNodes := cycleNodeSet(cycles)
	if len(cycleNodes) > 0 {
		names := make([]string, 0, len(cycleNodes))
		for _, rel := range rels {
			if cycleNodes[rel] {
				names = append(names, ids[rel])
			}
		}
		b.WriteString("  classDef cycleNode fill:#ffecec,stroke:#cc0000,stroke-width:2px;\n")
		fmt.Fprintf(&b, "  class %s cycleNode;\n", strings.Join(names, ","))
	}

	var sourceIDs []string
	for _, rec := range m.graph.SourceNodes() {
		if !cycleNodes[rec.RelPath] {
			sourceIDs = append(sourceIDs, ids[rec.RelPath])
		}
	}
	if len(sourceIDs) > 0 {
		b.WriteString("  classDef sourceNode fill:#eaffea,stroke:#1a7f37;\n")
		fmt.Fprintf(&b, "  class %s sourceNode;\n", strings.Join(sourceIDs, ","))
	}

	b.WriteString("\n")
	cycleEdges := cycleEdgeSet(cycles)
	linkIndex := 0
	var cycleLinks []int
	for _, rel := range rels {
		rec, _ := m.graph.Get(rel)
		for _, dep := range rec.DepPaths() {
			label := ""
			if cycleEdges[rel+"->"+dep] {
				label = "|CYCLE|"
				cycleLinks = append(cycleLinks, linkIndex)
			}
			fmt.Fprintf(&b, "  %s -->%s %s\n", ids[rel], label, ids[dep])
			linkIndex++
		}
	}
	if len(cycleLinks) > 0 {
		fmt.Fprintf(&b, "  linkStyle %s stroke:#cc0000,stroke-width:3px;\n", joinInts(cycleLinks))
	}

	return b.String(), nil
}

func sanitizeMermaidID(name string) string {
	if name == "" {
		return "m"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if out == "" {
		return "m"
	}
	if unicode.IsDigit(rune(out[0])) {
		return "m_" + out
	}
	return out
}

func escapeMermaidLabel(label string) string {
	return strings.ReplaceAll(label, "\"", "#quot;")
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
