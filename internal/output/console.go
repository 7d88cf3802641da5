// # internal/output/console.go
package output

import (
	"fmt"
	"io"
	"strings"

	"depmap/internal/graph"
	"depmap/internal/parser"
)

// ConsoleRenderer prints the graph listing humans read: dotted module
// names with the shared leading segments trimmed away.
type ConsoleRenderer struct {
	graph *graph.Graph
	quiet bool
}

func NewConsoleRenderer(g *graph.Graph, quiet bool) *ConsoleRenderer {
	return &ConsoleRenderer{graph: g, quiet: quiet}
}

func (c *ConsoleRenderer) Render(w io.Writer, cycles [][]string) error {
	rels := c.graph.RelPaths()
	modules := make([]string, len(rels))
	for i, rel := range rels {
		modules[i] = parser.ModuleName(rel)
	}
	prefix := commonModulePrefix(modules)

	if !c.quiet {
		for i, rel := range rels {
			rec, _ := c.graph.Get(rel)
			deps := rec.DepPaths()
			trimmed := make([]string, len(deps))
			for j, dep := range deps {
				trimmed[j] = trimModule(parser.ModuleName(dep), prefix)
			}
			line := fmt.Sprintf("%s -> [%s]\n", trimModule(modules[i], prefix), strings.Join(trimmed, ", "))
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
		}
	}

	if len(cycles) > 0 {
		if _, err := io.WriteString(w, "\nWarning: dependency cycles detected:\n"); err != nil {
			return err
		}
		for _, cycle := range cycles {
			parts := make([]string, len(cycle))
			for i, rel := range cycle {
				parts[i] = trimModule(parser.ModuleName(rel), prefix)
			}
			if _, err := fmt.Fprintf(w, "  %s\n", strings.Join(parts, " -> ")); err != nil {
				return err
			}
		}
	} else if !c.quiet {
		if _, err := io.WriteString(w, "\nNo dependency cycles detected.\n"); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("\n%d files, %d edges, %d cycles, %d source nodes (entry: %s)\n",
		c.graph.Len(), c.graph.EdgeCount(), len(cycles), len(c.graph.SourceNodes()),
		trimModule(parser.ModuleName(c.graph.Entry().RelPath), prefix))
	if _, err := io.WriteString(w, summary); err != nil {
		return err
	}

	if failures := c.graph.ParseFailures(); len(failures) > 0 {
		if _, err := fmt.Fprintf(w, "%d files could not be parsed and carry no imports\n", len(failures)); err != nil {
			return err
		}
	}
	return nil
}

// commonModulePrefix returns the dotted components shared by every
// module name, component-wise.
func commonModulePrefix(modules []string) string {
	if len(modules) == 0 {
		return ""
	}
	common := strings.Split(modules[0], ".")
	for _, mod := range modules[1:] {
		parts := strings.Split(mod, ".")
		if len(parts) < len(common) {
			common = common[:len(parts)]
		}
		for i := range common {
			if parts[i] != common[i] {
				common = common[:i]
				break
			}
		}
		if len(common) == 0 {
			return ""
		}
	}
	return strings.Join(common, ".")
}

// trimModule drops the shared prefix unless that would leave nothing.
func trimModule(module, prefix string) string {
	if prefix == "" || module == prefix {
		return module
	}
	if strings.HasPrefix(module, prefix+".") {
		return module[len(prefix)+1:]
	}
	return module
}
