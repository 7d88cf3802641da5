// # internal/parser/python.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonExtractor walks a parse tree and collects import statements.
// The whole tree is visited, so imports nested in functions or behind
// conditionals count the same as top-level ones.
type PythonExtractor struct{}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, file *File) {
	seen := make(map[string]bool)
	e.walk(root, source, file, seen)
}

func (e *PythonExtractor) walk(node *sitter.Node, source []byte, file *File, seen map[string]bool) {
	switch node.Kind() {
	case "import_statement":
		e.extractImport(node, source, file, seen)
	case "import_from_statement":
		e.extractFromImport(node, source, file, seen)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i), source, file, seen)
	}
}

// extractImport handles `import a.b` and `import a.b as c`, one entry per
// imported name.
func (e *PythonExtractor) extractImport(node *sitter.Node, source []byte, file *File, seen map[string]bool) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "dotted_name", "identifier":
			module := e.getText(child, source)
			e.add(file, seen, Import{
				Module:   module,
				Raw:      module,
				Location: e.getLocation(child),
			})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			if name == nil {
				continue
			}
			module := e.getText(name, source)
			e.add(file, seen, Import{
				Module:   module,
				Raw:      module,
				Location: e.getLocation(child),
			})
		}
	}
}

// extractFromImport handles `from X import ...`. An absolute X contributes
// its dotted name verbatim. A relative X (level = leading dots) resolves
// against the file's own module path: keep the first len(components)-level
// components, then append the first component of the target. The target is
// the dotted name after the dots when present, otherwise the first imported
// name (`from .. import other` at pkg/sub/mod means pkg.other). Too many
// levels up means the import is skipped.
func (e *PythonExtractor) extractFromImport(node *sitter.Node, source []byte, file *File, seen map[string]bool) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}

	if moduleNode.Kind() != "relative_import" {
		module := e.getText(moduleNode, source)
		e.add(file, seen, Import{
			Module:   module,
			Raw:      module,
			Location: e.getLocation(node),
		})
		return
	}

	raw := e.getText(moduleNode, source)
	target := strings.TrimLeft(raw, ".")
	level := len(raw) - len(target)

	if target == "" {
		name := node.ChildByFieldName("name")
		if name != nil && name.Kind() == "aliased_import" {
			name = name.ChildByFieldName("name")
		}
		if name != nil {
			nameText := e.getText(name, source)
			if dot := strings.Index(nameText, "."); dot >= 0 {
				nameText = nameText[:dot]
			}
			target = nameText
			raw += nameText
		}
	}

	components := strings.Split(file.Module, ".")
	if level >= len(components) {
		return
	}
	parents := components[:len(components)-level]

	resolved := strings.Join(parents, ".")
	if target != "" {
		first := target
		if dot := strings.Index(target, "."); dot >= 0 {
			first = target[:dot]
		}
		resolved = resolved + "." + first
	}

	e.add(file, seen, Import{
		Module:     resolved,
		Raw:        raw,
		IsRelative: true,
		Level:      level,
		Location:   e.getLocation(node),
	})
}

// add appends imp unless the resolved module was already recorded; the
// import set collapses duplicates, keeping the first location.
func (e *PythonExtractor) add(file *File, seen map[string]bool, imp Import) {
	if imp.Module == "" || seen[imp.Module] {
		return
	}
	seen[imp.Module] = true
	file.Imports = append(file.Imports, imp)
}

func (e *PythonExtractor) getLocation(node *sitter.Node) Location {
	return Location{
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

func (e *PythonExtractor) getText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
