// # internal/parser/types.go
package parser

import (
	"path"
	"strings"
)

// Extension is the only source-file extension the analyzer understands.
const Extension = ".py"

// File is the result of parsing one source file.
type File struct {
	Path    string // absolute path, as handed to ParseFile
	Module  string // dotted module name derived from the relative path
	Imports []Import
}

// Import is one resolved import edge candidate. Module is the absolute
// dotted name after relative-import resolution; Raw preserves the text
// as written.
type Import struct {
	Module     string
	Raw        string
	IsRelative bool
	Level      int // leading-dot count for relative imports, 0 otherwise
	Location   Location
}

type Location struct {
	Line   int
	Column int
}

// ModuleName derives the dotted module name from a slash-separated
// relative path: extension removed, separators become dots, leading dots
// stripped. "pkg/sub/mod.py" -> "pkg.sub.mod".
func ModuleName(relPath string) string {
	trimmed := strings.TrimSuffix(path.Clean(relPath), Extension)
	dotted := strings.ReplaceAll(trimmed, "/", ".")
	return strings.TrimLeft(dotted, ".")
}
