// # internal/resolver/resolver.go
package resolver

import (
	"strings"

	"depmap/internal/parser"
)

// Resolver decides whether an imported dotted module name belongs to the
// analyzed file set. It is built once, before parallel extraction starts,
// and is read-only afterward, so workers share it without locks.
type Resolver struct {
	known map[string]struct{} // relative paths in the analyzed set
}

func New(relPaths []string) *Resolver {
	r := &Resolver{known: make(map[string]struct{}, len(relPaths))}
	for _, rel := range relPaths {
		r.known[rel] = struct{}{}
	}
	return r
}

// PathFor maps a dotted module name to the relative path it would occupy:
// dots become path separators and the source extension is appended.
// "pkg.sub.mod" -> "pkg/sub/mod.py".
func PathFor(module string) string {
	return strings.ReplaceAll(module, ".", "/") + parser.Extension
}

// Resolve returns the relative path for module and whether that path is
// in the analyzed set. Exact match only: no package-style fallback, no
// fuzzy matching. A miss means the import is external and contributes no
// edge, which is expected rather than an error.
func (r *Resolver) Resolve(module string) (string, bool) {
	rel := PathFor(module)
	_, ok := r.known[rel]
	return rel, ok
}
