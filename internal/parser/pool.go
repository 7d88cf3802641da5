// # internal/parser/pool.go
package parser

import (
	"sync"
	"sync/atomic"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool recycles tree-sitter parser instances so concurrent workers
// avoid the per-file cost of sitter.NewParser() / parser.Close().
//
// A pool is tied to one grammar. Safe for concurrent use.
type ParserPool struct {
	lang   *sitter.Language
	pool   sync.Pool
	active atomic.Int64
}

// NewParserPool creates a pool for the given grammar. The grammar must
// remain valid for the lifetime of the pool.
func NewParserPool(lang *sitter.Language) *ParserPool {
	p := &ParserPool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

// Get retrieves a configured parser, allocating one if the pool is empty.
func (p *ParserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// The language is re-applied in case the parser was Reset externally.
	sp.SetLanguage(p.lang)
	p.active.Add(1)
	return sp
}

// Put returns a parser for reuse. The parser is reset so no references to
// previous parse trees are retained; callers must not use sp after Put.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	sp.Reset()
	p.active.Add(-1)
	p.pool.Put(sp)
}

// Active returns the number of parsers currently leased out.
func (p *ParserPool) Active() int64 {
	return p.active.Load()
}
