// # internal/parser/parser.go
package parser

import (
	"depmap/internal/depmaperr"
)

// Parser turns file content into a File with its import set. It is safe
// for concurrent use; workers share the underlying parser pool.
type Parser struct {
	pool      *ParserPool
	extractor *PythonExtractor
}

func NewParser(loader *GrammarLoader) (*Parser, error) {
	grammar, err := loader.Get("python")
	if err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeInternal, "load grammar")
	}
	return &Parser{
		pool:      NewParserPool(grammar),
		extractor: &PythonExtractor{},
	}, nil
}

// ParseFile parses content and extracts imports. module is the file's own
// dotted module name, used to resolve relative imports. A tree containing
// syntax errors is a parse failure: the caller records an empty import set
// and continues (per-file failures never abort a build).
func (p *Parser) ParseFile(path string, content []byte, module string) (*File, error) {
	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, depmaperr.New(depmaperr.CodeParse, "parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, depmaperr.New(depmaperr.CodeParse, "syntax errors in file")
	}

	file := &File{
		Path:   path,
		Module: module,
	}
	p.extractor.Extract(root, content, file)

	return file, nil
}
