// # internal/parser/loader.go
package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// GrammarLoader holds the compiled tree-sitter grammars. Only Python is
// registered; adding a language is one entry here plus an extractor.
type GrammarLoader struct {
	languages map[string]*sitter.Language
}

func NewGrammarLoader() *GrammarLoader {
	gl := &GrammarLoader{
		languages: make(map[string]*sitter.Language),
	}

	gl.languages["python"] = sitter.NewLanguage(tree_sitter_python.Language())

	return gl
}

func (gl *GrammarLoader) Get(lang string) (*sitter.Language, error) {
	grammar := gl.languages[lang]
	if grammar == nil {
		return nil, fmt.Errorf("grammar not loaded: %s", lang)
	}
	return grammar, nil
}
