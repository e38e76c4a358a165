package template

import (
	"go/ast"
	"go/parser"
	"go/token"
)

// Parser is the collaborator responsible for turning emitted source text
// back into an AST. It is pluggable so callers embedding this pipeline in a
// larger tool can swap in a parser that shares a type-checked
// go/packages.Package importer, caches ASTs, or otherwise differs from the
// bare go/parser default.
type Parser interface {
	// Parse parses source as a complete Go file and returns the resulting
	// AST together with the FileSet its positions are relative to.
	Parse(source string) (*ast.File, *token.FileSet, error)
	// Reset clears any internal cache the parser keeps between calls. The
	// core calls this before each parse of a synthesised unit (once per
	// GenerateBefore/GenerateAfter call) so a long-lived parser
	// collaborator does not accumulate state across calls.
	Reset()
}

// GoParser is the default Parser, a thin wrapper over go/parser with
// comments enabled (the Extractor depends on them) and no caching.
type GoParser struct{}

// NewGoParser returns the default Parser collaborator.
func NewGoParser() *GoParser { return &GoParser{} }

func (p *GoParser) Parse(source string) (*ast.File, *token.FileSet, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}
	return file, fset, nil
}

func (p *GoParser) Reset() {}
