package template

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/token"
	"strings"

	"github.com/vinodhalaharvi/stencil/tmplerr"
)

// Formatter is the auto-formatter collaborator: the last pipeline step
// reconciles each extracted sub-tree's printed form with the indentation of
// wherever the caller intends to splice it, so a statement extracted from a
// top-level scratch function still reads correctly once dropped into, say,
// a doubly-nested block in the host file.
type Formatter interface {
	// Format renders node to its final text form, indented to match indent
	// (a literal run of spaces/tabs the caller wants every line after the
	// first to start with).
	Format(fset *token.FileSet, node ast.Node, indent string) (string, error)
}

// GoFormatter is the default Formatter: go/format for canonical gofmt
// layout, then a line-by-line indent reconciliation pass.
type GoFormatter struct{}

// NewGoFormatter returns the default Formatter collaborator.
func NewGoFormatter() *GoFormatter { return &GoFormatter{} }

func (f *GoFormatter) Format(fset *token.FileSet, node ast.Node, indent string) (string, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, node); err != nil {
		return "", tmplerr.NewFormatError(err)
	}
	if indent == "" {
		return buf.String(), nil
	}

	lines := strings.Split(buf.String(), "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}
		lines[i] = indent + lines[i]
	}
	return strings.Join(lines, "\n"), nil
}
