package template

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"strings"
)

// LeftPadded wraps a value with leading whitespace/trivia that should be
// discarded when the value is substituted into a template: substitution
// unwraps to Elem and recurses, per the "left/right-padded wrappers unwrap
// to their inner element, then recurse" substitution rule.
type LeftPadded struct {
	Prefix string
	Elem   any
}

// RightPadded is LeftPadded's mirror image: trailing trivia discarded on
// substitution.
type RightPadded struct {
	Elem   any
	Suffix string
}

// paramText renders a single substitution parameter to the text spliced in
// place of one marker occurrence. fset is the FileSet of the host
// compilation unit the cursor was built from — required to print ast.Node
// parameters, which are bindings lifted out of that host tree and so carry
// positions relative to it.
func paramText(fset *token.FileSet, v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case LeftPadded:
		return paramText(fset, val.Elem)
	case RightPadded:
		return paramText(fset, val.Elem)
	case ast.Node:
		var buf bytes.Buffer
		cfg := printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}
		if err := cfg.Fprint(&buf, fset, val); err != nil {
			return "", fmt.Errorf("template: print parameter node: %w", err)
		}
		return strings.TrimLeft(buf.String(), " \t\r\n"), nil
	case string:
		return val, nil
	default:
		return fmt.Sprint(val), nil
	}
}

// substitute replaces each occurrence of marker in text with the rendered
// form of the corresponding element of params, strictly left to right, one
// literal substitution per occurrence — occurrence positions are computed
// against the original, unsubstituted text up front, so a substituted
// value that happens to contain marker text can never cascade into a
// second replacement.
func substitute(fset *token.FileSet, text, marker string, params []any) (string, error) {
	if marker == "" {
		return text, nil
	}
	var positions []int
	for idx, start := 0, 0; ; {
		i := strings.Index(text[start:], marker)
		if i < 0 {
			break
		}
		idx = start + i
		positions = append(positions, idx)
		start = idx + len(marker)
	}

	var b strings.Builder
	prev := 0
	for i, pos := range positions {
		b.WriteString(text[prev:pos])
		if i < len(params) {
			s, err := paramText(fset, params[i])
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		prev = pos + len(marker)
	}
	b.WriteString(text[prev:])
	return b.String(), nil
}

// countOccurrences reports how many times marker appears in text.
func countOccurrences(text, marker string) int {
	if marker == "" {
		return 0
	}
	return strings.Count(text, marker)
}
