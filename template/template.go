// Package template implements the Template façade: the public entry point
// of the materialisation pipeline. A Template is built once from a
// parameterised fragment of source text, then asked to generate concrete,
// freshly-parsed AST sub-trees before or after a given point in a host
// compilation unit, substituting caller-supplied parameters into the
// fragment's placeholders along the way.
//
// Each Generate call composes the four lower-level packages in the fixed
// order spec.md §4.1 lays out: resolve the insertion scope with cursor,
// reduce the host tree around it with pruner, splice the substituted
// fragment in with emitter, reparse, and recover the spliced sub-trees back
// out with extractor.
package template

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vinodhalaharvi/stencil/cursor"
	"github.com/vinodhalaharvi/stencil/emitter"
	"github.com/vinodhalaharvi/stencil/extractor"
	"github.com/vinodhalaharvi/stencil/pruner"
	"github.com/vinodhalaharvi/stencil/tmplerr"
)

const defaultParameterMarker = "#{}"

// Builder assembles a Template from a fragment of source text and its
// collaborators. The zero value is not usable; start from NewBuilder.
type Builder struct {
	text          string
	marker        string
	imports       []string
	staticImports []string
	parser        Parser
	formatter     Formatter
	logger        *logrus.Logger
	err           error
}

// NewBuilder starts building a Template from fragment, a piece of Go source
// text (an expression, statement list, or declaration) that may contain
// occurrences of the parameter marker ("#{}" by default).
func NewBuilder(fragment string) *Builder {
	return &Builder{text: fragment, marker: defaultParameterMarker}
}

// Imports declares the plain import paths the generated code needs; the
// Marker Emitter adds them to the synthetic unit before reparsing so the
// fragment typechecks standalone. Each name is validated immediately: a
// caller passing something that looks like a whole import declaration
// (starting with "import ") or a statement fragment (ending in ";" or a
// newline) almost certainly made a mistake, so Build will fail with an
// *tmplerr.ArgumentError rather than silently emitting broken source.
func (b *Builder) Imports(paths ...string) *Builder {
	for _, p := range paths {
		if err := validateImportName(p, "import"); err != nil {
			b.err = err
			return b
		}
	}
	b.imports = append(b.imports, paths...)
	return b
}

// StaticImports declares names that should be imported "statically" —
// Go has no such construct, so these are added as dot-imports
// (import . "pkg"), bringing a package's exported identifiers into scope
// unqualified, the closest idiomatic equivalent.
func (b *Builder) StaticImports(paths ...string) *Builder {
	for _, p := range paths {
		if err := validateImportName(p, "static import"); err != nil {
			b.err = err
			return b
		}
	}
	b.staticImports = append(b.staticImports, paths...)
	return b
}

func validateImportName(name, what string) error {
	if strings.HasPrefix(name, "import ") || strings.HasPrefix(name, "static ") {
		return tmplerr.NewArgumentError("%s %q looks like a declaration, not a path", what, name)
	}
	if strings.HasSuffix(name, ";") || strings.HasSuffix(name, "\n") {
		return tmplerr.NewArgumentError("%s %q looks like a statement fragment, not a path", what, name)
	}
	return nil
}

// ParameterMarker overrides the default "#{}" placeholder token.
func (b *Builder) ParameterMarker(marker string) *Builder {
	b.marker = marker
	return b
}

// Parser overrides the default go/parser-backed Parser collaborator.
func (b *Builder) Parser(p Parser) *Builder {
	b.parser = p
	return b
}

// Formatter overrides the default go/format-backed Formatter collaborator.
func (b *Builder) Formatter(f Formatter) *Builder {
	b.formatter = f
	return b
}

// Logger overrides the default logrus.StandardLogger() used for pipeline
// tracing.
func (b *Builder) Logger(l *logrus.Logger) *Builder {
	b.logger = l
	return b
}

// Build validates and freezes the Builder into a Template.
func (b *Builder) Build() (*Template, error) {
	if b.err != nil {
		return nil, b.err
	}
	text := strings.TrimSpace(b.text)
	if text == "" {
		return nil, tmplerr.NewArgumentError("template fragment is empty")
	}

	parser := b.parser
	if parser == nil {
		parser = NewGoParser()
	}
	formatter := b.formatter
	if formatter == nil {
		formatter = NewGoFormatter()
	}
	logger := b.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Template{
		text:          text,
		marker:        b.marker,
		imports:       append([]string(nil), b.imports...),
		staticImports: append([]string(nil), b.staticImports...),
		paramCount:    countOccurrences(text, b.marker),
		parser:        parser,
		formatter:     formatter,
		log:           logger,
	}, nil
}

// Template is an immutable, reusable parameterised source fragment, ready
// to be materialised against any number of insertion points.
type Template struct {
	text          string
	marker        string
	imports       []string
	staticImports []string
	paramCount    int
	parser        Parser
	formatter     Formatter
	log           *logrus.Logger
}

// GenerateBefore materialises the template immediately before point,
// returning the freshly-parsed sub-trees it produced. Each sub-tree is run
// through the Formatter, which fails the call if it cannot render one; the
// formatted text is not applied, so the returned nodes are not re-indented
// to point's nesting.
func (t *Template) GenerateBefore(fset *token.FileSet, point cursor.Cursor, params ...any) ([]ast.Node, error) {
	return t.generate(fset, point, emitter.Before, params)
}

// GenerateAfter is GenerateBefore's mirror image: the template is spliced
// in immediately after point.
func (t *Template) GenerateAfter(fset *token.FileSet, point cursor.Cursor, params ...any) ([]ast.Node, error) {
	return t.generate(fset, point, emitter.After, params)
}

func (t *Template) generate(fset *token.FileSet, point cursor.Cursor, dir emitter.Direction, params []any) ([]ast.Node, error) {
	if len(params) != t.paramCount {
		return nil, tmplerr.NewArgumentError(
			"template expects %d parameter(s), got %d", t.paramCount, len(params))
	}

	t.log.WithFields(logrus.Fields{
		"stage":      "generate",
		"direction":  dir,
		"paramCount": t.paramCount,
	}).Debug("materialising template")

	substituted, err := substitute(fset, t.text, t.marker, params)
	if err != nil {
		return nil, err
	}

	resolved, memberInitializer := point.InsertionScope()
	prunedFile, focus := pruner.PruneWithLogger(point.Head(), resolved, t.log)

	emitted, err := emitter.Emit(fset, prunedFile, focus, dir, memberInitializer, substituted, t.imports, t.staticImports)
	if err != nil {
		return nil, err
	}

	t.parser.Reset()
	synthFile, synthFset, err := t.parser.Parse(emitted)
	if err != nil {
		return nil, tmplerr.NewParseError(emitted, err)
	}

	nodes, err := extractor.Extract(synthFset, synthFile)
	if err != nil {
		return nil, err
	}

	// go/ast nodes carry no per-node indentation the way this pipeline's
	// prefix-whitespace model assumes; indentation is a go/printer-time
	// decision, not AST structure. The Formatter collaborator still runs
	// here — it's the contract point that rejects a sub-tree go/format
	// can't render (FormatError) before it reaches the caller — but its
	// text result is informational rather than threaded into the
	// returned nodes; callers print extracted nodes into the host source
	// with their own printer.Config against the host FileSet.
	indent := indentOf(resolved)
	out := make([]ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, err := t.formatter.Format(synthFset, n, indent); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// indentOf derives the indentation the generated code should carry from
// the resolved insertion point's nesting: one tab per enclosing block, none
// at file scope.
func indentOf(point cursor.Cursor) string {
	depth := 0
	for _, n := range point.Path() {
		if cursor.IsBlock(n) {
			depth++
		}
	}
	if depth == 0 {
		return ""
	}
	return strings.Repeat("\t", depth)
}
