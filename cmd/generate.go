package cmd

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/vinodhalaharvi/stencil/cursor"
	"github.com/vinodhalaharvi/stencil/internal/config"
	"github.com/vinodhalaharvi/stencil/template"
)

// GenerateCmd drives the template materialisation pipeline directly,
// independent of the .lift matcher/executor layer: it locates an insertion
// cursor in a Go source file by a "line:col" locator, builds a Template from
// a fragment of source text, and prints whatever sub-trees the pipeline
// produces. It exists to exercise template.Template as a standalone
// command, the same way spec.md's Template façade is documented as usable
// by any consumer, not only the .lift `find`-by-type recipe layer.
type GenerateCmd struct {
	Source       string   `arg:"" help:"Go source file to materialise the template against" type:"path"`
	At           string   `help:"Insertion cursor locator, \"line:col\" (1-based)" required:""`
	Fragment     string   `help:"Template fragment text, containing the placeholder marker once per parameter" xor:"fragment"`
	FragmentFile string   `help:"Read the template fragment text from this file instead of --fragment" type:"path" xor:"fragment"`
	Before       bool     `help:"Insert before the located node (default)" xor:"direction"`
	After        bool     `help:"Insert after the located node" xor:"direction"`
	Params       []string `help:"Parameter values substituted left-to-right for each placeholder occurrence"`
	Imports      []string `help:"Import paths the fragment needs in its synthetic reparse context"`
	Marker       string   `help:"Override the default \"#{}\" placeholder marker"`
}

func (c *GenerateCmd) Run(fs afero.Fs, log *logrus.Logger, cfg *config.Config) error {
	fragmentText, err := c.fragmentText(fs)
	if err != nil {
		return err
	}

	src, err := afero.ReadFile(fs, c.Source)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Source, err)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, c.Source, src, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", c.Source, err)
	}

	line, col, err := parseLocator(c.At)
	if err != nil {
		return fmt.Errorf("--at %q: %w", c.At, err)
	}
	target, ok := nodeAtPosition(fset, file, line, col)
	if !ok {
		return fmt.Errorf("no AST node found at %s:%d:%d", c.Source, line, col)
	}
	cur, ok := cursor.Find(file, target)
	if !ok {
		return fmt.Errorf("internal error: located node not reachable from its own file")
	}

	marker := cfg.Marker
	if c.Marker != "" {
		marker = c.Marker
	}

	builder := template.NewBuilder(fragmentText).Logger(log)
	if marker != "" {
		builder = builder.ParameterMarker(marker)
	}
	if len(c.Imports) > 0 {
		builder = builder.Imports(c.Imports...)
	}
	tmpl, err := builder.Build()
	if err != nil {
		return fmt.Errorf("building template: %w", err)
	}

	params := make([]any, len(c.Params))
	for i, p := range c.Params {
		params[i] = p
	}

	var nodes []ast.Node
	if c.After {
		nodes, err = tmpl.GenerateAfter(fset, cur, params...)
	} else {
		nodes, err = tmpl.GenerateBefore(fset, cur, params...)
	}
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	for i, n := range nodes {
		var buf bytes.Buffer
		if err := format.Node(&buf, fset, n); err != nil {
			return fmt.Errorf("formatting generated node %d: %w", i, err)
		}
		fmt.Println(buf.String())
	}
	return nil
}

func (c *GenerateCmd) fragmentText(fs afero.Fs) (string, error) {
	if c.FragmentFile != "" {
		data, err := afero.ReadFile(fs, c.FragmentFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", c.FragmentFile, err)
		}
		return string(data), nil
	}
	if c.Fragment == "" {
		return "", fmt.Errorf("one of --fragment or --fragment-file is required")
	}
	return c.Fragment, nil
}

// parseLocator parses a "line:col" locator string into its two components.
func parseLocator(at string) (line, col int, err error) {
	parts := strings.SplitN(at, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"line:col\"")
	}
	line, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid line %q: %w", parts[0], err)
	}
	col, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid column %q: %w", parts[1], err)
	}
	return line, col, nil
}

// nodeAtPosition returns the innermost AST node whose source span contains
// the given 1-based line/column, or ok=false if none does.
func nodeAtPosition(fset *token.FileSet, file *ast.File, line, col int) (ast.Node, bool) {
	var best ast.Node
	bestSpan := -1

	ast.Inspect(file, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		start := fset.Position(n.Pos())
		end := fset.Position(n.End())
		if !spanContains(start, end, line, col) {
			return false
		}
		span := end.Offset - start.Offset
		if bestSpan == -1 || span < bestSpan {
			best, bestSpan = n, span
		}
		return true
	})

	return best, best != nil
}

func spanContains(start, end token.Position, line, col int) bool {
	if line < start.Line || (line == start.Line && col < start.Column) {
		return false
	}
	if line > end.Line || (line == end.Line && col > end.Column) {
		return false
	}
	return true
}
