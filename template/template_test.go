package template_test

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinodhalaharvi/stencil/cursor"
	"github.com/vinodhalaharvi/stencil/template"
	"github.com/vinodhalaharvi/stencil/tmplerr"
)

func parseHost(t *testing.T, src string) (*token.FileSet, *ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "host.go", src, parser.ParseComments)
	require.NoError(t, err)
	return fset, file
}

func findAssign(file *ast.File, lhsName string) ast.Node {
	var found ast.Node
	ast.Inspect(file, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		if as, ok := n.(*ast.AssignStmt); ok {
			if id, ok := as.Lhs[0].(*ast.Ident); ok && id.Name == lhsName {
				found = as
			}
		}
		return true
	})
	return found
}

func findIdent(file *ast.File, name string) *ast.Ident {
	var found *ast.Ident
	ast.Inspect(file, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		if id, ok := n.(*ast.Ident); ok && id.Name == name {
			found = id
		}
		return true
	})
	return found
}

func findGenDecl(file *ast.File, tok token.Token) *ast.GenDecl {
	for _, d := range file.Decls {
		if gd, ok := d.(*ast.GenDecl); ok && gd.Tok == tok {
			return gd
		}
	}
	return nil
}

func printNode(t *testing.T, n ast.Node) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, format.Node(&buf, token.NewFileSet(), n))
	return strings.TrimSpace(buf.String())
}

// Statement after statement: a single printed statement appears right after
// the insertion point, referencing a parameter bound to an existing host
// identifier.
func TestGenerateAfterStatement(t *testing.T) {
	fset, file := parseHost(t, `package p

import "fmt"

func F() {
	x := 1
	y := 2
	_ = y
}
`)
	target := findAssign(file, "x")
	require.NotNil(t, target)
	c, ok := cursor.Find(file, target)
	require.True(t, ok)

	tmpl, err := template.NewBuilder("fmt.Println(#{})").Imports("fmt").Build()
	require.NoError(t, err)

	xIdent := findIdent(file, "x")
	require.NotNil(t, xIdent)

	nodes, err := tmpl.GenerateAfter(fset, c, xIdent)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	assert.Equal(t, "fmt.Println(x)", printNode(t, nodes[0]))
}

// Field initialiser (member-initialiser path): the splice happens around a
// package-level var's initialiser expression, wrapped in braces by the
// Emitter and unwrapped again by the Extractor.
func TestGenerateAtFieldInitializer(t *testing.T) {
	fset, file := parseHost(t, `package p

var f = 0
`)
	var lit *ast.BasicLit
	ast.Inspect(file, func(n ast.Node) bool {
		if bl, ok := n.(*ast.BasicLit); ok && bl.Value == "0" {
			lit = bl
		}
		return true
	})
	require.NotNil(t, lit)
	c, ok := cursor.Find(file, lit)
	require.True(t, ok)

	tmpl, err := template.NewBuilder("1 + #{}").Build()
	require.NoError(t, err)

	nodes, err := tmpl.GenerateBefore(fset, c, 2)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	assert.Equal(t, "1 + 2", printNode(t, nodes[0]))
}

// Before first declaration, no placeholders: the new declaration lands
// ahead of the only existing one.
func TestGenerateBeforeFirstDeclaration(t *testing.T) {
	fset, file := parseHost(t, `package p

type A struct{}
`)
	target := findGenDecl(file, token.TYPE)
	require.NotNil(t, target)
	c, ok := cursor.Find(file, target)
	require.True(t, ok)

	tmpl, err := template.NewBuilder("type B struct{}").Build()
	require.NoError(t, err)

	nodes, err := tmpl.GenerateBefore(fset, c)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	gd, ok := nodes[0].(*ast.GenDecl)
	require.True(t, ok)
	assert.Equal(t, token.TYPE, gd.Tok)
	assert.Contains(t, printNode(t, gd), "B")
}

// Renaming collision: the on-path declaration is pruned with a "_" prefix
// so the template's own re-declaration of the same name parses cleanly.
func TestGenerateAvoidsNameCollisionWithPrunedDeclaration(t *testing.T) {
	fset, file := parseHost(t, `package p

func m() {
	j := 1
	_ = j
}
`)
	target := findAssign(file, "j")
	require.NotNil(t, target)
	c, ok := cursor.Find(file, target)
	require.True(t, ok)

	tmpl, err := template.NewBuilder("j := #{}\n_ = j").Build()
	require.NoError(t, err)

	nodes, err := tmpl.GenerateAfter(fset, c, 2)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
}

// Multiple statements extracted: a multi-statement fragment returns one
// sub-tree per statement, in source order, at the same nesting depth.
func TestGenerateMultipleStatements(t *testing.T) {
	fset, file := parseHost(t, `package p

func F() {
	x := 1
	_ = x
}
`)
	target := findAssign(file, "x")
	require.NotNil(t, target)
	c, ok := cursor.Find(file, target)
	require.True(t, ok)

	tmpl, err := template.NewBuilder("p1 := 1\np2 := 2").Build()
	require.NoError(t, err)

	nodes, err := tmpl.GenerateAfter(fset, c)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	_, ok1 := nodes[0].(*ast.AssignStmt)
	_, ok2 := nodes[1].(*ast.AssignStmt)
	assert.True(t, ok1)
	assert.True(t, ok2)
}

// Placeholder arity mismatch fails fast, before any parser invocation.
func TestGenerateArityMismatchFails(t *testing.T) {
	fset, file := parseHost(t, `package p

func F() {
	x := 1
	_ = x
}
`)
	target := findAssign(file, "x")
	require.NotNil(t, target)
	c, ok := cursor.Find(file, target)
	require.True(t, ok)

	tmpl, err := template.NewBuilder("#{} + #{}").Build()
	require.NoError(t, err)

	_, err = tmpl.GenerateAfter(fset, c, 1)
	require.Error(t, err)

	var argErr *tmplerr.ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

// Building a template with a malformed import specifier fails at Build
// time, per the four-entry error taxonomy.
func TestBuilderRejectsMalformedImport(t *testing.T) {
	_, err := template.NewBuilder("x").Imports("import \"fmt\"").Build()
	require.Error(t, err)

	var argErr *tmplerr.ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

// Idempotence: generating twice from the same template and cursor produces
// structurally equal output.
func TestGenerateIsIdempotent(t *testing.T) {
	fset, file := parseHost(t, `package p

import "fmt"

func F() {
	x := 1
	_ = x
}
`)
	target := findAssign(file, "x")
	require.NotNil(t, target)
	c, ok := cursor.Find(file, target)
	require.True(t, ok)

	tmpl, err := template.NewBuilder("fmt.Println(1)").Imports("fmt").Build()
	require.NoError(t, err)

	first, err := tmpl.GenerateAfter(fset, c)
	require.NoError(t, err)
	second, err := tmpl.GenerateAfter(fset, c)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, printNode(t, first[0]), printNode(t, second[0]))
	assert.NotSame(t, first[0], second[0])
}
