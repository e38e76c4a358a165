package pruner_test

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinodhalaharvi/stencil/cursor"
	"github.com/vinodhalaharvi/stencil/pruner"
)

const src = `package p

var Kept = 1

func Untouched() int {
	return 1
}

func Target() {
	a := 1
	b := 2
	if b > 0 {
		c := 3
		_ = c
	}
	d := 4
	_ = a
	_ = b
	_ = d
}
`

func parseSrc(t *testing.T) (*token.FileSet, *ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", src, parser.ParseComments)
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

func printFile(t *testing.T, fset *token.FileSet, file *ast.File) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, format.Node(&buf, fset, file))
	return buf.String()
}

func TestPruneDropsStatementsAfterInsertionPoint(t *testing.T) {
	fset, file := parseSrc(t)
	target := findAssign(file, "b")
	c, ok := cursor.Find(file, target)
	require.True(t, ok)

	pruned, focus := pruner.Prune(file, c)
	require.NotNil(t, focus)

	out := printFile(t, fset, pruned)
	assert.Contains(t, out, "a := 1")
	// The insertion-path statement's declared name is renamed with a "_"
	// prefix so the template's own reference to "b" doesn't collide with it.
	assert.Contains(t, out, "_b := 2")
	assert.NotContains(t, out, "d := 4")
	assert.NotContains(t, out, "if b > 0")
}

func TestPruneClearsUnrelatedFunctionBodies(t *testing.T) {
	fset, file := parseSrc(t)
	target := findAssign(file, "a")
	c, ok := cursor.Find(file, target)
	require.True(t, ok)

	pruned, _ := pruner.Prune(file, c)
	out := printFile(t, fset, pruned)

	assert.Contains(t, out, "func Untouched()")
	assert.NotContains(t, out, "return 1")
}

func TestPruneKeepsUnrelatedTopLevelVars(t *testing.T) {
	fset, file := parseSrc(t)
	target := findAssign(file, "a")
	c, ok := cursor.Find(file, target)
	require.True(t, ok)

	pruned, _ := pruner.Prune(file, c)
	out := printFile(t, fset, pruned)
	assert.Contains(t, out, "Kept = 1")
}

func TestPruneReturnsRewrittenFocusForCopiedNode(t *testing.T) {
	fset, file := parseSrc(t)
	target := findAssign(file, "a")
	c, ok := cursor.Find(file, target)
	require.True(t, ok)

	pruned, focus := pruner.Prune(file, c)

	located, ok := cursor.Find(pruned, focus)
	require.True(t, ok, "rewritten focus must be locatable inside the pruned tree")
	assert.Same(t, focus, located.Focus())

	out := printFile(t, fset, pruned)
	assert.Contains(t, out, "_a := 1")
}

func TestPruneDoesNotMutateHostTree(t *testing.T) {
	fset, file := parseSrc(t)
	before := printFile(t, fset, file)

	target := findAssign(file, "a")
	c, ok := cursor.Find(file, target)
	require.True(t, ok)
	pruner.Prune(file, c)

	after := printFile(t, fset, file)
	assert.Equal(t, before, after)
}
