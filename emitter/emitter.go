// Package emitter implements the Marker Emitter: it splices marker-delimited
// template text into a pruned compilation unit at exactly one insertion
// point, then renders the result back to source text for reparsing.
//
// Go's go/ast trees have no free-form "prefix" slot to carry arbitrary
// unparsed text the way a hand-rolled lossless-syntax tree would, so the
// splice is done with a small, well-grounded trick also used by the
// teacher's executor package (which mutates *ast.File/*ast.BlockStmt nodes
// directly and renders with go/format): a uniquely-named sentinel statement
// or declaration is inserted at the exact target position, the whole tree
// is rendered with go/format (picking up correct indentation and layout
// for everything else "for free"), and only the sentinel's own rendered
// line is replaced with the real marker-wrapped template text. A second
// "guard" sentinel immediately follows the splice so the Extractor always
// has a real node to own the end marker as a leading comment, regardless
// of what (if anything) came after the insertion point in the host source.
package emitter

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vinodhalaharvi/stencil/cursor"
	"github.com/vinodhalaharvi/stencil/tmplerr"
)

// Direction selects whether the splice happens before or after the focus
// node.
type Direction int

const (
	Before Direction = iota
	After
)

// StartMarker and EndMarker are the fixed block-comment payloads that
// delimit a spliced region. They're deliberately unusual so that no
// realistic template text collides with them.
const (
	StartMarker = "<<<<STENCIL-TEMPLATE-START>>>>"
	EndMarker   = "<<<<STENCIL-TEMPLATE-END>>>>"
)

var sentinelSeq int

func nextSentinel(tag string) string {
	sentinelSeq++
	return fmt.Sprintf("__stencil_%s_%d__", tag, sentinelSeq)
}

// Emit splices substituted (already parameter-substituted template text)
// into file at focus, in the given direction, rendering the whole tree to
// source text. file is mutated in place — callers own it exclusively for
// the duration of one Template.Generate* call (it is the pruner's
// disposable working copy, never the shared host tree).
//
// focus must be either an ast.Decl that is a direct element of file.Decls,
// or an ast.Stmt that is a direct element of some *ast.BlockStmt.List
// reachable from file — exactly the two shapes cursor.Cursor.InsertionScope
// resolves to.
func Emit(
	fset *token.FileSet,
	file *ast.File,
	focus ast.Node,
	dir Direction,
	memberInitializer bool,
	substituted string,
	imports []string,
	staticImports []string,
) (string, error) {
	log := logrus.StandardLogger()
	log.WithFields(logrus.Fields{
		"stage":             "emit",
		"memberInitializer": memberInitializer,
		"direction":         dir,
	}).Debug("splicing marker-delimited template text")

	addImports(file, imports, staticImports)

	sentinel := nextSentinel("splice")
	guard := nextSentinel("guard")

	switch f := focus.(type) {
	case ast.Decl:
		if err := spliceDecl(file, f, dir, memberInitializer, sentinel, guard); err != nil {
			return "", err
		}
	case ast.Stmt:
		if err := spliceStmt(file, f, dir, sentinel, guard); err != nil {
			return "", err
		}
	default:
		return "", tmplerr.NewExtractionError("unsupported insertion focus type %T", focus)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return "", fmt.Errorf("emitter: render pruned tree: %w", err)
	}

	payload := markerPayload(substituted, memberInitializer)
	out, err := spliceSentinelLine(buf.String(), sentinel, payload)
	if err != nil {
		return "", err
	}
	return out, nil
}

// markerPayload wraps text with the start/end block-comment markers, and
// additionally in braces when memberInitializer forces statement-context
// parsing (spec shape: "[blockStart] /* START */ text\n/* END */ [blockEnd]").
//
// The end marker sits on its own line, immediately followed by the guard
// sentinel's line with no blank line between them. go/ast.NewCommentMap
// attaches a comment to the node it trails only when they share a line (or
// an intervening blank line separates it from what follows); with neither
// true here, the marker attaches instead as a leading comment of the guard
// node, giving the Extractor a dedicated node to own it rather than folding
// it onto the spliced content's own last statement.
func markerPayload(text string, memberInitializer bool) string {
	body := fmt.Sprintf("/* %s */ %s\n/* %s */", StartMarker, text, EndMarker)
	if memberInitializer {
		body = "{ " + body + " }"
	}
	return body
}

// spliceDecl handles insertion at file-scope: focus is a direct element of
// file.Decls. Non-member-initializer splices insert a pair of sentinel var
// declarations directly at the target position. Member-initializer splices
// (field/value-spec insertion points, per cursor.Cursor.InsertionScope)
// instead append a synthetic scratch function elsewhere in the file whose
// body carries the marker-wrapped, brace-wrapped text — Go has no
// class-body "instance initializer block" the way the source model this is
// adapted from does, so a scratch function is the idiomatic substitute.
// Direction is irrelevant for the member-initializer case: the result is
// entirely the template's own parsed content regardless of where the
// scratch function sits, since the Extractor discards the scaffolding.
func spliceDecl(file *ast.File, focus ast.Decl, dir Direction, memberInitializer bool, sentinel, guard string) error {
	if memberInitializer {
		file.Decls = append(file.Decls, scratchFuncDecl(sentinel, guard))
		return nil
	}

	idx := declIndex(file.Decls, focus)
	if idx < 0 {
		return tmplerr.NewExtractionError("insertion focus declaration not found in pruned tree")
	}
	insertAt := idx
	if dir == After {
		insertAt = idx + 1
	}

	nd := make([]ast.Decl, 0, len(file.Decls)+2)
	nd = append(nd, file.Decls[:insertAt]...)
	nd = append(nd, varSentinelDecl(sentinel), varSentinelDecl(guard))
	nd = append(nd, file.Decls[insertAt:]...)
	file.Decls = nd
	return nil
}

// spliceStmt handles insertion inside a block: focus is a direct element of
// some *ast.BlockStmt.List. The enclosing block is located with a fresh
// cursor.Find over file, since Emit operates on the already-pruned tree.
func spliceStmt(file *ast.File, focus ast.Stmt, dir Direction, sentinel, guard string) error {
	cu, ok := cursor.Find(file, focus)
	if !ok {
		return tmplerr.NewExtractionError("insertion focus statement not found in pruned tree")
	}
	parent, ok := cu.Parent()
	if !ok {
		return tmplerr.NewExtractionError("insertion focus statement has no parent")
	}
	block, ok := parent.Focus().(*ast.BlockStmt)
	if !ok {
		return tmplerr.NewExtractionError("insertion focus statement's parent is not a block")
	}

	idx := stmtIndex(block.List, focus)
	if idx < 0 {
		return tmplerr.NewExtractionError("insertion focus statement not found in its block")
	}
	insertAt := idx
	if dir == After {
		insertAt = idx + 1
	}

	nl := make([]ast.Stmt, 0, len(block.List)+2)
	nl = append(nl, block.List[:insertAt]...)
	nl = append(nl, exprCallStmt(sentinel), exprCallStmt(guard))
	nl = append(nl, block.List[insertAt:]...)
	block.List = nl
	return nil
}

func declIndex(decls []ast.Decl, target ast.Decl) int {
	for i, d := range decls {
		if d == target {
			return i
		}
	}
	return -1
}

func stmtIndex(stmts []ast.Stmt, target ast.Stmt) int {
	for i, s := range stmts {
		if s == target {
			return i
		}
	}
	return -1
}

func varSentinelDecl(name string) ast.Decl {
	return &ast.GenDecl{
		Tok: token.VAR,
		Specs: []ast.Spec{
			&ast.ValueSpec{
				Names: []*ast.Ident{ast.NewIdent(name)},
				Type:  ast.NewIdent("int"),
			},
		},
	}
}

func exprCallStmt(name string) ast.Stmt {
	return &ast.ExprStmt{X: &ast.CallExpr{Fun: ast.NewIdent(name)}}
}

// scratchFuncDecl builds a synthetic niladic function whose body is exactly
// two call statements (sentinel then guard); spliceSentinelLine later
// rewrites the sentinel line with the brace-wrapped marker payload.
func scratchFuncDecl(sentinel, guard string) ast.Decl {
	return &ast.FuncDecl{
		Name: ast.NewIdent(nextSentinel("scratch")),
		Type: &ast.FuncType{Params: &ast.FieldList{}},
		Body: &ast.BlockStmt{
			List: []ast.Stmt{
				exprCallStmt(sentinel),
				exprCallStmt(guard),
			},
		},
	}
}

// spliceSentinelLine finds the single source line containing sentinel and
// replaces it with payload, preserving that line's leading indentation so
// the payload lands at the right column for block-scoped splices.
func spliceSentinelLine(src, sentinel, payload string) (string, error) {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if !strings.Contains(line, sentinel) {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		lines[i] = indent + payload
		return strings.Join(lines, "\n"), nil
	}
	return "", tmplerr.NewExtractionError("sentinel %q not found in rendered source", sentinel)
}

// addImports ensures every entry of imports/staticImports is present in
// file's import declaration, creating one if none exists. Go has no direct
// analogue of Java's static import; dot-imports (import . "pkg") are the
// closest idiomatic equivalent (unqualified access to a package's
// exported names), so staticImports are added as dot-imports.
func addImports(file *ast.File, imports, staticImports []string) {
	if len(imports) == 0 && len(staticImports) == 0 {
		return
	}

	var importDecl *ast.GenDecl
	for _, d := range file.Decls {
		if gd, ok := d.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			importDecl = gd
			break
		}
	}
	if importDecl == nil {
		importDecl = &ast.GenDecl{Tok: token.IMPORT, Lparen: 1, Rparen: 1}
		file.Decls = append([]ast.Decl{importDecl}, file.Decls...)
	}

	existing := make(map[string]bool, len(importDecl.Specs))
	for _, s := range importDecl.Specs {
		if is, ok := s.(*ast.ImportSpec); ok {
			existing[is.Path.Value] = true
		}
	}

	add := func(path string, name *ast.Ident) {
		lit := fmt.Sprintf("%q", path)
		if existing[lit] {
			return
		}
		existing[lit] = true
		importDecl.Specs = append(importDecl.Specs, &ast.ImportSpec{
			Name: name,
			Path: &ast.BasicLit{Kind: token.STRING, Value: lit},
		})
	}

	for _, imp := range imports {
		add(imp, nil)
	}
	for _, imp := range staticImports {
		add(imp, ast.NewIdent("."))
	}

	if len(importDecl.Specs) > 1 {
		importDecl.Lparen = 1
		importDecl.Rparen = 1
	}
}
