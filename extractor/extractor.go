// Package extractor recovers the sub-trees a Marker Emitter spliced into a
// synthetic compilation unit, after that unit has been reparsed.
//
// It walks the reparsed *ast.File with ast.Inspect, using ast.NewCommentMap
// to find which node owns the start/end marker comments, then returns every
// node between them that sits at the same nesting depth as the first one.
// A node whose leading comment is the end marker (the guard the Emitter
// writes after the splice) is not collected. When the node owning the start
// marker encloses the node owning the end marker — the wrapping scaffold
// (the brace pair a member-initializer splice forces around the text) — that
// wrapper is dropped from the collected range and the nodes one nesting
// level deeper are returned instead.
package extractor

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vinodhalaharvi/stencil/emitter"
	"github.com/vinodhalaharvi/stencil/tmplerr"
)

type visit struct {
	node  ast.Node
	depth int
}

// Extract returns the sub-trees delimited by emitter.StartMarker and
// emitter.EndMarker inside file, in source order, with the marker comments
// themselves stripped from the returned nodes' leading trivia.
func Extract(fset *token.FileSet, file *ast.File) ([]ast.Node, error) {
	log := logrus.StandardLogger()
	log.WithField("stage", "extract").Debug("recovering spliced sub-trees from synthetic unit")

	cmap := ast.NewCommentMap(fset, file, file.Comments)

	var visits []visit
	var stack []ast.Node
	ast.Inspect(file, func(n ast.Node) bool {
		if n == nil {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			return false
		}
		stack = append(stack, n)
		visits = append(visits, visit{node: n, depth: len(stack)})
		return true
	})

	startDepth := -1
	sawStart := false
	sawEnd := false
	collecting := false
	var elements []visit
	var stackAt func(idx int) []ast.Node

	// Rebuild the ancestor stack at any visit index from the flat visit
	// list, so the "wrapping scaffold" check (does the node currently being
	// visited have the first collected element among its ancestors?) can be
	// evaluated without re-walking the tree.
	ancestorStacks := make([][]ast.Node, len(visits))
	{
		var st []ast.Node
		for i, v := range visits {
			for len(st) >= v.depth {
				st = st[:len(st)-1]
			}
			st = append(st, v.node)
			cp := make([]ast.Node, len(st))
			copy(cp, st)
			ancestorStacks[i] = cp
		}
	}
	stackAt = func(idx int) []ast.Node { return ancestorStacks[idx] }

	for i, v := range visits {
		groups := cmap[v.node]
		hasStart, hasEnd := scanMarkers(groups)

		// A node that carries the end marker as a leading comment (the
		// guard statement or declaration the Emitter writes after the
		// splice) follows the spliced text and is not part of it.
		endLeads := false
		for _, g := range groups {
			for _, c := range g.List {
				if c.Pos() < v.node.Pos() && strings.Contains(c.Text, emitter.EndMarker) {
					endLeads = true
				}
			}
		}

		if hasStart {
			sawStart = true
			if _, isFile := v.node.(*ast.File); isFile {
				startDepth = v.depth + 1
			} else {
				startDepth = v.depth
				elements = append(elements, v)
			}
			collecting = true
		} else if collecting && !endLeads {
			elements = append(elements, v)
		}

		if hasEnd {
			sawEnd = true
			collecting = false
			if len(elements) > 1 && containsNode(stackAt(i), elements[0].node) {
				elements = elements[1:]
				startDepth++
			}
		}
	}

	if !sawStart {
		return nil, tmplerr.NewExtractionError("no start marker found in synthesised unit")
	}
	if !sawEnd {
		return nil, tmplerr.NewExtractionError("reached end of synthesised unit without seeing an end marker")
	}

	var out []ast.Node
	for _, el := range elements {
		if el.depth == startDepth {
			stripMarkerComments(el.node)
			out = append(out, el.node)
		}
	}
	return out, nil
}

func scanMarkers(groups []*ast.CommentGroup) (hasStart, hasEnd bool) {
	for _, g := range groups {
		for _, c := range g.List {
			if strings.Contains(c.Text, emitter.StartMarker) {
				hasStart = true
			}
			if strings.Contains(c.Text, emitter.EndMarker) {
				hasEnd = true
			}
		}
	}
	return hasStart, hasEnd
}

func containsNode(stack []ast.Node, target ast.Node) bool {
	for _, n := range stack {
		if n == target {
			return true
		}
	}
	return false
}

// stripMarkerComments removes any Doc/Comment field on n that contains a
// marker, so a returned sub-tree never carries the splice's own bookkeeping
// comments when printed. Only the Doc of *ast.GenDecl and *ast.FuncDecl and
// the Doc/Comment of *ast.Field are checked; other node kinds, including
// statements and the Specs inside a GenDecl, are left as they are.
func stripMarkerComments(n ast.Node) {
	clean := func(cg *ast.CommentGroup) *ast.CommentGroup {
		if cg == nil {
			return nil
		}
		for _, c := range cg.List {
			if strings.Contains(c.Text, emitter.StartMarker) || strings.Contains(c.Text, emitter.EndMarker) {
				return nil
			}
		}
		return cg
	}
	switch d := n.(type) {
	case *ast.GenDecl:
		d.Doc = clean(d.Doc)
	case *ast.FuncDecl:
		d.Doc = clean(d.Doc)
	case *ast.Field:
		d.Doc = clean(d.Doc)
		d.Comment = clean(d.Comment)
	}
}
