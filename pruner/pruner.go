// Package pruner produces a minimally-compilable copy of a compilation unit
// around an insertion cursor: the reduced context a template fragment needs
// to reparse successfully, stripped of everything that could slow down or
// perturb that reparse.
//
// Pruning never mutates the host tree. Every node touched by a rule that
// changes something is replaced by a freshly allocated struct; every node
// a rule leaves alone keeps its original pointer, so identity (§3 of the
// spec this implements) survives for nodes outside the rewrite's blast
// radius — exactly "fresh node sharing unchanged children".
package pruner

import (
	"go/ast"
	"go/token"

	"github.com/sirupsen/logrus"

	"github.com/vinodhalaharvi/stencil/cursor"
)

// Prune returns a reduced copy of file, keeping only the declarations,
// imports and statement prefix needed to compile code inserted at point,
// together with the node in that copy corresponding to point.Focus(): the
// fresh copy when a rule along the insertion path rewrote the focus (see
// pruner.resultFocus), otherwise the host's own focus node, shared
// unchanged into the copy. file itself is never mutated.
func Prune(file *ast.File, point cursor.Cursor) (*ast.File, ast.Node) {
	return PruneWithLogger(file, point, logrus.StandardLogger())
}

// PruneWithLogger is Prune with an explicit logger for pipeline tracing
// (spec.md §9: "tracing the generated source is a supported diagnostic").
// A nil logger is treated as logrus.StandardLogger().
func PruneWithLogger(file *ast.File, point cursor.Cursor, log *logrus.Logger) (*ast.File, ast.Node) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &pruner{point: point, log: log}
	log.WithField("stage", "prune").Debug("pruning compilation unit around insertion point")
	nf := p.pruneFile(file)
	focus := p.resultFocus
	if focus == nil {
		// The focus was never touched by a copying rule, so its pointer
		// survived unchanged into nf — structural sharing at work.
		focus = point.Focus()
	}
	return nf, focus
}

type pruner struct {
	point       cursor.Cursor
	log         *logrus.Logger
	resultFocus ast.Node
}

// track records that orig (as found in the host tree) was rewritten to
// rewritten in the pruned tree, capturing it as the pipeline's resolved
// focus if orig is exactly the node point.Focus() names.
func (p *pruner) track(orig, rewritten ast.Node) {
	if orig == p.point.Focus() {
		p.resultFocus = rewritten
	}
}

func (p *pruner) pruneFile(file *ast.File) *ast.File {
	nf := *file
	nf.Decls = make([]ast.Decl, len(file.Decls))
	for i, d := range file.Decls {
		nf.Decls[i] = p.pruneDecl(d)
	}
	p.track(file, &nf)
	return &nf
}

func (p *pruner) pruneDecl(d ast.Decl) ast.Decl {
	switch decl := d.(type) {
	case *ast.FuncDecl:
		return p.pruneFuncDecl(decl)
	case *ast.GenDecl:
		return p.pruneGenDecl(decl)
	default:
		return d
	}
}

// pruneFuncDecl implements the "Method declaration" rule: recurse if the
// insertion point is inside the function, otherwise keep the signature but
// clear the doc comment (annotations) and the body (method-stub form).
func (p *pruner) pruneFuncDecl(fd *ast.FuncDecl) *ast.FuncDecl {
	if !p.point.Contains(fd) {
		nfd := *fd
		nfd.Doc = nil
		nfd.Body = nil
		p.track(fd, &nfd)
		return &nfd
	}
	nfd := *fd
	if fd.Body != nil {
		nfd.Body = p.pruneBlock(fd.Body)
	}
	p.track(fd, &nfd)
	return &nfd
}

// pruneGenDecl handles import/var/const/type declaration groups. Imports
// pass through unchanged (needed for the synthetic unit to typecheck);
// var/const groups recurse into their ValueSpecs via the "Named variable"
// rule; type declarations pass through (Non-goal: semantic type inference
// means pruning type bodies is out of scope).
func (p *pruner) pruneGenDecl(gd *ast.GenDecl) *ast.GenDecl {
	if gd.Tok != token.VAR && gd.Tok != token.CONST {
		return gd
	}
	ngd := *gd
	ngd.Specs = make([]ast.Spec, len(gd.Specs))
	for i, s := range gd.Specs {
		if vs, ok := s.(*ast.ValueSpec); ok {
			ngd.Specs[i] = p.pruneValueSpec(vs)
		} else {
			ngd.Specs[i] = s
		}
	}
	p.track(gd, &ngd)
	return &ngd
}

// pruneValueSpec implements the "Named variable" rule for var/const groups.
// Off the insertion path: the initialiser is cleared, but only when the
// spec carries an explicit type — clearing an initialiser that is the sole
// source of the variable's type would require type inference, which is a
// spec.md Non-goal, so such specs are left untouched.
// On the insertion path: every declared name is renamed with a "_" prefix,
// so the spliced template's own reference to the original name (e.g. a
// fresh "#{}" parameter) does not collide with the pruned declaration that
// remains in scope.
func (p *pruner) pruneValueSpec(vs *ast.ValueSpec) *ast.ValueSpec {
	if !p.point.Contains(vs) {
		if len(vs.Values) == 0 || vs.Type == nil {
			return vs
		}
		nvs := *vs
		nvs.Values = nil
		p.track(vs, &nvs)
		return &nvs
	}
	nvs := *vs
	nvs.Names = make([]*ast.Ident, len(vs.Names))
	for i, n := range vs.Names {
		nvs.Names[i] = renamedIdent(n)
	}
	p.track(vs, &nvs)
	return &nvs
}

func renamedIdent(n *ast.Ident) *ast.Ident {
	if n == nil || n.Name == "_" {
		return n
	}
	nn := *n
	nn.Name = "_" + n.Name
	return &nn
}

// pruneBlock implements the "Block" rule. If the insertion point lies
// inside this block, statements are emitted in order up to and including
// the first one whose sub-tree contains the insertion point; everything
// after is dropped. Otherwise the block's statement list is cleared.
func (p *pruner) pruneBlock(b *ast.BlockStmt) *ast.BlockStmt {
	if !p.point.Contains(b) {
		nb := *b
		nb.List = nil
		p.track(b, &nb)
		return &nb
	}

	nb := *b
	list := make([]ast.Stmt, 0, len(b.List))
	for _, stmt := range b.List {
		list = append(list, p.pruneStmt(stmt))
		if p.point.Contains(stmt) {
			break
		}
	}
	nb.List = list
	p.track(b, &nb)
	return &nb
}

// pruneStmt recurses into statement forms that can carry nested blocks or
// declarations on the insertion path; every other statement kind is an
// identity copy (spec.md: "All other nodes: structural identity copy").
func (p *pruner) pruneStmt(s ast.Stmt) ast.Stmt {
	switch st := s.(type) {
	case *ast.BlockStmt:
		return p.pruneBlock(st)
	case *ast.DeclStmt:
		if gd, ok := st.Decl.(*ast.GenDecl); ok {
			nst := *st
			nst.Decl = p.pruneGenDecl(gd)
			p.track(st, &nst)
			return &nst
		}
		return st
	case *ast.AssignStmt:
		return p.pruneAssign(st)
	case *ast.IfStmt:
		nst := *st
		if st.Body != nil {
			nst.Body = p.pruneBlock(st.Body)
		}
		if st.Else != nil {
			nst.Else = p.pruneStmt(st.Else).(ast.Stmt)
		}
		p.track(st, &nst)
		return &nst
	case *ast.ForStmt:
		nst := *st
		if st.Body != nil {
			nst.Body = p.pruneBlock(st.Body)
		}
		p.track(st, &nst)
		return &nst
	case *ast.RangeStmt:
		nst := *st
		if st.Body != nil {
			nst.Body = p.pruneBlock(st.Body)
		}
		p.track(st, &nst)
		return &nst
	case *ast.SwitchStmt:
		nst := *st
		if st.Body != nil {
			nst.Body = p.pruneBlock(st.Body)
		}
		p.track(st, &nst)
		return &nst
	case *ast.TypeSwitchStmt:
		nst := *st
		if st.Body != nil {
			nst.Body = p.pruneBlock(st.Body)
		}
		p.track(st, &nst)
		return &nst
	case *ast.SelectStmt:
		nst := *st
		if st.Body != nil {
			nst.Body = p.pruneBlock(st.Body)
		}
		p.track(st, &nst)
		return &nst
	case *ast.LabeledStmt:
		nst := *st
		nst.Stmt = p.pruneStmt(st.Stmt)
		p.track(st, &nst)
		return &nst
	default:
		return s
	}
}

// pruneAssign implements the "Named variable" rename rule (not the clear
// rule — see pruneValueSpec's doc comment) for short variable declarations
// (":="). Go has no syntax for a declaration-only short var, so off-path
// ":=" statements are left untouched; only the on-path rename applies,
// renaming every non-blank identifier on the left-hand side.
func (p *pruner) pruneAssign(st *ast.AssignStmt) ast.Stmt {
	if st.Tok != token.DEFINE || !p.point.Contains(st) {
		return st
	}
	nst := *st
	nst.Lhs = make([]ast.Expr, len(st.Lhs))
	for i, e := range st.Lhs {
		if id, ok := e.(*ast.Ident); ok {
			nst.Lhs[i] = renamedIdent(id)
		} else {
			nst.Lhs[i] = e
		}
	}
	p.track(st, &nst)
	return &nst
}
