// Package cursor implements the ancestor-path abstraction the rest of the
// template materialisation pipeline is built on: a Cursor is a non-empty
// ordered sequence of AST nodes from a compilation unit down to some focus
// node inside it.
//
// Go's go/ast trees are plain pointer graphs with no parent links, so a
// Cursor is the thing that recovers "where am I in the tree" during a
// pruning or extraction walk. Cursors are ephemeral: they borrow node
// pointers and must not outlive the *ast.File version that produced them.
package cursor

import "go/ast"

// Cursor is an immutable path of ast.Node from a *ast.File (always path[0])
// down to a focus node (path[len(path)-1]). The zero value is not valid;
// use New or Find.
type Cursor struct {
	path []ast.Node
}

// New builds a Cursor from a root-to-focus path. The first element must be
// a *ast.File; New panics otherwise, since "a cursor's head is always a
// compilation unit" is a hard invariant relied on throughout the pipeline.
func New(path []ast.Node) Cursor {
	if len(path) == 0 {
		panic("cursor: empty path")
	}
	if _, ok := path[0].(*ast.File); !ok {
		panic("cursor: path does not start at a compilation unit")
	}
	cp := make([]ast.Node, len(path))
	copy(cp, path)
	return Cursor{path: cp}
}

// Find builds a Cursor to target within file by walking file with
// ast.Inspect and tracking the ancestor stack. It returns ok=false if
// target is not reachable from file (including if target == nil).
func Find(file *ast.File, target ast.Node) (Cursor, bool) {
	if target == nil {
		return Cursor{}, false
	}
	var stack []ast.Node
	var found []ast.Node

	ast.Inspect(file, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		if n == nil {
			// Leaving the node at the top of the stack.
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			return false
		}
		stack = append(stack, n)
		if n == target {
			found = append([]ast.Node(nil), stack...)
			return false
		}
		return true
	})

	if found == nil {
		return Cursor{}, false
	}
	return Cursor{path: found}, true
}

// Path returns the full root-to-focus path. The returned slice is owned by
// the caller; mutating it does not affect the Cursor.
func (c Cursor) Path() []ast.Node {
	out := make([]ast.Node, len(c.path))
	copy(out, c.path)
	return out
}

// Focus returns the node this cursor points at.
func (c Cursor) Focus() ast.Node {
	return c.path[len(c.path)-1]
}

// Head returns the compilation unit the cursor is rooted at.
func (c Cursor) Head() *ast.File {
	return c.path[0].(*ast.File)
}

// Depth returns the length of the path (a bare compilation-unit cursor has
// depth 1).
func (c Cursor) Depth() int {
	return len(c.path)
}

// Parent returns the cursor one step shallower, or ok=false at root (depth
// 1, i.e. the cursor is already the compilation unit).
func (c Cursor) Parent() (Cursor, bool) {
	if len(c.path) <= 1 {
		return Cursor{}, false
	}
	return Cursor{path: c.path[:len(c.path)-1]}, true
}

// WithFocus returns a new cursor with the same path but child appended as
// the new focus, i.e. a child cursor. Used by visitors that build cursors
// incrementally as they descend.
func (c Cursor) WithFocus(child ast.Node) Cursor {
	np := make([]ast.Node, len(c.path)+1)
	copy(np, c.path)
	np[len(c.path)] = child
	return Cursor{path: np}
}

// DropParentUntil walks outward from the focus (not including the focus
// itself) and returns the nearest strict ancestor satisfying pred, plus the
// cursor truncated to that ancestor. ok is false if no ancestor (including
// the compilation unit) satisfies pred.
func (c Cursor) DropParentUntil(pred func(ast.Node) bool) (Cursor, bool) {
	for i := len(c.path) - 2; i >= 0; i-- {
		if pred(c.path[i]) {
			return Cursor{path: c.path[:i+1]}, true
		}
	}
	return Cursor{}, false
}

// FirstEnclosing returns the nearest ancestor (including the focus itself)
// satisfying pred. Callers that need the compilation unit specifically
// should prefer Head, which always succeeds per the cursor invariant; this
// method is for arbitrary predicates (e.g. "nearest *ast.FuncDecl").
func (c Cursor) FirstEnclosing(pred func(ast.Node) bool) (ast.Node, bool) {
	for i := len(c.path) - 1; i >= 0; i-- {
		if pred(c.path[i]) {
			return c.path[i], true
		}
	}
	return nil, false
}

// Contains reports whether n appears anywhere on the cursor's path, by
// identity (pointer equality), not structural equality.
func (c Cursor) Contains(n ast.Node) bool {
	for _, p := range c.path {
		if p == n {
			return true
		}
	}
	return false
}

// IsBlock reports whether n is a *ast.BlockStmt. A small predicate helper
// used pervasively by DropParentUntil/FirstEnclosing callers throughout the
// pipeline (insertion-scope resolution, pruner block detection).
func IsBlock(n ast.Node) bool {
	_, ok := n.(*ast.BlockStmt)
	return ok
}

// IsFile reports whether n is the compilation unit itself.
func IsFile(n ast.Node) bool {
	_, ok := n.(*ast.File)
	return ok
}

// IsBlockOrFile reports whether n is a block statement or the compilation
// unit — the two node kinds whose immediate children form "insertion
// scope" per the glossary.
func IsBlockOrFile(n ast.Node) bool {
	return IsBlock(n) || IsFile(n)
}

// InsertionScope walks c outward to the first node whose immediate parent
// is a block or a compilation unit (glossary: "Insertion scope"), per
// spec.md §4.1 step 2. It returns the resolved cursor and whether the focus
// or any ancestor below the resolved node is a *ast.ValueSpec of a
// *ast.GenDecl that sits directly in the *ast.File (a package-level
// var/const, Go's class-body equivalent) — the "member-initialiser" flag.
// Function-local var/const declarations do not set it.
func (c Cursor) InsertionScope() (resolved Cursor, memberInitializer bool) {
	path := c.path
	// Walk from the focus outward; stop at the first node whose parent
	// (the node one step further out) is a block or file.
	idx := len(path) - 1
	for idx > 0 {
		parent := path[idx-1]
		if IsBlockOrFile(parent) {
			break
		}
		if isMemberInitializerNode(path[idx]) && idx >= 2 && IsFile(path[idx-2]) {
			memberInitializer = true
		}
		idx--
	}
	return Cursor{path: path[:idx+1]}, memberInitializer
}

// isMemberInitializerNode reports whether n is a named-variable-equivalent
// node that can carry a field initializer: a *ast.ValueSpec. InsertionScope
// counts it only when its GenDecl is a top-level declaration, Go's closest
// analogue to "a named variable sitting directly inside a class body".
func isMemberInitializerNode(n ast.Node) bool {
	_, ok := n.(*ast.ValueSpec)
	return ok
}
