package executor

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/vinodhalaharvi/stencil/grammar"
	"github.com/vinodhalaharvi/stencil/matcher"
)

// astFragment is a template.Builder-ready rendering of an ASTBuild node: Go
// source text containing one "#{}" placeholder per bound value the
// construction referenced, in left-to-right occurrence order, paired with
// the resolved parameters to substitute.
//
// renderASTBuild turns the declarative, reflection-free `insert ast { ... }`
// grammar into a concrete source fragment instead of constructing ast.Node
// values directly: the fragment is then handed to template.Builder, so the
// same marker-splice/reparse/extract pipeline the rest of this package's
// domain relies on (pruner, emitter, extractor) is the thing that actually
// produces well-formed nodes, rather than a second hand-rolled tree builder.
type astFragment struct {
	text   string
	params []any
}

// renderASTBuild dispatches on b.NodeType to a handful of statement/
// declaration shapes useful for refactoring recipes. Unrecognised node types
// are an error: unlike `insert code`, `insert ast` is meant to be guided by
// the grammar's own node vocabulary, not an escape hatch for arbitrary text.
func renderASTBuild(b *grammar.ASTBuild, bindings matcher.Bindings) (astFragment, error) {
	r := &astRenderer{bindings: bindings}
	text, err := r.node(b)
	if err != nil {
		return astFragment{}, err
	}
	return astFragment{text: text, params: r.params}, nil
}

type astRenderer struct {
	bindings matcher.Bindings
	params   []any
}

func (r *astRenderer) node(b *grammar.ASTBuild) (string, error) {
	switch b.NodeType {
	case "ExprStmt":
		x, err := r.scalar(b, "X")
		if err != nil {
			return "", err
		}
		return x, nil
	case "ReturnStmt":
		results, err := r.list(b, "Results")
		if err != nil {
			return "", err
		}
		return "return " + strings.Join(results, ", "), nil
	case "AssignStmt":
		lhs, err := r.list(b, "Lhs")
		if err != nil {
			return "", err
		}
		rhs, err := r.list(b, "Rhs")
		if err != nil {
			return "", err
		}
		tok, err := r.scalarOptional(b, "Tok")
		if err != nil {
			return "", err
		}
		if tok == "" {
			tok = ":="
		}
		return fmt.Sprintf("%s %s %s", strings.Join(lhs, ", "), tok, strings.Join(rhs, ", ")), nil
	case "CallExpr":
		fun, err := r.scalar(b, "Fun")
		if err != nil {
			return "", err
		}
		args, err := r.listOptional(b, "Args")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)", fun, strings.Join(args, ", ")), nil
	case "IfStmt":
		cond, err := r.scalar(b, "Cond")
		if err != nil {
			return "", err
		}
		body, err := r.bodyField(b, "Body")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("if %s {\n%s\n}", cond, body), nil
	case "DeferStmt":
		call, err := r.scalar(b, "Call")
		if err != nil {
			return "", err
		}
		return "defer " + call, nil
	case "ValueSpec":
		names, err := r.list(b, "Names")
		if err != nil {
			return "", err
		}
		typ, err := r.scalarOptional(b, "Type")
		if err != nil {
			return "", err
		}
		values, err := r.listOptional(b, "Values")
		if err != nil {
			return "", err
		}
		switch {
		case typ != "" && len(values) > 0:
			return fmt.Sprintf("var %s %s = %s", strings.Join(names, ", "), typ, strings.Join(values, ", ")), nil
		case typ != "":
			return fmt.Sprintf("var %s %s", strings.Join(names, ", "), typ), nil
		default:
			return fmt.Sprintf("var %s = %s", strings.Join(names, ", "), strings.Join(values, ", ")), nil
		}
	default:
		return "", fmt.Errorf("insert ast: unsupported node type %q", b.NodeType)
	}
}

// bodyField renders the named field, which must hold a list of nested
// ASTBuild constructs, as one statement per line.
func (r *astRenderer) bodyField(b *grammar.ASTBuild, name string) (string, error) {
	f := r.field(b, name)
	if f == nil {
		return "", fmt.Errorf("insert ast: field %q required", name)
	}
	if len(f.Value.List) == 0 {
		if f.Value.Construct == nil {
			return "", fmt.Errorf("insert ast: field %q must be an ast construct", name)
		}
		line, err := r.node(f.Value.Construct)
		if err != nil {
			return "", err
		}
		return line + ";", nil
	}
	var lines []string
	for _, v := range f.Value.List {
		if v.Construct == nil {
			return "", fmt.Errorf("insert ast: field %q element is not a construct", name)
		}
		line, err := r.node(v.Construct)
		if err != nil {
			return "", err
		}
		lines = append(lines, line+";")
	}
	return strings.Join(lines, "\n"), nil
}

// field locates the raw ASTBuildField named name on b, or nil.
func (r *astRenderer) field(b *grammar.ASTBuild, name string) *grammar.ASTBuildField {
	for _, f := range b.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// scalar renders a required single-valued field (Value.List must be empty).
func (r *astRenderer) scalar(b *grammar.ASTBuild, name string) (string, error) {
	s, err := r.scalarOptional(b, name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("insert ast: field %q required", name)
	}
	return s, nil
}

func (r *astRenderer) scalarOptional(b *grammar.ASTBuild, name string) (string, error) {
	f := r.field(b, name)
	if f == nil {
		return "", nil
	}
	if len(f.Value.List) > 0 {
		return "", fmt.Errorf("insert ast: field %q is a list, not a scalar", name)
	}
	return r.value(f.Value)
}

// list renders a required list-valued field. A field given as a single bare
// value (not wrapped in "[ ]") is treated as a one-element list, matching
// the grammar's ASTBuildValue, which allows either shape.
func (r *astRenderer) list(b *grammar.ASTBuild, name string) ([]string, error) {
	out, err := r.listOptional(b, name)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("insert ast: field %q required", name)
	}
	return out, nil
}

func (r *astRenderer) listOptional(b *grammar.ASTBuild, name string) ([]string, error) {
	f := r.field(b, name)
	if f == nil {
		return nil, nil
	}
	if len(f.Value.List) == 0 {
		s, err := r.value(f.Value)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	out := make([]string, 0, len(f.Value.List))
	for _, v := range f.Value.List {
		s, err := r.value(v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// value renders a single ASTBuildValue to text. BindingRef values become a
// "#{}" placeholder with the resolved binding appended to r.params, so
// ast.Node-valued bindings are substituted through template's own
// node-printing rule rather than a second ad-hoc stringifier.
func (r *astRenderer) value(v *grammar.ASTBuildValue) (string, error) {
	switch {
	case v.Binding != nil:
		if v.Binding.Field != nil {
			return "", fmt.Errorf("insert ast: field access on $%s.%s not yet supported", v.Binding.Name, *v.Binding.Field)
		}
		val, ok := r.bindings[v.Binding.Name]
		if !ok {
			return "", fmt.Errorf("insert ast: binding $%s not found", v.Binding.Name)
		}
		if len(v.Binding.Transforms) > 0 {
			s := bindingToString(val)
			for _, t := range v.Binding.Transforms {
				s = applyTransform(s, t)
			}
			val = s
		}
		r.params = append(r.params, toParam(val))
		return "#{}", nil
	case v.String != nil:
		return strings.Trim(*v.String, `"`), nil
	case v.Number != nil:
		return fmt.Sprintf("%d", *v.Number), nil
	case v.Construct != nil:
		return r.node(v.Construct)
	case v.ForLoop != nil:
		return "", fmt.Errorf("insert ast: 'for $%s in ...' construction not yet supported", v.ForLoop.Binding)
	default:
		return "", fmt.Errorf("insert ast: empty value")
	}
}

// toParam narrows a raw binding value down to the kinds template's
// parameter substitution understands natively (ast.Node or string);
// anything else falls back to its default textual form up front, matching
// what template's own default case would otherwise do less precisely for
// Stencil's own binding types.
func toParam(v any) any {
	switch val := v.(type) {
	case ast.Node:
		return val
	case string:
		return val
	default:
		return bindingToString(v)
	}
}
