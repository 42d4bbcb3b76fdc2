package scope

import "github.com/viant/livepack/ast"

// Resolution is what the analyzer attaches to every identifier-reference
// node: either a binding found by walking up the scope chain, or Free=true
// when no enclosing scope declares the name (spec.md §4.2 "annotated either
// with (scope, binding-name) or with 'free'").
type Resolution struct {
	Scope   *Scope
	Binding *Binding
	Free    bool
}

// Tree is the output of one Analyze call: the full scope tree for a program,
// plus the resolution recorded for every identifier-reference node
// encountered while building it.
type Tree struct {
	Root        *Scope
	Scopes      []*Scope
	Resolutions map[*ast.Node]*Resolution
}

// ScopeOf returns the innermost Scope enclosing a node's identity, using the
// attachment slot ast.Node reserves for the scope analyzer (spec.md §4.1).
func ScopeOf(n *ast.Node) *Scope {
	if n == nil {
		return nil
	}
	if s, ok := n.Scope.(*Scope); ok {
		return s
	}
	return nil
}

func (t *Tree) addScope(s *Scope) {
	t.Scopes = append(t.Scopes, s)
}

// Resolve looks up name starting at scope, walking up the parent chain. It
// stops (and reports free) the moment it crosses a scope marked HasWith or
// HasDirectEval, because spec.md §4.2/§9 treat everything inside such a scope
// as unresolvable statically regardless of what an outer scope declares.
func (t *Tree) Resolve(scope *Scope, name string) *Resolution {
	for cur := scope; cur != nil; cur = cur.Parent {
		if b, ok := cur.lookupLocal(name); ok {
			return &Resolution{Scope: cur, Binding: b}
		}
		if cur.HasWith || cur.HasDirectEval {
			return &Resolution{Free: true}
		}
	}
	return &Resolution{Free: true}
}

// recordRef resolves an identifier node against scope and stores the result
// both on the node's Binding attachment and in the tree's Resolutions index.
func (t *Tree) recordRef(n *ast.Node, scope *Scope, name string) {
	res := t.Resolve(scope, name)
	n.Binding = res
	if t.Resolutions == nil {
		t.Resolutions = make(map[*ast.Node]*Resolution)
	}
	t.Resolutions[n] = res
}
