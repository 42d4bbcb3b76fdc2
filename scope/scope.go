package scope

import "github.com/viant/livepack/ast"

// ScopeKind names the syntactic form that produced a Scope (spec.md §4.2:
// "one scope for the program, one per function body, one per catch clause,
// one per block that declares a block-scoped binding, one per class body,
// one per with statement, and one virtual scope per computed class-member
// key").
type ScopeKind string

const (
	Program  ScopeKind = "program"
	Function ScopeKind = "function"
	Block    ScopeKind = "block"
	Catch    ScopeKind = "catch"
	Class    ScopeKind = "class"
	With     ScopeKind = "with"
	ClassKey ScopeKind = "class-key" // computed class member key, evaluated in an intermediate environment
)

// Scope is one lexical scope node in the tree the analyzer builds. It is the
// Go-side counterpart of spec.md §3's "scope frame" declaration site: the
// frame itself is a runtime concept (tracker.Frame); Scope is its static
// shadow, known without running anything.
type Scope struct {
	ID       string
	Kind     ScopeKind
	Parent   *Scope
	Children []*Scope

	Bindings map[string]*Binding

	// Strict is true when every function declared directly in this scope
	// must execute in strict mode (spec.md §4.2 strictness rules).
	Strict bool
	// HasDirectEval marks a scope containing a direct `eval(...)` call not
	// shadowed by a local binding named eval; such scopes defeat static free
	// name resolution for everything nested inside them (spec.md §4.2, §9).
	HasDirectEval bool
	// HasWith marks a scope containing a with statement, which likewise
	// defeats static resolution for names inside its body (spec.md §4.2).
	HasWith bool

	DeclSite   *ast.Node
	Name       string // function/class name when the scope names one, else ""
	Start, End int
}

// Declare registers a new binding in the scope. A redeclaration of the same
// name (e.g. `var` appearing twice) keeps the first Binding so write history
// accumulates on one cell, matching the host's actual storage semantics.
func (s *Scope) Declare(name string, kind Kind, decl *ast.Node) *Binding {
	if s.Bindings == nil {
		s.Bindings = make(map[string]*Binding)
	}
	if existing, ok := s.Bindings[name]; ok {
		return existing
	}
	b := &Binding{Name: name, Kind: kind, Decl: decl}
	s.Bindings[name] = b
	return b
}

// lookupLocal returns the binding declared directly in this scope, if any.
func (s *Scope) lookupLocal(name string) (*Binding, bool) {
	b, ok := s.Bindings[name]
	return b, ok
}

// nearestVarScope walks up to the nearest scope that receives hoisted `var`
// and function declarations: a function or program scope, never a bare
// block, catch, with, or class-key scope (spec.md §4.2 "hoists ... to the
// enclosing function/block head; treats var declarations as function-scoped").
func (s *Scope) nearestVarScope() *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == Function || cur.Kind == Program {
			return cur
		}
	}
	return s
}

// nearestFunctionBoundary walks up to the nearest function or program scope,
// the unit strict-mode directives and non-simple-parameter rules are scoped
// to (spec.md §4.2).
func (s *Scope) nearestFunctionBoundary() *Scope {
	return s.nearestVarScope()
}
