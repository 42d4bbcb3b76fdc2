package scope

import "github.com/viant/livepack/ast"

// Kind classifies how a binding entered its scope, which in turn decides
// whether it is function-scoped or block-scoped (spec.md §4.2).
type Kind string

const (
	// Var is introduced by `var` and is hoisted to the enclosing function
	// (or program) scope.
	Var Kind = "var"
	// Let is introduced by `let` and is block-scoped.
	Let Kind = "let"
	// Const is introduced by `const` and is block-scoped.
	Const Kind = "const"
	// Param is a function parameter, block-scoped to the function body.
	Param Kind = "param"
	// FunctionDecl is a hoisted function declaration.
	FunctionDecl Kind = "function"
	// ClassDecl is a class declaration, block-scoped, not hoisted.
	ClassDecl Kind = "class"
	// CatchParam is the identifier bound by a catch clause.
	CatchParam Kind = "catch"
)

// Binding is a storage cell: a name visible in one scope, resolved to either
// a plain value slot or, for const/let, a value plus write history (spec.md
// §3 "Scope frames": "a mapping from variable name to binding").
type Binding struct {
	Name   string
	Kind   Kind
	Decl   *ast.Node
	Writes int
}

// RecordWrite increments the binding's write count for every initializer,
// assignment or update the analyzer sees. No other package reads the count.
func (b *Binding) RecordWrite() { b.Writes++ }

// Mutable reports whether the binding's storage cell can be reassigned after
// its initializing declaration. const bindings declared with exactly one
// write are not.
func (b *Binding) Mutable() bool {
	return b.Kind != Const
}
