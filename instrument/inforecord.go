package instrument

import (
	"github.com/viant/livepack/ast"
	"github.com/viant/livepack/tracker"
)

// FuncKind classifies the shape of a function-like node, which the emitter
// later needs to reconstruct the right surface syntax (spec.md §4.6).
type FuncKind string

const (
	KindFunction         FuncKind = "function"
	KindArrow            FuncKind = "arrow"
	KindMethod           FuncKind = "method"
	KindGenerator        FuncKind = "generator"
	KindAsync            FuncKind = "async"
	KindAsyncGenerator   FuncKind = "async-generator"
	KindClassConstructor FuncKind = "constructor"
)

// FreeNameUse records one free identifier a function body refers to and how
// it refers to it. The serializer needs Read/Write/Delete/Typeof distinguished
// because a captured binding that is only ever read can be closed over by
// value in the common case, while a write or delete forces the emitter to
// preserve shared-cell semantics (spec.md §3 "closures capture scopes, not
// values").
type FreeNameUse struct {
	Name   string
	Read   bool
	Write  bool
	Delete bool
	Typeof bool
}

// InfoRecord is everything the runtime tracker and, later, the emitter need
// to know about one function-like node that the instrumenter has processed.
// It is captured once at instrumentation time and threaded through at
// runtime as an opaque per-function payload (spec.md §4.3 "info record").
type InfoRecord struct {
	FuncID          tracker.FuncID
	Kind            FuncKind
	Strict          bool
	NonSimpleParams bool
	UsesThis        bool
	UsesArguments   bool
	UsesNewTarget   bool
	UsesSuper       bool
	UsesDirectEval  bool
	FreeNames       []FreeNameUse
	Source          string // original source text of the function, byte-exact
	ParamsText      string
	Name            string // best-effort display name, may be empty
}

// InfoBlob is the complete output of one Instrument call: the rewritten
// source's companion metadata, keyed by the FuncID the instrumenter minted
// for each function-like node it touched.
type InfoBlob struct {
	Namespace string
	Functions map[tracker.FuncID]*InfoRecord
	Order     []tracker.FuncID // insertion order, for deterministic iteration
}

func newInfoBlob(namespace string) *InfoBlob {
	return &InfoBlob{
		Namespace: namespace,
		Functions: make(map[tracker.FuncID]*InfoRecord),
	}
}

func (b *InfoBlob) add(rec *InfoRecord) {
	b.Functions[rec.FuncID] = rec
	b.Order = append(b.Order, rec.FuncID)
}

// freeNameUses walks a function-like node's body and classifies every free
// (non-locally-bound) identifier reference it contains. bound is the set of
// names the function itself binds (parameters, its own name if a named
// function expression, and anything var/let/const/function-declared directly
// inside it or a non-function descendant scope) — anything not in bound that
// isn't a property key is a free reference, host globals such as Object
// included.
func freeNameUses(body *ast.Node, bound map[string]bool) []FreeNameUse {
	uses := map[string]*FreeNameUse{}
	order := []string{}

	use := func(name string) *FreeNameUse {
		if u, ok := uses[name]; ok {
			return u
		}
		u := &FreeNameUse{Name: name}
		uses[name] = u
		order = append(order, name)
		return u
	}

	var walk func(n *ast.Node, skipFn bool)
	walk = func(n *ast.Node, skipFn bool) {
		switch n.Kind() {
		case "function_declaration", "function", "generator_function",
			"generator_function_declaration", "arrow_function", "method_definition":
			if skipFn {
				return
			}
			// nested function bodies are handled by their own instrumentation
			// pass; don't attribute their free names to this function, but do
			// still walk into their parameter default expressions' surrounding
			// scope is irrelevant here since Instrument visits every function
			// node independently.
			return
		case "identifier":
			name := n.Text()
			if bound[name] {
				return
			}
			parent := n.Parent()
			if parent != nil {
				switch parent.Kind() {
				case "property_identifier":
					return
				}
				if isPropertyKeyPosition(n, parent) {
					return
				}
			}
			u := use(name)
			if isAssignmentTarget(n, parent) {
				u.Write = true
			} else if isDeleteOperand(n, parent) {
				u.Delete = true
			} else if isTypeofOperand(n, parent) {
				u.Typeof = true
			} else {
				u.Read = true
			}
		}
		for _, c := range n.Children() {
			walk(c, false)
		}
	}
	walk(body, true)

	result := make([]FreeNameUse, 0, len(order))
	for _, name := range order {
		result = append(result, *uses[name])
	}
	return result
}

func isPropertyKeyPosition(n, parent *ast.Node) bool {
	if parent.Kind() != "member_expression" && parent.Kind() != "pair" {
		return false
	}
	if parent.Kind() == "member_expression" {
		prop := parent.Field("property")
		return prop != nil && prop.Start() == n.Start()
	}
	key := parent.Field("key")
	return key != nil && key.Start() == n.Start()
}

func isAssignmentTarget(n, parent *ast.Node) bool {
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "assignment_expression":
		left := parent.Field("left")
		return left != nil && left.Start() == n.Start()
	case "augmented_assignment_expression":
		left := parent.Field("left")
		return left != nil && left.Start() == n.Start()
	case "update_expression":
		return true
	}
	return false
}

func isDeleteOperand(n, parent *ast.Node) bool {
	if parent == nil || parent.Kind() != "unary_expression" {
		return false
	}
	return parent.Text() != "" && len(parent.Text()) > 6 && parent.Text()[:6] == "delete"
}

func isTypeofOperand(n, parent *ast.Node) bool {
	if parent == nil || parent.Kind() != "unary_expression" {
		return false
	}
	return len(parent.Text()) > 6 && parent.Text()[:6] == "typeof"
}
