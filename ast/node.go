// Package ast provides a uniform tagged-tree representation of host-language
// source, built on top of a tree-sitter grammar, with byte-accurate round
// trip for any span a later pass does not touch.
package ast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Trivia is a run of whitespace or comment text attached to a Node.
type Trivia struct {
	Text  string
	Start int
	End   int
}

// Attachments are the three slots §4.1 reserves for later passes: the
// enclosing scope, binding resolution for identifier nodes, and synthesized
// insertions from the instrumenter. They are opaque to this package so that
// scope and instrument can own their own types without an import cycle.
type Attachments struct {
	Scope      interface{} // *scope.Scope once the scope analyzer has run
	Binding    interface{} // *scope.Resolution for identifier-reference nodes
	Synthetic  interface{} // instrumenter-owned insertion records
}

// Node is one tagged tree node. It wraps the underlying tree-sitter node
// lazily so that Kind/Start/End/Children are cheap, while Text always goes
// back to the original source bytes rather than a cached copy, which is what
// keeps byte-accurate round trip free.
type Node struct {
	raw     *sitter.Node
	program *Program

	Leading  []Trivia
	Trailing []Trivia

	Attachments
}

// Kind returns the grammar node type, e.g. "function_declaration",
// "arrow_function", "with_statement".
func (n *Node) Kind() string {
	if n == nil || n.raw == nil {
		return ""
	}
	return n.raw.Type()
}

// Start and End are byte offsets into the program's source.
func (n *Node) Start() int { return int(n.raw.StartByte()) }
func (n *Node) End() int   { return int(n.raw.EndByte()) }

// Text returns the exact source text spanned by the node.
func (n *Node) Text() string {
	return string(n.program.source[n.Start():n.End()])
}

// IsNamed mirrors tree-sitter's named/anonymous node distinction (punctuation
// and keywords are anonymous; grammar productions are named).
func (n *Node) IsNamed() bool { return n.raw.IsNamed() }

// ChildCount returns the number of immediate children, named and anonymous.
func (n *Node) ChildCount() int { return int(n.raw.ChildCount()) }

// Child returns the i-th immediate child, wrapping it into the same Program.
func (n *Node) Child(i int) *Node { return n.program.wrap(n.raw.Child(i)) }

// NamedChildCount returns the number of named children.
func (n *Node) NamedChildCount() int { return int(n.raw.NamedChildCount()) }

// NamedChild returns the i-th named child.
func (n *Node) NamedChild(i int) *Node { return n.program.wrap(n.raw.NamedChild(i)) }

// Field returns the child bound to the given grammar field name, or nil.
func (n *Node) Field(name string) *Node { return n.program.wrap(n.raw.ChildByFieldName(name)) }

// Parent returns the enclosing node, or nil at the program root.
func (n *Node) Parent() *Node { return n.program.wrap(n.raw.Parent()) }

// Children returns all named children as a slice, the common iteration shape
// used throughout scope and instrument.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, n.NamedChildCount())
	for i := 0; i < n.NamedChildCount(); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// Walk visits n and every descendant in pre-order, depth first. visit
// returning false skips the subtree rooted at the current node.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := 0; i < n.ChildCount(); i++ {
		n.Child(i).Walk(visit)
	}
}
