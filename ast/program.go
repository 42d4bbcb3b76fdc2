package ast

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Program is one parsed module or script, the unit the scope analyzer and
// instrumenter each operate on (spec.md §4.2: "Input: AST of one program").
type Program struct {
	source []byte
	tree   *sitter.Tree
	root   *Node
	dialect Dialect

	// cache avoids allocating a new *Node wrapper for every visit of the same
	// underlying tree-sitter node; identity of *Node therefore matches
	// identity of the underlying AST position, which scope/instrument rely on
	// when they index attachments by node pointer.
	cache map[*sitter.Node]*Node
}

// Dialect distinguishes module source (import/export, strict by default)
// from script source (sloppy by default, no import/export), per the
// instrumenter entry point's "module-or-script flag" (spec.md §6).
type Dialect int

const (
	// Script is a classic, non-module source unit.
	Script Dialect = iota
	// Module is an ECMAScript module source unit.
	Module
)

// Root returns the program's top-level node.
func (p *Program) Root() *Node { return p.root }

// Source returns the full original source text.
func (p *Program) Source() []byte { return p.source }

// Dialect reports whether the program was parsed as a module or a script.
func (p *Program) Dialect() Dialect { return p.dialect }

// SliceText returns the source text between two byte offsets, the primitive
// every round-trip guarantee in §4.1 is built from.
func (p *Program) SliceText(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(p.source) {
		end = len(p.source)
	}
	if start >= end {
		return ""
	}
	return string(p.source[start:end])
}

func (p *Program) wrap(raw *sitter.Node) *Node {
	if raw == nil {
		return nil
	}
	if n, ok := p.cache[raw]; ok {
		return n
	}
	n := &Node{raw: raw, program: p}
	p.cache[raw] = n
	return n
}

// ParseError is returned verbatim with position when the underlying grammar
// reports a syntax error, per spec.md §6 ("parse errors are surfaced verbatim
// with position").
type ParseError struct {
	Offset int
	Line   int
	Column int
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d (offset %d): %s", e.Line, e.Column, e.Offset, e.Detail)
}
