package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/viant/livepack/ast"
	"github.com/viant/livepack/instrument"
	"github.com/viant/livepack/scope"
)

// textEdit is a byte-range replacement, the same shape instrument's splice
// works from, kept as a small local copy since instrument does not export it
// (spec.md §4.6 "function source rewriting").
type textEdit struct {
	at, end int
	text    string
}

func applyEdits(src string, edits []textEdit) string {
	if len(edits) == 0 {
		return src
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].at < edits[j].at })
	var b strings.Builder
	last := 0
	for _, e := range edits {
		if e.at < last {
			continue // overlapping edit, keep the first
		}
		b.WriteString(src[last:e.at])
		b.WriteString(e.text)
		last = e.end
	}
	b.WriteString(src[last:])
	return b.String()
}

// wrapForParse brackets a captured function/method source fragment in just
// enough syntax to make it a parseable, free-standing program: a
// parenthesized expression for function/arrow literals, a class expression
// body for a bare method or constructor (method_definition syntax is not
// valid outside a class or object literal body).
func wrapForParse(src string, kind instrument.FuncKind) (wrapped string, prefixLen int) {
	if kind == instrument.KindMethod || kind == instrument.KindClassConstructor {
		// A class body, not an object literal: analyze's object-literal walk
		// never opens a Function scope for a bare method_definition (only
		// class bodies do, via classMember), so wrapping in an object would
		// silently skip parameter/this binding for the re-parsed method.
		return "(class {" + src + "})", len("(class {")
	}
	return "(" + src + ")", len("(")
}

func isFuncLikeKind(k string) bool {
	switch k {
	case "function_declaration", "generator_function_declaration", "function",
		"generator_function", "arrow_function", "method_definition":
		return true
	}
	return false
}

// locateWrapped finds the function-like node the wrapping introduced, by its
// known start offset — the one position nothing else in the tiny wrapper can
// coincide with.
func locateWrapped(root *ast.Node, start int) *ast.Node {
	var found *ast.Node
	root.Walk(func(n *ast.Node) bool {
		if found != nil {
			return false
		}
		if n.Start() == start && isFuncLikeKind(n.Kind()) {
			found = n
			return false
		}
		return true
	})
	return found
}

// rewriteCapturedSource substitutes every free identifier in a closure's
// captured source text that a reachable frame binds with a property access
// into that frame's emitted representation (spec.md §4.6 "Function source
// rewriting": "every free identifier the info record lists is rewritten, in
// the function's own source text, into a read of the corresponding captured
// binding"). frameRefFor resolves one free name to the expression text that
// should replace it; a name it doesn't recognize (a genuine host global, or
// one already satisfied by the emitted lexical environment) is left alone.
//
// It falls back to returning src unchanged, with ok=false, when the captured
// fragment does not parse standalone even after wrapping — grounds for the
// caller to fall back to verbatim source-only emission rather than fail the
// whole unit (spec.md §4.3 "unknown syntactic constructs ... pass through
// unmodified").
func rewriteCapturedSource(src string, kind instrument.FuncKind, frameRefFor func(name string) (string, bool)) (string, bool) {
	wrapped, prefixLen := wrapForParse(src, kind)
	prog, err := ast.Parse([]byte(wrapped), ast.Script)
	if err != nil {
		return src, false
	}
	tree, err := scope.Analyze(prog)
	if err != nil {
		return src, false
	}
	_ = tree

	fn := locateWrapped(prog.Root(), prefixLen)
	if fn == nil {
		return src, false
	}

	var edits []textEdit
	fn.Walk(func(n *ast.Node) bool {
		if n.Kind() != "identifier" {
			return true
		}
		res, ok := n.Binding.(*scope.Resolution)
		if !ok || res == nil || !res.Free {
			return true
		}
		ref, known := frameRefFor(n.Text())
		if !known {
			return true
		}
		edits = append(edits, textEdit{at: n.Start() - prefixLen, end: n.End() - prefixLen, text: ref})
		return true
	})

	return applyEdits(src, edits), true
}

// rewriteSuperInSource rewrites every super.x, super.x(...), and bare
// super(...) use in a captured method or constructor body into the
// reflective form its lifted, classless reconstruction needs to keep
// running: memberHome is the object super.x resolves against (what a real
// engine would read off the method's [[HomeObject]]), ctorHome is the
// constructor function a bare super(...) call forwards to. Mirrors
// instrument's own superInsertions, but runs over the captured fragment
// alone, using the emission-time home expressions rather than the original
// declared class name (spec.md §4.6, reflective class reconstruction).
func rewriteSuperInSource(src string, kind instrument.FuncKind, memberHome, ctorHome string) (string, bool) {
	wrapped, prefixLen := wrapForParse(src, kind)
	prog, err := ast.Parse([]byte(wrapped), ast.Script)
	if err != nil {
		return src, false
	}
	fn := locateWrapped(prog.Root(), prefixLen)
	if fn == nil {
		return src, false
	}

	var edits []textEdit
	var walk func(*ast.Node)
	walk = func(cur *ast.Node) {
		switch cur.Kind() {
		case "function_declaration", "function", "generator_function",
			"generator_function_declaration", "arrow_function", "method_definition":
			if cur != fn {
				return // nested function: its own super, if any, binds to its own home
			}
		case "member_expression":
			obj := cur.Field("object")
			if obj != nil && obj.Kind() == "super" {
				if prop := cur.Field("property"); prop != nil {
					repl := fmt.Sprintf("Object.getPrototypeOf(%s).%s", memberHome, prop.Text())
					edits = append(edits, textEdit{at: cur.Start() - prefixLen, end: cur.End() - prefixLen, text: repl})
					return
				}
			}
		case "call_expression":
			callee := cur.Field("function")
			if callee == nil {
				break
			}
			if callee.Kind() == "super" {
				if args := cur.Field("arguments"); args != nil {
					inner := superCallArgs(args.Text())
					repl := fmt.Sprintf("Object.getPrototypeOf(%s).call(this%s%s)", ctorHome, superCommaIfNonEmpty(inner), inner)
					edits = append(edits, textEdit{at: cur.Start() - prefixLen, end: cur.End() - prefixLen, text: repl})
					return
				}
			}
			if callee.Kind() == "member_expression" {
				obj := callee.Field("object")
				if obj != nil && obj.Kind() == "super" {
					prop := callee.Field("property")
					args := cur.Field("arguments")
					if prop != nil && args != nil {
						inner := superCallArgs(args.Text())
						repl := fmt.Sprintf("Object.getPrototypeOf(%s).%s.call(this%s%s)",
							memberHome, prop.Text(), superCommaIfNonEmpty(inner), inner)
						edits = append(edits, textEdit{at: cur.Start() - prefixLen, end: cur.End() - prefixLen, text: repl})
						return
					}
				}
			}
		}
		for _, c := range cur.Children() {
			walk(c)
		}
	}
	walk(fn)

	return applyEdits(src, edits), true
}

func superCallArgs(argsText string) string {
	if len(argsText) < 2 {
		return argsText
	}
	return argsText[1 : len(argsText)-1]
}

func superCommaIfNonEmpty(s string) string {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' {
			return ", "
		}
	}
	return ""
}

// splitFunctionSource re-parses a rewritten method/constructor fragment (raw
// text like "constructor(x) { ... }", not valid standalone function syntax)
// and pulls out its parameter list and body text so the emitter can
// reassemble it as a plain function expression (spec.md §4.6, reflective
// class reconstruction: methods become ordinary functions assigned onto a
// prototype object rather than real class syntax).
func splitFunctionSource(rewritten string, kind instrument.FuncKind) (params, body string, ok bool) {
	wrapped := "(class {" + rewritten + "})"
	prefixLen := len("(class {")
	prog, err := ast.Parse([]byte(wrapped), ast.Script)
	if err != nil {
		return "", "", false
	}
	fn := locateWrapped(prog.Root(), prefixLen)
	if fn == nil {
		return "", "", false
	}
	paramsNode := fn.Field("parameters")
	bodyNode := fn.Field("body")
	if paramsNode == nil || bodyNode == nil {
		return "", "", false
	}
	return paramsNode.Text(), bodyNode.Text(), true
}
