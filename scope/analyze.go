package scope

import (
	"fmt"
	"strings"

	"github.com/viant/livepack/ast"
)

// Analyze builds the scope tree for one program and resolves every
// identifier-reference node to a binding or marks it free (spec.md §4.2).
// It is grounded on the teacher's analyzer/node.go tree-walk, adapted from Go
// grammar node kinds to the host language's (JS/JSX) grammar kinds and from
// data-lineage edges to lexical bindings.
func Analyze(prog *ast.Program) (*Tree, error) {
	tree := &Tree{Resolutions: make(map[*ast.Node]*Resolution)}

	root := &Scope{
		ID:     "program",
		Kind:   Program,
		Strict: prog.Dialect() == ast.Module,
	}
	tree.Root = root
	tree.addScope(root)
	root.DeclSite = prog.Root()
	prog.Root().Scope = root

	if hasUseStrictDirective(prog.Root()) {
		root.Strict = true
	}

	w := &walker{tree: tree, counters: map[string]int{}}
	w.hoist(prog.Root(), root)
	w.block(prog.Root().Children(), root)
	return tree, nil
}

type walker struct {
	tree     *Tree
	counters map[string]int
}

func (w *walker) nextID(kind ScopeKind) string {
	w.counters[string(kind)]++
	return fmt.Sprintf("%s#%d", kind, w.counters[string(kind)])
}

func (w *walker) newScope(kind ScopeKind, parent *Scope, decl *ast.Node) *Scope {
	s := &Scope{
		ID:       w.nextID(kind),
		Kind:     kind,
		Parent:   parent,
		DeclSite: decl,
	}
	if decl != nil {
		s.Start, s.End = decl.Start(), decl.End()
		decl.Scope = s
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
		if parent.Strict {
			s.Strict = true
		}
	}
	w.tree.addScope(s)
	return s
}

// hasUseStrictDirective reports whether the first statements of a program or
// function body are "use strict" directive prologues (spec.md §4.2).
func hasUseStrictDirective(body *ast.Node) bool {
	for _, stmt := range body.Children() {
		if stmt.Kind() != "expression_statement" {
			break
		}
		if stmt.NamedChildCount() != 1 {
			break
		}
		expr := stmt.NamedChild(0)
		if expr.Kind() != "string" {
			break
		}
		text := strings.Trim(expr.Text(), `"'`)
		if text == "use strict" {
			return true
		}
		// any other directive-position string keeps scanning the prologue
	}
	return false
}

// hoist pre-declares every var and hoisted function declaration reachable
// from body without crossing a nested function boundary, matching spec.md
// §4.2: "hoists function declarations to the enclosing function/block head;
// treats var declarations as function-scoped".
func (w *walker) hoist(body *ast.Node, scope *Scope) {
	body.Walk(func(n *ast.Node) bool {
		switch n.Kind() {
		case "function_declaration", "generator_function_declaration", "arrow_function", "function", "generator_function", "method_definition", "class_declaration", "class":
			return n == body // don't descend into nested function/class bodies during hoisting
		case "variable_declaration":
			for _, decl := range n.Children() {
				if decl.Kind() != "variable_declarator" {
					continue
				}
				for _, name := range patternNames(decl.Field("name")) {
					scope.nearestVarScope().Declare(name, Var, decl)
				}
			}
		}
		return true
	})
}

// block walks a sequence of statements that share one scope, dispatching
// each by grammar kind (spec.md §4.2/§4.3).
func (w *walker) block(stmts []*ast.Node, scope *Scope) {
	for _, n := range stmts {
		w.statement(n, scope)
	}
}

func (w *walker) statement(n *ast.Node, scope *Scope) {
	n.Scope = scope
	switch n.Kind() {
	case "statement_block":
		w.enterBlock(n, scope)
	case "function_declaration", "generator_function_declaration":
		w.function(n, scope, true)
	case "class_declaration":
		w.class(n, scope, true)
	case "lexical_declaration", "variable_declaration":
		w.declaration(n, scope)
	case "catch_clause":
		w.catch(n, scope)
	case "with_statement":
		w.with(n, scope)
	case "expression_statement", "return_statement", "throw_statement", "if_statement",
		"for_statement", "for_in_statement", "while_statement", "do_statement",
		"switch_statement", "switch_case", "switch_default", "labeled_statement",
		"try_statement", "finally_clause":
		for _, c := range n.Children() {
			w.statement(c, scope)
		}
	case "import_statement":
		w.importStatement(n, scope)
	default:
		w.expression(n, scope)
	}
}

// enterBlock creates a new Block scope only when the block directly declares
// a block-scoped binding; otherwise its statements are walked in the parent
// scope, per spec.md §4.2's minimality rule.
func (w *walker) enterBlock(n *ast.Node, parent *Scope) {
	declares := false
	for _, c := range n.Children() {
		switch c.Kind() {
		case "lexical_declaration", "class_declaration", "function_declaration", "generator_function_declaration":
			declares = true
		}
	}
	target := parent
	if declares {
		target = w.newScope(Block, parent, n)
	}
	for _, c := range n.Children() {
		if c.Kind() == "function_declaration" || c.Kind() == "generator_function_declaration" {
			name := c.Field("name")
			if name != nil {
				target.Declare(name.Text(), FunctionDecl, c)
			}
		}
	}
	w.block(n.Children(), target)
}

func (w *walker) declaration(n *ast.Node, scope *Scope) {
	kindTok := ""
	if n.ChildCount() > 0 {
		kindTok = n.Child(0).Text()
	}
	kind := Var
	switch kindTok {
	case "let":
		kind = Let
	case "const":
		kind = Const
	case "var":
		kind = Var
	}
	for _, decl := range n.Children() {
		if decl.Kind() != "variable_declarator" {
			continue
		}
		names := patternNames(decl.Field("name"))
		target := scope
		if kind == Var {
			target = scope.nearestVarScope()
		}
		var bindings []*Binding
		for _, name := range names {
			bindings = append(bindings, target.Declare(name, kind, decl))
		}
		if value := decl.Field("value"); value != nil {
			w.expression(value, scope)
			for _, b := range bindings {
				b.RecordWrite()
			}
		}
	}
}

func (w *walker) importStatement(n *ast.Node, scope *Scope) {
	root := scope
	for root.Parent != nil {
		root = root.Parent
	}
	n.Walk(func(c *ast.Node) bool {
		switch c.Kind() {
		case "identifier":
			if p := c.Parent(); p != nil {
				switch p.Kind() {
				case "import_clause", "namespace_import", "import_specifier":
					root.Declare(c.Text(), Const, c)
					return false
				}
			}
		}
		return true
	})
}

func (w *walker) function(n *ast.Node, enclosing *Scope, declares bool) *Scope {
	name := n.Field("name")
	if declares && name != nil {
		enclosing.nearestVarScope().Declare(name.Text(), FunctionDecl, n)
	}

	fn := w.newScope(Function, enclosing, n)
	if isStrictByShape(n) {
		fn.Strict = true
	}
	if !declares && name != nil {
		// named function expression: self-reference visible only inside its
		// own body (spec.md §3 function identities; this is the host's own
		// named-function-expression binding, not a hoisted declaration).
		fn.Declare(name.Text(), FunctionDecl, n)
	}

	if params := n.Field("parameters"); params != nil {
		for _, p := range params.Children() {
			w.parameter(p, fn)
		}
	}

	body := n.Field("body")
	if body == nil {
		return fn
	}
	if body.Kind() == "statement_block" {
		if hasUseStrictDirective(body) {
			fn.Strict = true
		}
		w.hoist(body, fn)
		for _, c := range body.Children() {
			if c.Kind() == "function_declaration" || c.Kind() == "generator_function_declaration" {
				if fname := c.Field("name"); fname != nil {
					fn.Declare(fname.Text(), FunctionDecl, c)
				}
			}
		}
		w.block(body.Children(), fn)
	} else {
		// arrow function with a concise (expression) body
		w.expression(body, fn)
	}
	return fn
}

func (w *walker) parameter(p *ast.Node, fn *Scope) {
	switch p.Kind() {
	case "identifier":
		fn.Declare(p.Text(), Param, p)
	case "assignment_pattern":
		left := p.Field("left")
		if left != nil {
			w.parameter(left, fn)
		}
		if right := p.Field("right"); right != nil {
			w.expression(right, fn)
		}
	case "rest_pattern":
		for _, c := range p.Children() {
			w.parameter(c, fn)
		}
	case "object_pattern", "array_pattern":
		for _, name := range patternNames(p) {
			fn.Declare(name, Param, p)
		}
	default:
		for _, name := range patternNames(p) {
			fn.Declare(name, Param, p)
		}
	}
}

func (w *walker) class(n *ast.Node, enclosing *Scope, declares bool) *Scope {
	name := n.Field("name")
	if declares && name != nil {
		enclosing.Declare(name.Text(), ClassDecl, n)
	}
	if heritage := n.Field("superclass"); heritage != nil {
		first := len(w.tree.Scopes)
		w.expression(heritage, enclosing)
		for _, s := range w.tree.Scopes[first:] {
			s.Strict = true // an extends clause is strict code
		}
	}

	cls := w.newScope(Class, enclosing, n)
	cls.Strict = true
	if name != nil {
		cls.Declare(name.Text(), ClassDecl, n)
	}

	body := n.Field("body")
	if body == nil {
		return cls
	}
	for _, member := range body.Children() {
		switch member.Kind() {
		case "method_definition":
			w.classMember(member, cls, enclosing)
		case "field_definition", "public_field_definition":
			w.classField(member, cls, enclosing)
		}
	}
	return cls
}

func (w *walker) classMember(n *ast.Node, cls, outer *Scope) {
	keyScope := cls
	if key := n.Field("name"); key != nil && key.Kind() == "computed_property_name" {
		keyScope = w.newScope(ClassKey, outer, key)
		w.expression(key, keyScope)
	}
	_ = keyScope
	fn := w.newScope(Function, cls, n)
	fn.Strict = true
	if params := n.Field("parameters"); params != nil {
		for _, p := range params.Children() {
			w.parameter(p, fn)
		}
	}
	if body := n.Field("body"); body != nil {
		w.hoist(body, fn)
		w.block(body.Children(), fn)
	}
}

func (w *walker) classField(n *ast.Node, cls, outer *Scope) {
	if key := n.Field("name"); key != nil && key.Kind() == "computed_property_name" {
		keyScope := w.newScope(ClassKey, outer, key)
		w.expression(key, keyScope)
	}
	if value := n.Field("value"); value != nil {
		w.expression(value, cls)
	}
}

func (w *walker) catch(n *ast.Node, enclosing *Scope) *Scope {
	c := w.newScope(Catch, enclosing, n)
	if param := n.Field("parameter"); param != nil {
		for _, name := range patternNames(param) {
			c.Declare(name, CatchParam, param)
		}
	}
	if body := n.Field("body"); body != nil {
		w.hoist(body, c)
		w.block(body.Children(), c)
	}
	return c
}

func (w *walker) with(n *ast.Node, enclosing *Scope) *Scope {
	ws := w.newScope(With, enclosing, n)
	ws.HasWith = true
	if object := n.Field("object"); object != nil {
		w.expression(object, enclosing)
	}
	if body := n.Field("body"); body != nil {
		w.statement(body, ws)
	}
	return ws
}

// expression walks an expression (or any node not recognized as a
// statement-level form), resolving identifier references and recursing into
// children, with special handling for constructs that are not plain
// free-name references: member property names, direct eval, function and
// class expressions.
func (w *walker) expression(n *ast.Node, scope *Scope) {
	if n == nil {
		return
	}
	n.Scope = scope
	switch n.Kind() {
	case "identifier", "shorthand_property_identifier":
		w.tree.recordRef(n, scope, n.Text())
		return
	case "assignment_expression":
		left := n.Field("left")
		right := n.Field("right")
		if right != nil {
			w.expression(right, scope)
		}
		if left != nil {
			w.expression(left, scope)
			if res, ok := w.tree.Resolutions[left]; ok && !res.Free {
				res.Binding.RecordWrite()
			}
		}
		return
	case "update_expression":
		arg := n.Field("argument")
		w.expression(arg, scope)
		if res, ok := w.tree.Resolutions[arg]; ok && !res.Free {
			res.Binding.RecordWrite()
		}
		return
	case "member_expression":
		w.expression(n.Field("object"), scope)
		return
	case "subscript_expression":
		w.expression(n.Field("object"), scope)
		w.expression(n.Field("index"), scope)
		return
	case "call_expression":
		callee := n.Field("function")
		if callee != nil && callee.Kind() == "identifier" && callee.Text() == "eval" {
			if res := w.tree.Resolve(scope, "eval"); res.Free {
				scope.HasDirectEval = true
			}
		}
		w.expression(callee, scope)
		if args := n.Field("arguments"); args != nil {
			for _, a := range args.Children() {
				w.expression(a, scope)
			}
		}
		return
	case "function", "generator_function":
		w.function(n, scope, false)
		return
	case "arrow_function":
		w.function(n, scope, false)
		return
	case "class":
		w.class(n, scope, false)
		return
	case "with_statement":
		w.with(n, scope)
		return
	case "statement_block":
		w.enterBlock(n, scope)
		return
	}
	for _, c := range n.Children() {
		w.expression(c, scope)
	}
}

// isStrictByShape reports whether a function is strict solely because of its
// own shape, independent of directives: a class method/constructor (spec.md
// §4.2). Scopes created inside an extends clause are marked strict by class,
// and directive- and enclosing-scope-driven strictness is layered on
// separately by the caller.
func isStrictByShape(n *ast.Node) bool {
	p := n.Parent()
	return p != nil && (p.Kind() == "method_definition")
}

// patternNames flattens identifier, object, array, and assignment patterns
// into the list of names they bind, used for destructuring declarators,
// parameters, and catch clauses alike.
func patternNames(n *ast.Node) []string {
	if n == nil {
		return nil
	}
	var names []string
	switch n.Kind() {
	case "identifier":
		names = append(names, n.Text())
	case "assignment_pattern":
		names = append(names, patternNames(n.Field("left"))...)
	case "rest_pattern":
		for _, c := range n.Children() {
			names = append(names, patternNames(c)...)
		}
	case "object_pattern":
		for _, c := range n.Children() {
			switch c.Kind() {
			case "shorthand_property_identifier_pattern":
				names = append(names, c.Text())
			case "pair_pattern":
				names = append(names, patternNames(c.Field("value"))...)
			case "rest_pattern":
				names = append(names, patternNames(c)...)
			default:
				names = append(names, patternNames(c)...)
			}
		}
	case "array_pattern":
		for _, c := range n.Children() {
			names = append(names, patternNames(c)...)
		}
	}
	return names
}
