// Package instrument rewrites host-language source so every function it
// defines registers itself, and the scopes enclosing it, with a runtime
// tracker before the host's module loader ever runs the result (spec.md
// §4.3). It never changes program behavior; every insertion is a statement
// that records bookkeeping, an expression wrapper that returns its own
// argument unchanged, or a replacement of a direct eval, super member access
// or with-nested closure by an equivalent form.
package instrument

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/livepack/ast"
	"github.com/viant/livepack/scope"
	"github.com/viant/livepack/tracker"
)

// Instrument rewrites src and returns the instrumented source together with
// the static metadata the tracker and, later, the emitter need for every
// function it found (spec.md §4.1 "Output: rewritten source plus metadata").
// Instrumenting already-instrumented source returns it unchanged (spec.md
// §8 idempotence).
func Instrument(src []byte, opts ...Option) (string, *InfoBlob, error) {
	if alreadyInstrumented(src) {
		return string(src), newInfoBlob(""), nil
	}

	cfg := newConfig(opts...)

	prog, err := ast.Parse(src, cfg.dialect)
	if err != nil {
		return "", nil, err
	}

	tree, err := scope.Analyze(prog)
	if err != nil {
		return "", nil, err
	}
	if cfg.startStrict {
		for _, s := range tree.Scopes {
			s.Strict = true
		}
	}

	namespace := chooseNamespace(prog)
	if cfg.trackerHandle == "" {
		cfg.trackerHandle = namespace
	}
	blob := newInfoBlob(namespace)

	varOf := map[*scope.Scope]string{}
	var insertions []insertion
	scopeIndex := 0

	for _, s := range tree.Scopes {
		anchor, ok := frameAnchor(s)
		if !ok {
			continue
		}

		parentVar := "null"
		hasParent := false
		if s.Parent != nil {
			if chain := scopeChainVars(s.Parent, varOf); len(chain) > 0 {
				parentVar = chain[0]
				hasParent = true
			}
		}

		varName := fmt.Sprintf("%s_s%d", namespace, scopeIndex)
		scopeIndex++
		varOf[s] = varName

		stmt := fmt.Sprintf("var %s = %s.scope(%s, %s, %v);\n",
			varName, cfg.trackerHandle, strconv.Quote(string(s.ID)), parentVar, hasParent)
		if s.Kind == scope.Program {
			stmt = marker + "\n" + stmt
			if cfg.hasParentScope {
				stmt = fmt.Sprintf("%s\nvar %s = %s.scope(%s, %s, true);\n",
					marker, varName, cfg.trackerHandle, strconv.Quote(string(s.ID)), strconv.Quote(cfg.parentScope))
			}
		}
		insertions = append(insertions, insertion{At: anchor, Text: stmt, Seq: 0})
	}

	funcCounter := 0
	for _, s := range tree.Scopes {
		if s.Kind != scope.Function || s.DeclSite == nil {
			continue
		}
		n := s.DeclSite
		switch n.Kind() {
		case "function_declaration", "generator_function_declaration", "function",
			"generator_function", "arrow_function", "method_definition":
		default:
			continue
		}

		funcCounter++
		funcID := tracker.FuncID(fmt.Sprintf("func#%d", funcCounter))
		blob.add(buildInfoRecord(n, s, funcID))

		vecLiteral := "[" + strings.Join(scopeChainVars(s, varOf), ", ") + "]"
		idLit := strconv.Quote(string(funcID))

		switch n.Kind() {
		case "function_declaration", "generator_function_declaration":
			nameNode := n.Field("name")
			if nameNode == nil {
				continue // anonymous default-export function declaration: left unwrapped
			}
			stmt := fmt.Sprintf("\n%s = %s.fn(%s, %s, %s);",
				nameNode.Text(), cfg.trackerHandle, idLit, vecLiteral, nameNode.Text())
			insertions = append(insertions, insertion{At: n.End(), Text: stmt, Seq: 1})

		case "method_definition":
			classBody := n.Parent()
			var classNode *ast.Node
			if classBody != nil {
				classNode = classBody.Parent()
			}
			if classNode == nil || classNode.Kind() != "class_declaration" {
				continue // class-expression methods are left unwrapped: no stable outer name to reassign through
			}
			clsName := classNode.Field("name")
			keyNode := n.Field("name")
			if clsName == nil || keyNode == nil || keyNode.Kind() == "computed_property_name" {
				continue
			}
			home := clsName.Text() + ".prototype"
			target := home + "." + keyNode.Text()
			if strings.HasPrefix(strings.TrimSpace(n.Text()), "static") {
				home = clsName.Text()
				target = home + "." + keyNode.Text()
			}
			if classNode.Field("superclass") != nil {
				insertions = append(insertions, superInsertions(n, home)...)
			}
			stmt := fmt.Sprintf("\n%s = %s.fn(%s, %s, %s);",
				target, cfg.trackerHandle, idLit, vecLiteral, target)
			insertions = append(insertions, insertion{At: classNode.End(), Text: stmt, Seq: 1})

		default: // function / generator_function / arrow_function expressions
			insertions = append(insertions, insertion{
				At:   n.Start(),
				Text: fmt.Sprintf("%s.fn(%s, %s, ", cfg.trackerHandle, idLit, vecLiteral),
				Seq:  0,
			})
			insertions = append(insertions, insertion{At: n.End(), Text: ")", Seq: 2})
		}
	}

	insertions = append(insertions, withInsertions(prog)...)
	insertions = append(insertions, evalInsertions(prog, tree, cfg.trackerHandle, varOf)...)

	return splice(src, insertions), blob, nil
}

// frameAnchor returns the byte offset right after the scope's opening brace,
// the point a `var <id> = tracker.scope(...)` statement is inserted at, and
// false for scopes that never get their own runtime frame: With and ClassKey
// (handled by the with/eval rewrite passes instead, spec.md §4.3), Class
// (its body has no call-time frame of its own), and concise-body arrow
// functions (no statement position exists to insert into; such an arrow's
// captures are described entirely by its enclosing scopes).
func frameAnchor(s *scope.Scope) (int, bool) {
	switch s.Kind {
	case scope.Program:
		return s.DeclSite.Start(), true
	case scope.Function:
		body := s.DeclSite.Field("body")
		if body == nil || body.Kind() != "statement_block" {
			return 0, false
		}
		return body.Start() + 1, true
	case scope.Block:
		return s.DeclSite.Start() + 1, true
	case scope.Catch:
		body := s.DeclSite.Field("body")
		if body == nil {
			return 0, false
		}
		return body.Start() + 1, true
	default:
		return 0, false
	}
}

// scopeChainVars collects the registered frame variable names visible from
// s outward, starting with s itself, skipping any ancestor that has no frame
// of its own (With, ClassKey, Class, concise-body arrows).
func scopeChainVars(s *scope.Scope, varOf map[*scope.Scope]string) []string {
	var out []string
	for cur := s; cur != nil; cur = cur.Parent {
		if v, ok := varOf[cur]; ok {
			out = append(out, v)
		}
	}
	return out
}

func buildInfoRecord(n *ast.Node, s *scope.Scope, id tracker.FuncID) *InfoRecord {
	body := n.Field("body")
	if body == nil {
		body = n
	}

	bound := collectLocalBindings(s)
	usesThis, usesArguments, usesNewTarget, usesSuper := scanThisLike(body)

	name := ""
	if nameNode := n.Field("name"); nameNode != nil {
		name = nameNode.Text()
	}

	paramsText := ""
	if p := n.Field("parameters"); p != nil {
		paramsText = p.Text()
	} else if p := n.Field("parameter"); p != nil {
		paramsText = p.Text()
	}

	return &InfoRecord{
		FuncID:          id,
		Kind:            funcKind(n),
		Strict:          s.Strict,
		NonSimpleParams: scope.NonSimpleParameters(n),
		UsesThis:        usesThis,
		UsesArguments:   usesArguments,
		UsesNewTarget:   usesNewTarget,
		UsesSuper:       usesSuper,
		UsesDirectEval:  s.HasDirectEval,
		FreeNames:       freeNameUses(body, bound),
		Source:          n.Text(),
		ParamsText:      paramsText,
		Name:            name,
	}
}

// funcKind classifies a function-like node's surface shape so the emitter
// can later reconstruct the right syntax.
func funcKind(n *ast.Node) FuncKind {
	async := strings.HasPrefix(strings.TrimSpace(n.Text()), "async")
	switch n.Kind() {
	case "arrow_function":
		return KindArrow
	case "generator_function_declaration", "generator_function":
		if async {
			return KindAsyncGenerator
		}
		return KindGenerator
	case "method_definition":
		if keyNode := n.Field("name"); keyNode != nil && keyNode.Text() == "constructor" {
			return KindClassConstructor
		}
		return KindMethod
	default:
		if async {
			return KindAsync
		}
		return KindFunction
	}
}

// collectLocalBindings gathers every binding visible inside a function's own
// frame: its own bindings, plus those of nested Block/Catch/With/ClassKey
// scopes, which share the same frame tree and are therefore not free
// relative to this function. Nested Function and Class scopes are excluded
// since they register and account for their own free names independently.
func collectLocalBindings(s *scope.Scope) map[string]bool {
	bound := map[string]bool{}
	var walk func(*scope.Scope)
	walk = func(cur *scope.Scope) {
		for name := range cur.Bindings {
			bound[name] = true
		}
		for _, child := range cur.Children {
			switch child.Kind {
			case scope.Block, scope.Catch, scope.With, scope.ClassKey:
				walk(child)
			}
		}
	}
	walk(s)
	return bound
}

// scanThisLike walks a function body collecting whether it references this,
// arguments, super, or new.target directly, stopping at any nested node that
// introduces its own binding for them (ordinary functions and methods, but
// not arrow functions, which inherit all four from their enclosing scope).
func scanThisLike(body *ast.Node) (usesThis, usesArguments, usesNewTarget, usesSuper bool) {
	var walk func(n *ast.Node)
	walk = func(n *ast.Node) {
		switch n.Kind() {
		case "this":
			usesThis = true
			return
		case "super":
			usesSuper = true
			return
		case "new_target", "meta_property":
			if n.Text() == "new.target" {
				usesNewTarget = true
			}
			return
		case "identifier":
			if n.Text() == "arguments" {
				usesArguments = true
			}
			return
		case "function_declaration", "function", "generator_function",
			"generator_function_declaration", "method_definition":
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(body)
	return
}
