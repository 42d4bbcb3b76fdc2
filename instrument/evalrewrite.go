package instrument

import (
	"fmt"
	"strings"

	"github.com/viant/livepack/ast"
	"github.com/viant/livepack/scope"
)

// evalInsertions replaces every direct eval(...) call with a call into the
// runtime tracker's instrumented-eval entry point, carrying the strictness
// and enclosing-scope context the evaluated source must observe (spec.md
// §4.3 "eval handling", §4.4 "instrumented eval"). Indirect eval — any call
// where the callee isn't literally the free identifier eval — is left
// completely untouched, since the host treats it as an ordinary function
// call evaluated in the global scope regardless of what the instrumenter
// does here.
func evalInsertions(prog *ast.Program, tree *scope.Tree, trackerHandle string, varOf map[*scope.Scope]string) []insertion {
	var out []insertion
	prog.Root().Walk(func(n *ast.Node) bool {
		if n.Kind() != "call_expression" {
			return true
		}
		callee := n.Field("function")
		if callee == nil || callee.Kind() != "identifier" || callee.Text() != "eval" {
			return true
		}
		s := scope.ScopeOf(n)
		if s == nil {
			return true
		}
		if res := tree.Resolve(s, "eval"); !res.Free {
			return true // shadowed: an ordinary call to a local binding named eval
		}
		args := n.Field("arguments")
		if args == nil || args.NamedChildCount() == 0 {
			return true // eval() with no argument is a no-op; leave it
		}
		arg := args.NamedChild(0)

		scopeVar := "null"
		hasParent := false
		if chain := scopeChainVars(s, varOf); len(chain) > 0 {
			scopeVar = chain[0]
			hasParent = true
		}

		replacement := fmt.Sprintf("%s.instrumentedEval(%s, {strict: %v, scope: %s, hasParent: %v})",
			trackerHandle, strings.TrimSpace(arg.Text()), s.Strict, scopeVar, hasParent)
		out = append(out, insertion{At: n.Start(), End: n.End(), Text: replacement})
		return false // don't descend into the argument a second time
	})
	return out
}
