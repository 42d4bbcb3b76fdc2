package instrument

import (
	"fmt"

	"github.com/viant/livepack/ast"
	"github.com/viant/livepack/scope"
)

// withInsertions wraps every function-like node declared lexically inside a
// with statement's body in a thin arrow that re-enters the same with binding
// at call time. The with body itself is otherwise left as an opaque source
// block — spec.md §4.3 is explicit that a with body is not rewritten beyond
// what nested closures need to keep working once relocated, since statically
// rewriting arbitrary member accesses inside it would require knowing the
// shape of the bound object, which the instrumenter cannot know ahead of
// time.
func withInsertions(prog *ast.Program) []insertion {
	var out []insertion
	prog.Root().Walk(func(n *ast.Node) bool {
		if n.Kind() != "with_statement" {
			return true
		}
		object := n.Field("object")
		if object == nil {
			return true
		}
		objText := object.Text()

		var walk func(*ast.Node)
		walk = func(cur *ast.Node) {
			switch cur.Kind() {
			// only expression forms are wrapped here: a function_declaration
			// inside a with body still needs its hoisted binding assigned
			// directly, so it keeps using the ordinary reassign-after-declare
			// path instead of being turned into a bare wrapped expression.
			case "function", "generator_function", "arrow_function":
				s := scope.ScopeOf(cur)
				if s == nil || !insideWith(s) {
					return
				}
				out = append(out, insertion{
					At:   cur.Start(),
					Text: "(function(__lpWith){ with(__lpWith){ return (",
					Seq:  -1, // land outside the function-registration wrap, which opens at Seq 0
				})
				out = append(out, insertion{
					At:   cur.End(),
					Text: fmt.Sprintf("); } })(%s)", objText),
					Seq:  3, // land outside the function-registration wrap, which closes at Seq 2
				})
				return
			}
			for _, c := range cur.Children() {
				walk(c)
			}
		}
		if body := n.Field("body"); body != nil {
			walk(body)
		}
		return false
	})
	return out
}

func insideWith(s *scope.Scope) bool {
	for cur := s.Parent; cur != nil; cur = cur.Parent {
		if cur.Kind == scope.With {
			return true
		}
		if cur.Kind == scope.Function || cur.Kind == scope.Program {
			return false
		}
	}
	return false
}
