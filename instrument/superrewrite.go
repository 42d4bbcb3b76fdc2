package instrument

import (
	"fmt"

	"github.com/viant/livepack/ast"
)

// superInsertions rewrites super.member reads and super.member(...) calls
// into reflective lookups against the method's home object, so the method
// body keeps working once it is lifted out of its class and re-emitted
// elsewhere (spec.md §4.3: "rewrites super.x / super.x(...) to reflective
// operators"). Bare super(...) constructor calls are left untouched: they
// only ever forward to the parent constructor, which the emitter's class
// reconstruction (spec.md §4.5/§4.6) replays by rebuilding the prototype
// chain directly rather than by re-running source.
func superInsertions(n *ast.Node, home string) []insertion {
	if home == "" {
		return nil
	}
	var out []insertion
	var walk func(*ast.Node)
	walk = func(cur *ast.Node) {
		switch cur.Kind() {
		case "function_declaration", "function", "generator_function",
			"generator_function_declaration", "arrow_function", "method_definition":
			if cur != n {
				return // nested function: its own super, if any, binds to its own home
			}
		case "member_expression":
			obj := cur.Field("object")
			if obj != nil && obj.Kind() == "super" {
				prop := cur.Field("property")
				if prop != nil {
					repl := fmt.Sprintf("Object.getPrototypeOf(%s).%s", home, prop.Text())
					out = append(out, insertion{At: cur.Start(), End: cur.End(), Text: repl})
					return
				}
			}
		case "call_expression":
			callee := cur.Field("function")
			if callee != nil && callee.Kind() == "member_expression" {
				obj := callee.Field("object")
				if obj != nil && obj.Kind() == "super" {
					prop := callee.Field("property")
					args := cur.Field("arguments")
					if prop != nil && args != nil {
						argsText := args.Text()
						inner := argsText
						if len(argsText) >= 2 {
							inner = argsText[1 : len(argsText)-1]
						}
						repl := fmt.Sprintf("Object.getPrototypeOf(%s).%s.call(this%s%s)",
							home, prop.Text(), commaIfNonEmpty(inner), inner)
						out = append(out, insertion{At: cur.Start(), End: cur.End(), Text: repl})
						return
					}
				}
			}
		}
		for _, c := range cur.Children() {
			walk(c)
		}
	}
	walk(n)
	return out
}

func commaIfNonEmpty(s string) string {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' {
			return ", "
		}
	}
	return ""
}
