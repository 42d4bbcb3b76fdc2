package instrument

import (
	"fmt"
	"strings"

	"github.com/viant/livepack/ast"
)

const basePrefix = "__lp"

// namespace picks the internal identifier prefix the instrumenter uses for
// every identifier it introduces (scope variables, the runtime tracker
// handle, info-record references). Spec.md §4.3: "All identifiers the
// instrumenter introduces share a single prefix; if user code already binds
// an identifier in that prefix, the instrumenter renumbers its own
// identifiers to avoid collision before emission."
func chooseNamespace(prog *ast.Program) string {
	used := map[string]bool{}
	prog.Root().Walk(func(n *ast.Node) bool {
		if n.Kind() == "identifier" || n.Kind() == "shorthand_property_identifier" {
			used[n.Text()] = true
		}
		return true
	})

	prefix := basePrefix
	for n := 0; used[prefix] || hasPrefixCollision(used, prefix); n++ {
		prefix = fmt.Sprintf("%s%d", basePrefix, n)
	}
	return prefix
}

// hasPrefixCollision reports whether any identifier in use already starts
// with candidate, which would make later disambiguation by suffixing the
// tracker's own generated names ambiguous against user code.
func hasPrefixCollision(used map[string]bool, candidate string) bool {
	for name := range used {
		if strings.HasPrefix(name, candidate) {
			return true
		}
	}
	return false
}
