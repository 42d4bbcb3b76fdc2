package scope

import "github.com/viant/livepack/ast"

// NonSimpleParameters reports whether a function's parameter list contains a
// default value, destructuring, or rest element — the condition spec.md's
// glossary ties to where a strict-mode directive may legally appear
// (spec.md §4.3, §4.6, glossary "Non-simple parameters").
func NonSimpleParameters(fn *ast.Node) bool {
	params := fn.Field("parameters")
	if params == nil {
		return false
	}
	for _, p := range params.Children() {
		switch p.Kind() {
		case "assignment_pattern", "rest_pattern", "object_pattern", "array_pattern":
			return true
		}
	}
	return false
}

// IsStrict reports whether a scope's own functions must be emitted as
// strict, following spec.md §4.2: by directive (Strict, propagated from
// parent or its own "use strict"), by class membership, or by extends
// clause (every scope created while walking the clause is set Strict=true).
func IsStrict(s *Scope) bool {
	return s != nil && s.Strict
}
