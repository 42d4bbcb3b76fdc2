package emit

import "fmt"

// NameCollisionError reports that the name allocator could not find a free
// identifier satisfying lexical-scope and reserved-word constraints —
// treated as an internal invariant violation, fatal (spec.md §7).
type NameCollisionError struct {
	Scope string
	Tried int
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("emit: exhausted %d candidate names in scope %q without finding a free one", e.Tried, e.Scope)
}
