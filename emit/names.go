package emit

import "fmt"

// reserved holds the host language's reserved words, which the allocator
// must never hand out as a generated identifier (spec.md §4.6 "Renaming").
var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "new": true, "return": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
	"let": true, "static": true, "enum": true, "await": true, "implements": true,
	"package": true, "protected": true, "interface": true, "private": true,
	"public": true, "null": true, "true": true, "false": true, "arguments": true,
	"eval": true,
}

const mangleAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
const mangleAlphabetTail = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// allocator hands out identifiers for a single emitted scope (the top-level
// IIFE of one file, or one function-rewrite wrapper), avoiding reserved
// words, names already in use nearby, and names the original function reads
// freely (spec.md §4.6 "Renaming").
type allocator struct {
	mangle bool
	prefix string
	used   map[string]bool
	blocked map[string]bool // free names the surrounding function body reads, never shadowed
	next    int
	scope   string
}

func newAllocator(scopeName string, mangle bool, prefix string, blocked map[string]bool) *allocator {
	if blocked == nil {
		blocked = map[string]bool{}
	}
	return &allocator{mangle: mangle, prefix: prefix, used: map[string]bool{}, blocked: blocked, scope: scopeName}
}

// alloc returns a fresh identifier. hint is used verbatim (deduplicated with
// a numeric suffix) when mangle is false; under mangle it is ignored in favor
// of the shortest legal unused name.
func (a *allocator) alloc(hint string) (string, error) {
	if a.mangle {
		return a.allocMangled()
	}
	return a.allocReadable(hint)
}

func (a *allocator) allocReadable(hint string) (string, error) {
	if hint == "" {
		hint = "v"
	}
	candidate := a.prefix + hint
	for attempt := 0; ; attempt++ {
		name := candidate
		if attempt > 0 {
			name = fmt.Sprintf("%s%d", candidate, attempt)
		}
		if !reserved[name] && !a.used[name] && !a.blocked[name] {
			a.used[name] = true
			return name, nil
		}
		if attempt > 1<<20 {
			return "", &NameCollisionError{Scope: a.scope, Tried: attempt}
		}
	}
}

func (a *allocator) allocMangled() (string, error) {
	for tried := 0; tried < 1<<20; tried++ {
		name := mangleName(a.next)
		a.next++
		if reserved[name] || a.used[name] || a.blocked[name] {
			continue
		}
		a.used[name] = true
		return name, nil
	}
	return "", &NameCollisionError{Scope: a.scope, Tried: 1 << 20}
}

// mangleName returns the n-th shortest-legal-name in base-52/62 order: a, b,
// ..., z, A, ..., Z, aa, ba, ..., Za, ab, bb, ... (the first character cycles
// fastest). The first character never uses a digit, matching
// identifier-start grammar.
func mangleName(n int) string {
	first := n % len(mangleAlphabet)
	rest := n / len(mangleAlphabet)
	name := string(mangleAlphabet[first])
	for rest > 0 {
		rest--
		name += string(mangleAlphabetTail[rest%len(mangleAlphabetTail)])
		rest /= len(mangleAlphabetTail)
	}
	return name
}
