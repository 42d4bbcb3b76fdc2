package instrument

import "strings"

// marker is written as a leading comment in every instrumented output and
// checked on the way in, so instrumenting already-instrumented source is a
// no-op (spec.md §8 testable property: "instrumenting already-instrumented
// source is idempotent").
const marker = "/*__lp:instrumented*/"

func alreadyInstrumented(src []byte) bool {
	return strings.HasPrefix(strings.TrimSpace(string(src)), marker)
}
