package instrument

import "fmt"

// UnsupportedSyntaxError reports a construct the instrumenter cannot safely
// rewrite, surfaced verbatim rather than guessed at (spec.md §7 "the
// instrumenter never silently drops a capture; anything it can't classify
// statically is reported as an error").
type UnsupportedSyntaxError struct {
	Construct string
	Offset    int
	Detail    string
}

func (e *UnsupportedSyntaxError) Error() string {
	return fmt.Sprintf("instrument: unsupported %s at offset %d: %s", e.Construct, e.Offset, e.Detail)
}
