package valuegraph

import "fmt"

// MissingCaptureError reports a closure produced by uninstrumented source
// that references a free identifier whose value can't be recovered from
// source alone (spec.md §7 "Missing capture").
type MissingCaptureError struct {
	FuncSource string
	Offset     int
	Name       string
}

func (e *MissingCaptureError) Error() string {
	return fmt.Sprintf("valuegraph: missing capture %q for function at offset %d", e.Name, e.Offset)
}

// UnserializableValueError reports a live resource with no structural
// representation: an open handle, a running task, an opaque native object
// (spec.md §7 "Unserializable value").
type UnserializableValueError struct {
	Path []string
	Kind string
}

func (e *UnserializableValueError) Error() string {
	return fmt.Sprintf("valuegraph: unserializable %s value at %s", e.Kind, pathString(e.Path))
}

func pathString(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
