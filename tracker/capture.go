package tracker

// ClosureKey identifies one concrete closure instance for the lifetime of a
// process. The embedding host supplies it (e.g. a pointer to its own
// function object); the tracker never constructs one itself, matching
// spec.md §4.4's "associating it with a capture descriptor the serializer
// can later look up using the host function as a key".
type ClosureKey interface{}

// CaptureDescriptor is the record spec.md's glossary defines: "the
// tracker-side record that associates a host function value with the scope
// frames it observes and the compile-time identity that names its source."
type CaptureDescriptor struct {
	FuncID FuncID
	Scopes []ScopeID

	// Info is the instrumenter's info record for FuncID (spec.md §4.3). It is
	// opaque here to keep tracker independent of instrument; callers that
	// need the structured form type-assert it back (instrument.InfoRecord
	// implements this by construction).
	Info interface{}
}

// sameCapture reports whether re-registering key with (id, scopeIDs) would be
// a pure duplicate of an existing descriptor (spec.md §5 idempotence).
func sameCapture(existing *CaptureDescriptor, id FuncID, scopeIDs []ScopeID) bool {
	if existing == nil || existing.FuncID != id || len(existing.Scopes) != len(scopeIDs) {
		return false
	}
	for i, s := range scopeIDs {
		if existing.Scopes[i] != s {
			return false
		}
	}
	return true
}
