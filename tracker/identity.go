// Package tracker implements the runtime tracker (spec.md §4.4): a small,
// process-wide registry that instrumented code calls to record scope frames
// and function identities, producing the capture metadata the serializer
// later reads back out.
package tracker

import "github.com/google/uuid"

// ScopeID identifies one runtime activation of a scope, minted fresh by
// RegisterScope (spec.md §4.4 "register scope: returns a fresh identifier
// for the current activation of a scope").
type ScopeID string

// FuncID identifies a function literal at compile time — stable across every
// call that evaluates the same source function, unlike ScopeID (spec.md §3
// "Every function literal in instrumented source is assigned a compile-time
// identity"). It is minted once by the instrumenter, not by the tracker.
type FuncID string

// NewScopeID mints a fresh, collision-free scope activation identifier.
// uuid.New is a cheap source of the tracker's only identities that must be
// unique across the life of the process without any shared counter needing
// synchronization (spec.md §5: the registry needs no locking because its own
// state is idempotent and single-threaded).
func NewScopeID() ScopeID {
	return ScopeID(uuid.New().String())
}
