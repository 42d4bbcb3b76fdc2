// Package host models live values of the instrumented runtime the way the
// value graph builder and emitter observe them: not by re-implementing the
// host's evaluator, but by exposing the narrow read-only surface spec.md §3
// requires (own properties in host order, prototype link, internal slots).
// A real embedding wires these interfaces to an actual host bridge; this
// package only defines the contract and a set of concrete Go-side value
// kinds usable directly in tests and tooling.
package host

import "github.com/viant/livepack/tracker"

// Kind classifies a Value the way spec.md §3's node-kind taxonomy does.
type Kind string

const (
	KindUndefined       Kind = "undefined"
	KindNull            Kind = "null"
	KindBoolean         Kind = "boolean"
	KindNumber          Kind = "number"
	KindBigInt          Kind = "bigint"
	KindString          Kind = "string"
	KindSymbol          Kind = "symbol"
	KindPlainObject     Kind = "object"
	KindArray           Kind = "array"
	KindFunction        Kind = "function"
	KindClass           Kind = "class"
	KindBoundFunction   Kind = "bound-function"
	KindCollection      Kind = "collection"
	KindTypedBuffer     Kind = "typed-buffer"
	KindTypedView       Kind = "typed-view"
	KindError           Kind = "error"
	KindRegExp          Kind = "regexp"
	KindBoxedPrimitive  Kind = "boxed-primitive"
	KindGlobalReference Kind = "global-reference"
	KindModuleReference Kind = "module-reference"

	// KindOpaque marks a live resource with no structural representation —
	// an open file handle, a running timer, a native opaque object — which
	// the builder reports as an UnserializableValueError rather than
	// attempting to traverse (spec.md §1 Non-goals, §7 "Unserializable
	// value").
	KindOpaque Kind = "opaque"
)

// Extensibility captures the three non-extensibility states an object can be
// in, ordered from least to most restrictive (spec.md §3).
type Extensibility int

const (
	Extensible Extensibility = iota
	PreventExtensions
	Sealed
	Frozen
)

// PropertyKey is a string or symbol key. Exactly one of Name/Symbol is set.
type PropertyKey struct {
	Name   string
	Symbol *Value // non-nil for a symbol-keyed property
}

// PropertyDescriptor is one own-property entry (spec.md §3 "property
// descriptors"): either a plain value slot or an accessor pair, with the
// standard writable/enumerable/configurable flags.
type PropertyDescriptor struct {
	Key          PropertyKey
	Value        *Value // nil when Get/Set is used
	Get          *Value
	Set          *Value
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// CollectionKind distinguishes the four built-in collection shapes.
type CollectionKind string

const (
	Set     CollectionKind = "set"
	Map     CollectionKind = "map"
	WeakSet CollectionKind = "weakset"
	WeakMap CollectionKind = "weakmap"
)

// Entry is one key/value pair of a Map/WeakMap, or a bare element of a
// Set/WeakSet (Value only, Key nil).
type Entry struct {
	Key   *Value
	Value *Value
}

// FrameBinding is one storage cell inside a scope frame: a name and its
// current value. It always holds a plain value; no getter/setter pair is
// recorded, whatever the binding's kind or write history.
type FrameBinding struct {
	Name       string
	Value      *Value
	Mutable    bool
	Wildcard   bool // captured under a scope known to contain direct eval
}

// Frame is one runtime activation of a scope the builder must visit because
// some reachable closure captures it (spec.md §3 "scope frames").
type Frame struct {
	ID       tracker.ScopeID
	Parent   *Frame
	DeclSite string // human-readable declaration site, e.g. "function#12"
	Bindings []FrameBinding
}

// Closure is the function-closure node kind: a compile-time function
// identity plus the ordered list of frames visible to this particular
// instance (spec.md §3, §4.5).
type Closure struct {
	FuncID tracker.FuncID
	Source string // original function source text, captured at instrumentation time
	Frames []*Frame
	Strict bool

	// MissingFree is set when this closure was produced by uninstrumented
	// source and references a free identifier whose value cannot be
	// recovered from source alone (spec.md §7 "Missing capture"). Empty
	// when the closure is fully instrumented.
	MissingFree string
}

// Class recognises the constructor/prototype/static shape spec.md §4.5
// describes: a constructor closure, its prototype object, static members,
// and an optional super-class link.
type Class struct {
	Constructor *Value // KindFunction, the class's own constructor closure
	Prototype   *Value // a plain object whose methods are function Values
	Statics     []PropertyDescriptor
	Super       *Value // nil at the root of a class hierarchy
	Name        string
}

// BoundFunction is the result of Function.prototype.bind: a target, a bound
// this, and a fixed argument prefix.
type BoundFunction struct {
	Target    *Value
	BoundThis *Value
	BoundArgs []*Value
}

// TypedBuffer is a raw byte buffer, optionally shared, with zero or more
// typed views over ranges of it (spec.md §3).
type TypedBuffer struct {
	Bytes  []byte
	Shared bool
}

// TypedView is one typed view over a range of a TypedBuffer.
type TypedView struct {
	Buffer     *Value // KindTypedBuffer
	ElemKind   string // e.g. "Int32", "Float64", "Uint8Clamped"
	ByteOffset int
	Length     int
}

// GlobalReference is a value reachable by a fixed path from the host's
// global object; the emitter renders the path verbatim rather than
// reconstructing the value (spec.md §4.5).
type GlobalReference struct {
	Path []string // e.g. ["Object", "prototype", "hasOwnProperty"]
}

// ModuleReference names a built-in host module or one of its exports.
type ModuleReference struct {
	Module string
	Export string // "" for the module namespace object itself
}

// RegExp is a pattern/flags pair.
type RegExp struct {
	Pattern string
	Flags   string
}

// ErrorValue is an Error instance: class identity, message, stack, cause.
type ErrorValue struct {
	ClassName string
	Message   string
	Stack     string
	Cause     *Value // nil when absent
}

// Identity distinguishes values the builder must treat as reference-equal
// from those compared structurally (spec.md §3 "Identity map"). Two
// primitive Values with the same Kind and structurally equal payload share
// a node regardless of Identity; every other kind is keyed by Identity.
type Identity uintptr

// Value is one live host value as observed by the builder. Only the fields
// relevant to Kind are populated; the rest are zero.
type Value struct {
	Kind     Kind
	Identity Identity

	Bool   bool
	Number float64 // NaN/+Inf/-Inf/+0/-0 preserved via math.Float64bits comparisons upstream
	BigInt string  // decimal text, arbitrary precision
	Str    string
	Symbol *SymbolValue

	Properties   []PropertyDescriptor
	Prototype    *Value // nil means no prototype link recorded yet, distinct from explicit null
	NullProto    bool   // true when the prototype is the language null, not "unset"
	Extensible   Extensibility
	ArrayLength  int
	IsArray      bool

	Closure     *Closure
	Class       *Class
	Bound       *BoundFunction
	Collection  *CollectionValue
	Buffer      *TypedBuffer
	View        *TypedView
	Global      *GlobalReference
	ModuleRef   *ModuleReference
	Regex       *RegExp
	Err         *ErrorValue
	BoxedOf     Kind // for KindBoxedPrimitive: which primitive kind is boxed
	BoxedValue  *Value

	OpaqueDesc string // human-readable description, for KindOpaque only
}

// CollectionValue is a Set/Map/WeakSet/WeakMap's entries plus any extra own
// properties installed on the collection object itself.
type CollectionValue struct {
	Kind    CollectionKind
	Entries []Entry
	Extra   []PropertyDescriptor
}

// SymbolValue distinguishes the three symbol categories spec.md §3 and §8
// name: registered (Symbol.for), well-known (Symbol.iterator and friends),
// and unique (plain Symbol()).
type SymbolValue struct {
	Description string
	Registered  bool
	WellKnown   string // e.g. "iterator", "" when not well-known
}
