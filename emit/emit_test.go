package emit_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/livepack/emit"
	"github.com/viant/livepack/host"
	"github.com/viant/livepack/instrument"
	"github.com/viant/livepack/tracker"
	"github.com/viant/livepack/valuegraph"
)

func buildAndEmit(t *testing.T, root *host.Value, blob *instrument.InfoBlob, opts ...emit.Option) emit.Output {
	t.Helper()
	g, err := valuegraph.Build(root)
	require.NoError(t, err)
	out, err := emit.Emit(g, blob, opts...)
	require.NoError(t, err)
	return out
}

// Scenario 1 (spec.md §8): a 26-byte buffer A-Z round trips through a base64
// literal rather than an element-by-element array.
func TestEmit_TypedBufferRoundTripsAsBase64(t *testing.T) {
	bytes := make([]byte, 26)
	for i := range bytes {
		bytes[i] = byte('A' + i)
	}
	root := &host.Value{Kind: host.KindTypedBuffer, Identity: 1, Buffer: &host.TypedBuffer{Bytes: bytes}}

	out := buildAndEmit(t, root, nil)
	assert.Contains(t, out.Code, "QUJDREVGR0hJSktMTU5PUFFSU1RVVldYWVo=")
	assert.Contains(t, out.Code, "atob(")
}

// Scenario 2: a plain object's properties are emitted in declaration order.
func TestEmit_PlainObjectPropertyOrder(t *testing.T) {
	root := &host.Value{
		Kind:     host.KindPlainObject,
		Identity: 2,
		Properties: []host.PropertyDescriptor{
			{Key: host.PropertyKey{Name: "a"}, Value: &host.Value{Kind: host.KindNumber, Number: 1}, Writable: true, Enumerable: true, Configurable: true},
			{Key: host.PropertyKey{Name: "b"}, Value: &host.Value{Kind: host.KindNumber, Number: 2}, Writable: true, Enumerable: true, Configurable: true},
			{Key: host.PropertyKey{Name: "c"}, Value: &host.Value{Kind: host.KindNumber, Number: 3}, Writable: true, Enumerable: true, Configurable: true},
		},
	}
	out := buildAndEmit(t, root, nil)
	ia, ib, ic := strings.Index(out.Code, `"a"`), strings.Index(out.Code, `"b"`), strings.Index(out.Code, `"c"`)
	require.True(t, ia >= 0 && ib >= 0 && ic >= 0)
	assert.True(t, ia < ib && ib < ic)
}

// Scenario 3: a self-referencing object creates an empty object first, then
// assigns self to itself as a post-hoc statement.
func TestEmit_SelfCycleDeferredAssignment(t *testing.T) {
	obj := &host.Value{Kind: host.KindPlainObject, Identity: 3}
	obj.Properties = []host.PropertyDescriptor{
		{Key: host.PropertyKey{Name: "self"}, Value: obj, Writable: true, Enumerable: true, Configurable: true},
	}
	out := buildAndEmit(t, obj, nil)
	assert.Contains(t, out.Code, "var ")
	assert.Regexp(t, `\w+\.self = \w+;`, out.Code)
}

// Scenario 5: a strict arrow serialized into a sloppy container keeps a
// "use strict" directive so it still throws when called.
func TestEmit_StrictClosureInSloppyContainerIsWrapped(t *testing.T) {
	fn := &host.Value{
		Kind:     host.KindFunction,
		Identity: 5,
		Closure: &host.Closure{
			FuncID: tracker.FuncID("fn5"),
			Source: "() => delete Object.prototype",
			Strict: true,
		},
	}
	blob := &instrument.InfoBlob{Functions: map[tracker.FuncID]*instrument.InfoRecord{
		"fn5": {FuncID: "fn5", Kind: instrument.KindArrow, Strict: true, Source: "() => delete Object.prototype"},
	}}

	out := buildAndEmit(t, fn, blob, emit.WithStrictEnv(false))
	assert.Contains(t, out.Code, `"use strict"`)
	assert.Contains(t, out.Code, "delete Object.prototype")
}

// Scenario 6: a derived class links prototypes and performs reflective
// construction rather than emitting real ES6 class syntax.
func TestEmit_DerivedClassReflectiveConstruction(t *testing.T) {
	baseCtor := &host.Value{Kind: host.KindFunction, Identity: 60, Closure: &host.Closure{FuncID: "X", Source: "function() { this.x = 1; }"}}
	baseProto := &host.Value{Kind: host.KindPlainObject, Identity: 61}
	base := &host.Value{Kind: host.KindClass, Identity: 62, Class: &host.Class{Constructor: baseCtor, Prototype: baseProto, Name: "X"}}

	ctorSource := "constructor() { super(); this.y = 2; }"
	derivedCtor := &host.Value{Kind: host.KindFunction, Identity: 63, Closure: &host.Closure{FuncID: "Y", Source: ctorSource}}
	derivedProto := &host.Value{Kind: host.KindPlainObject, Identity: 64, Prototype: baseProto}
	derived := &host.Value{Kind: host.KindClass, Identity: 65, Class: &host.Class{Constructor: derivedCtor, Prototype: derivedProto, Super: base, Name: "Y"}}

	blob := &instrument.InfoBlob{Functions: map[tracker.FuncID]*instrument.InfoRecord{
		"Y": {FuncID: "Y", Kind: instrument.KindClassConstructor, UsesSuper: true, Source: ctorSource},
	}}

	out := buildAndEmit(t, derived, blob)
	assert.Contains(t, out.Code, "Object.setPrototypeOf")
	assert.Contains(t, out.Code, "Ctor.prototype.constructor = Ctor")
	assert.Contains(t, out.Code, "Object.getPrototypeOf(Ctor).call(this)")
	assert.NotContains(t, out.Code, "super(")
}

// A method that reads an inherited member via super.x is rewritten to a
// reflective prototype lookup rather than left as a bare "super" keyword,
// which would be a syntax error once lifted out of real class syntax.
func TestEmit_DerivedClassMethodSuperMemberAccessIsRewritten(t *testing.T) {
	baseCtor := &host.Value{Kind: host.KindFunction, Identity: 70, Closure: &host.Closure{FuncID: "Base", Source: "function() {}"}}
	baseProto := &host.Value{Kind: host.KindPlainObject, Identity: 71}
	base := &host.Value{Kind: host.KindClass, Identity: 72, Class: &host.Class{Constructor: baseCtor, Prototype: baseProto, Name: "Base"}}

	methodSource := "greet() { return super.greet() + \"!\"; }"
	method := &host.Value{Kind: host.KindFunction, Identity: 73, Closure: &host.Closure{FuncID: "greet", Source: methodSource}}
	derivedCtor := &host.Value{Kind: host.KindFunction, Identity: 74, Closure: &host.Closure{FuncID: "Derived", Source: "constructor() { super(); }"}}
	derivedProto := &host.Value{
		Kind: host.KindPlainObject, Identity: 75, Prototype: baseProto,
		Properties: []host.PropertyDescriptor{
			{Key: host.PropertyKey{Name: "greet"}, Value: method, Writable: true, Enumerable: false, Configurable: true},
		},
	}
	derived := &host.Value{Kind: host.KindClass, Identity: 76, Class: &host.Class{Constructor: derivedCtor, Prototype: derivedProto, Super: base, Name: "Derived"}}

	blob := &instrument.InfoBlob{Functions: map[tracker.FuncID]*instrument.InfoRecord{
		"Derived": {FuncID: "Derived", Kind: instrument.KindClassConstructor, UsesSuper: true, Source: "constructor() { super(); }"},
		"greet":   {FuncID: "greet", Kind: instrument.KindMethod, UsesSuper: true, Source: methodSource},
	}}

	out := buildAndEmit(t, derived, blob)
	assert.Contains(t, out.Code, "Object.getPrototypeOf(Ctor.prototype).greet.call(this)")
	assert.NotContains(t, out.Code, "super.greet")
}

// Anonymous classes only get a stamped .name when the target host's
// convention calls for it (spec.md §9 open question (a)).
func TestEmit_AnonClassNameStampedOnlyWhenConventionRequiresIt(t *testing.T) {
	anonCtor := &host.Value{Kind: host.KindFunction, Identity: 80, Closure: &host.Closure{FuncID: "Z", Source: "function() {}"}}
	anonProto := &host.Value{Kind: host.KindPlainObject, Identity: 81}
	anon := &host.Value{Kind: host.KindClass, Identity: 82, Class: &host.Class{Constructor: anonCtor, Prototype: anonProto}}

	without := buildAndEmit(t, anon, nil)
	assert.NotContains(t, without.Code, `"name"`)

	with := buildAndEmit(t, anon, nil, emit.WithAnonClassNameProp(true))
	assert.Contains(t, with.Code, `Object.defineProperty(Ctor, "name", { value: "", configurable: true });`)
}

func TestEmit_MinifyStripsBlankLines(t *testing.T) {
	root := &host.Value{Kind: host.KindNumber, Number: 42}
	out := buildAndEmit(t, root, nil, emit.WithMinify(true))
	assert.NotContains(t, out.Code, "\n\n")
}

func TestEmit_MangleProducesShortNames(t *testing.T) {
	shared := &host.Value{Kind: host.KindPlainObject, Identity: 70}
	root := &host.Value{
		Kind:     host.KindPlainObject,
		Identity: 71,
		Properties: []host.PropertyDescriptor{
			{Key: host.PropertyKey{Name: "x"}, Value: shared, Writable: true, Enumerable: true, Configurable: true},
			{Key: host.PropertyKey{Name: "y"}, Value: shared, Writable: true, Enumerable: true, Configurable: true},
		},
	}
	out := buildAndEmit(t, root, nil, emit.WithMangle(true))
	assert.Contains(t, out.Code, "var a;")
}

func TestEmit_NumberFormattingEdgeCases(t *testing.T) {
	cases := map[string]float64{
		"NaN":       math.NaN(),
		"Infinity":  math.Inf(1),
		"-Infinity": math.Inf(-1),
	}
	for want, n := range cases {
		out := buildAndEmit(t, &host.Value{Kind: host.KindNumber, Number: n}, nil)
		assert.Contains(t, out.Code, want)
	}
}

func TestEmit_NegativeZeroIsDistinguishedFromZero(t *testing.T) {
	out := buildAndEmit(t, &host.Value{Kind: host.KindNumber, Number: math.Copysign(0, -1)}, nil)
	assert.Contains(t, out.Code, "-0")
}
