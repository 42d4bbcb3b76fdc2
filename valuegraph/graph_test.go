package valuegraph_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/livepack/host"
	"github.com/viant/livepack/valuegraph"
)

func str(s string) *host.Value { return &host.Value{Kind: host.KindString, Str: s} }
func num(n float64) *host.Value { return &host.Value{Kind: host.KindNumber, Number: n} }

func TestBuild_PlainObjectPropertiesInOrder(t *testing.T) {
	obj := &host.Value{
		Kind:     host.KindPlainObject,
		Identity: 1,
		Properties: []host.PropertyDescriptor{
			{Key: host.PropertyKey{Name: "a"}, Value: num(1), Writable: true, Enumerable: true, Configurable: true},
			{Key: host.PropertyKey{Name: "b"}, Value: num(2), Writable: true, Enumerable: true, Configurable: true},
		},
	}
	g, err := valuegraph.Build(obj)
	require.NoError(t, err)
	require.Len(t, g.Root.Edges, 2)
	assert.Equal(t, "a", g.Root.Edges[0].Label)
	assert.Equal(t, "b", g.Root.Edges[1].Label)
}

func TestBuild_SelfCycleIsDetected(t *testing.T) {
	obj := &host.Value{Kind: host.KindPlainObject, Identity: 2}
	obj.Properties = []host.PropertyDescriptor{
		{Key: host.PropertyKey{Name: "self"}, Value: obj, Writable: true, Enumerable: true, Configurable: true},
	}
	g, err := valuegraph.Build(obj)
	require.NoError(t, err)
	assert.True(t, g.Root.Cyclic)
	assert.Same(t, g.Root, g.Root.Edges[0].Target)
}

func TestBuild_SharedSubValueIsOneNode(t *testing.T) {
	shared := &host.Value{Kind: host.KindPlainObject, Identity: 3}
	root := &host.Value{
		Kind:     host.KindPlainObject,
		Identity: 4,
		Properties: []host.PropertyDescriptor{
			{Key: host.PropertyKey{Name: "x"}, Value: shared, Writable: true, Enumerable: true, Configurable: true},
			{Key: host.PropertyKey{Name: "y"}, Value: shared, Writable: true, Enumerable: true, Configurable: true},
		},
	}
	g, err := valuegraph.Build(root)
	require.NoError(t, err)
	assert.Same(t, g.Root.Edges[0].Target, g.Root.Edges[1].Target)
	assert.Equal(t, 2, g.Root.Edges[0].Target.Refs)
}

func TestBuild_StringsWithSameTextDedup(t *testing.T) {
	root := &host.Value{
		Kind:     host.KindPlainObject,
		Identity: 5,
		Properties: []host.PropertyDescriptor{
			{Key: host.PropertyKey{Name: "a"}, Value: str("hi"), Writable: true, Enumerable: true, Configurable: true},
			{Key: host.PropertyKey{Name: "b"}, Value: str("hi"), Writable: true, Enumerable: true, Configurable: true},
		},
	}
	g, err := valuegraph.Build(root)
	require.NoError(t, err)
	assert.Same(t, g.Root.Edges[0].Target, g.Root.Edges[1].Target)
}

func TestBuild_OpaqueValueIsUnserializable(t *testing.T) {
	root := &host.Value{Kind: host.KindOpaque, OpaqueDesc: "open-file-handle"}
	_, err := valuegraph.Build(root)
	require.Error(t, err)
	var target *valuegraph.UnserializableValueError
	assert.ErrorAs(t, err, &target)
}

func TestBuild_MissingCaptureFailsWithoutDegradedMode(t *testing.T) {
	fn := &host.Value{
		Kind:     host.KindFunction,
		Identity: 6,
		Closure:  &host.Closure{Source: "function f(){ return missing; }", MissingFree: "missing"},
	}
	_, err := valuegraph.Build(fn)
	require.Error(t, err)

	_, err = valuegraph.Build(fn, valuegraph.WithDegradedMissingCapture(true))
	require.NoError(t, err)
}

func TestBuild_SymbolKeyedPropertyKeepsItsOwnKeyNode(t *testing.T) {
	keyA := &host.Value{Kind: host.KindSymbol, Identity: 20, Symbol: &host.SymbolValue{Description: "a"}}
	keyB := &host.Value{Kind: host.KindSymbol, Identity: 21, Symbol: &host.SymbolValue{Description: "b"}}
	root := &host.Value{
		Kind:     host.KindPlainObject,
		Identity: 22,
		Properties: []host.PropertyDescriptor{
			{Key: host.PropertyKey{Symbol: keyA}, Value: str("x"), Writable: true, Enumerable: true, Configurable: true},
			{Key: host.PropertyKey{Symbol: keyB}, Value: str("y"), Writable: true, Enumerable: true, Configurable: true},
		},
	}
	g, err := valuegraph.Build(root)
	require.NoError(t, err)

	require.Len(t, g.Root.Edges, 2)
	require.NotNil(t, g.Root.Edges[0].KeyNode)
	require.NotNil(t, g.Root.Edges[1].KeyNode)
	assert.NotSame(t, g.Root.Edges[0].KeyNode, g.Root.Edges[1].KeyNode)

	// go-cmp over the two key nodes' Values, the way the pack's cue-lang-cue
	// test suite diffs structural results instead of reflect.DeepEqual.
	diff := cmp.Diff(keyA, g.Root.Edges[0].KeyNode.Value, cmpopts.IgnoreFields(host.Value{}, "Identity"))
	assert.Empty(t, diff)
}
