package serializer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/livepack/host"
	"github.com/viant/livepack/serializer"
)

func TestSerialize_PlainObjectPropertyOrder(t *testing.T) {
	root := &host.Value{
		Kind:     host.KindPlainObject,
		Identity: 1,
		Properties: []host.PropertyDescriptor{
			{Key: host.PropertyKey{Name: "a"}, Value: &host.Value{Kind: host.KindNumber, Number: 1}, Writable: true, Enumerable: true, Configurable: true},
			{Key: host.PropertyKey{Name: "b"}, Value: &host.Value{Kind: host.KindNumber, Number: 2}, Writable: true, Enumerable: true, Configurable: true},
			{Key: host.PropertyKey{Name: "c"}, Value: &host.Value{Kind: host.KindNumber, Number: 3}, Writable: true, Enumerable: true, Configurable: true},
		},
	}
	out, err := serializer.Serialize(root, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out.Code)

	ia, ib, ic := strings.Index(out.Code, `"a"`), strings.Index(out.Code, `"b"`), strings.Index(out.Code, `"c"`)
	assert.True(t, ia < ib && ib < ic, "expected a, b, c in declaration order, got: %s", out.Code)
}

func TestSerialize_SelfCycleAssignsAfterConstruction(t *testing.T) {
	obj := &host.Value{Kind: host.KindPlainObject, Identity: 2}
	obj.Properties = []host.PropertyDescriptor{
		{Key: host.PropertyKey{Name: "self"}, Value: obj, Writable: true, Enumerable: true, Configurable: true},
	}
	out, err := serializer.Serialize(obj, nil)
	require.NoError(t, err)
	assert.Contains(t, out.Code, ".self = ")
}

func TestSerialize_ModuleFormatsAppendExportStatement(t *testing.T) {
	val := &host.Value{Kind: host.KindString, Str: "hi"}

	single, err := serializer.Serialize(val, nil, serializer.WithFormat("single-export-module"))
	require.NoError(t, err)
	assert.Contains(t, single.Code, "module.exports = ")

	def, err := serializer.Serialize(val, nil, serializer.WithFormat("default-export-module"))
	require.NoError(t, err)
	assert.Contains(t, def.Code, "export default ")
}

func TestSerialize_UnserializableOpaqueValueReturnsTypedError(t *testing.T) {
	opaque := &host.Value{Kind: host.KindOpaque, OpaqueDesc: "file-handle"}
	_, err := serializer.Serialize(opaque, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file-handle")
}

func TestSerialize_CodeSplittingProducesOneFilePerEntry(t *testing.T) {
	a := &host.Value{Kind: host.KindString, Str: "a", Identity: 10}
	b := &host.Value{Kind: host.KindString, Str: "b", Identity: 11}
	root := &host.Value{
		Kind:     host.KindPlainObject,
		Identity: 12,
		Properties: []host.PropertyDescriptor{
			{Key: host.PropertyKey{Name: "a"}, Value: a, Writable: true, Enumerable: true, Configurable: true},
			{Key: host.PropertyKey{Name: "b"}, Value: b, Writable: true, Enumerable: true, Configurable: true},
		},
	}
	out, err := serializer.Serialize(root, nil, serializer.WithEntries(map[string][]int{
		"entry-a.js": {0},
		"entry-b.js": {0},
	}))
	require.NoError(t, err)
	assert.Len(t, out.Files, 2)
	assert.Contains(t, out.Files, "entry-a.js")
	assert.Contains(t, out.Files, "entry-b.js")
}
