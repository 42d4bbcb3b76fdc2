package instrument_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/livepack/instrument"
)

func TestInstrument_WrapsFunctionExpression(t *testing.T) {
	out, blob, err := instrument.Instrument([]byte(`var f = function(x) { return x + 1; };`))
	require.NoError(t, err)
	assert.Contains(t, out, "__lp.fn(")
	assert.Len(t, blob.Functions, 1)
}

func TestInstrument_ReassignsHoistedDeclaration(t *testing.T) {
	out, blob, err := instrument.Instrument([]byte(`function greet(name) { return "hi " + name; }`))
	require.NoError(t, err)
	assert.Contains(t, out, "greet = __lp.fn(")
	assert.Len(t, blob.Functions, 1)
}

func TestInstrument_RegistersProgramAndFunctionScopes(t *testing.T) {
	out, _, err := instrument.Instrument([]byte(`
		var x = 1;
		function outer() {
			var y = 2;
			return function inner() { return x + y; };
		}
	`))
	require.NoError(t, err)
	assert.Contains(t, out, "__lp.scope(")
	assert.True(t, strings.Count(out, "__lp.scope(") >= 2)
}

func TestInstrument_IsIdempotent(t *testing.T) {
	once, _, err := instrument.Instrument([]byte(`var x = function() { return 1; };`))
	require.NoError(t, err)

	twice, blob, err := instrument.Instrument([]byte(once))
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Empty(t, blob.Functions)
}

func TestInstrument_DirectEvalIsRewritten(t *testing.T) {
	out, _, err := instrument.Instrument([]byte(`function f() { return eval("1+1"); }`))
	require.NoError(t, err)
	assert.Contains(t, out, ".instrumentedEval(")
	assert.NotContains(t, out, `eval("1+1")`)
}

func TestInstrument_IndirectEvalIsUntouched(t *testing.T) {
	out, _, err := instrument.Instrument([]byte(`function f() { var e = eval; return e("1+1"); }`))
	require.NoError(t, err)
	assert.NotContains(t, out, ".instrumentedEval(")
}

func TestInstrument_ClassMethodRegistersAgainstPrototype(t *testing.T) {
	out, blob, err := instrument.Instrument([]byte(`
		class Greeter {
			greet() { return "hi"; }
		}
	`))
	require.NoError(t, err)
	assert.Contains(t, out, "Greeter.prototype.greet = __lp.fn(")
	assert.Len(t, blob.Functions, 1)
}

func TestInstrument_SuperMemberAccessIsRewritten(t *testing.T) {
	out, _, err := instrument.Instrument([]byte(`
		class Base { greet() { return "base"; } }
		class Derived extends Base {
			greet() { return super.greet() + "!"; }
		}
	`))
	require.NoError(t, err)
	assert.Contains(t, out, "Object.getPrototypeOf(Derived.prototype).greet")
}

func TestInstrument_FreeNamesClassifyReadsAndWrites(t *testing.T) {
	_, blob, err := instrument.Instrument([]byte(`
		var counter = 0;
		function bump() { counter = counter + 1; return counter; }
	`))
	require.NoError(t, err)
	require.Len(t, blob.Functions, 1)
	var rec *instrument.InfoRecord
	for _, r := range blob.Functions {
		rec = r
	}
	names := map[string]instrument.FreeNameUse{}
	for _, u := range rec.FreeNames {
		names[u.Name] = u
	}
	require.Contains(t, names, "counter")
	assert.True(t, names["counter"].Read)
	assert.True(t, names["counter"].Write)
}
