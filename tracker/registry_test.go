package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/livepack/tracker"
)

func TestRegisterScope_FreshEachCall(t *testing.T) {
	r := tracker.New()
	a := r.RegisterScope("outer", "", false)
	b := r.RegisterScope("outer", "", false)
	assert.NotEqual(t, a, b, "each activation of a scope gets a fresh identifier")
}

func TestBind_RoundTrip(t *testing.T) {
	r := tracker.New()
	id := r.RegisterScope("outer", "", false)
	require.NoError(t, r.Bind(id, "x", 42))

	frame, ok := r.Frame(id)
	require.True(t, ok)
	cell, ok := frame.Bindings["x"]
	require.True(t, ok)
	assert.Equal(t, 42, cell.Value)
	assert.Equal(t, 1, cell.WriteCount)
}

func TestRegisterFunction_IdempotentReRegistration(t *testing.T) {
	r := tracker.New()
	s1 := r.RegisterScope("outer", "", false)

	key := "closure-1"
	_, err := r.RegisterFunction(key, "func#1", []tracker.ScopeID{s1}, nil)
	require.NoError(t, err)
	before, _ := r.Lookup(key)

	_, err = r.RegisterFunction(key, "func#1", []tracker.ScopeID{s1}, nil)
	require.NoError(t, err)
	after, _ := r.Lookup(key)

	assert.Equal(t, before, after)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterBindingWrite_MarksWildcard(t *testing.T) {
	r := tracker.New()
	id := r.RegisterScope("eval-scope", "", false)
	require.NoError(t, r.RegisterBindingWrite(id, "z", 7))

	frame, _ := r.Frame(id)
	assert.True(t, frame.Bindings["z"].Wildcard)
}

type stubInstrumenter struct{ out string }

func (s stubInstrumenter) InstrumentEval(src string, ctx tracker.EvalContext) (string, error) {
	return s.out, nil
}

type stubEvaluator struct{ ran string }

func (s *stubEvaluator) Eval(src string, ctx tracker.EvalContext) (interface{}, error) {
	s.ran = src
	return nil, nil
}

func TestInstrumentedEval_ChainsInstrumenterAndEvaluator(t *testing.T) {
	ev := &stubEvaluator{}
	r := tracker.New(
		tracker.WithInstrumenter(stubInstrumenter{out: "INSTRUMENTED"}),
		tracker.WithEvaluator(ev),
	)
	_, err := r.InstrumentedEval("var a = 1", tracker.EvalContext{})
	require.NoError(t, err)
	assert.Equal(t, "INSTRUMENTED", ev.ran)
}
