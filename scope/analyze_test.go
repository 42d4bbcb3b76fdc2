package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/livepack/ast"
	"github.com/viant/livepack/scope"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ast.Parse([]byte(src), ast.Script)
	require.NoError(t, err)
	return prog
}

func TestAnalyze_VarHoistedToFunction(t *testing.T) {
	prog := parse(t, `function outer() {
  if (true) {
    var x = 1;
  }
  return x;
}`)
	tree, err := scope.Analyze(prog)
	require.NoError(t, err)

	var fn *scope.Scope
	for _, s := range tree.Scopes {
		if s.Kind == scope.Function {
			fn = s
		}
	}
	require.NotNil(t, fn)
	_, ok := fn.Bindings["x"]
	assert.True(t, ok, "var x should hoist to the function scope, not the if-block")
}

func TestAnalyze_LetIsBlockScoped(t *testing.T) {
	prog := parse(t, `function outer() {
  {
    let y = 1;
  }
  return y;
}`)
	tree, err := scope.Analyze(prog)
	require.NoError(t, err)

	var found *ast.Node
	prog.Root().Walk(func(n *ast.Node) bool {
		if n.Kind() == "identifier" && n.Text() == "y" {
			if p := n.Parent(); p != nil && p.Kind() == "return_statement" {
				found = n
			}
		}
		return true
	})
	require.NotNil(t, found)
	res := tree.Resolutions[found]
	require.NotNil(t, res)
	assert.True(t, res.Free, "y declared with let in a nested block must not be visible after the block")
}

func TestAnalyze_DirectEvalFlagged(t *testing.T) {
	prog := parse(t, `function outer() {
  eval("var z = 1");
}`)
	tree, err := scope.Analyze(prog)
	require.NoError(t, err)

	var fn *scope.Scope
	for _, s := range tree.Scopes {
		if s.Kind == scope.Function {
			fn = s
		}
	}
	require.NotNil(t, fn)
	assert.True(t, fn.HasDirectEval)
}

func TestAnalyze_ClassBodyIsStrict(t *testing.T) {
	prog := parse(t, `class Foo {
  bar() { return 1; }
}`)
	tree, err := scope.Analyze(prog)
	require.NoError(t, err)

	var classScope *scope.Scope
	for _, s := range tree.Scopes {
		if s.Kind == scope.Class {
			classScope = s
		}
	}
	require.NotNil(t, classScope)
	assert.True(t, classScope.Strict)
}

func TestAnalyze_WithDefeatsStaticResolution(t *testing.T) {
	prog := parse(t, `function outer(obj) {
  with (obj) {
    value;
  }
}`)
	tree, err := scope.Analyze(prog)
	require.NoError(t, err)

	var withScope *scope.Scope
	for _, s := range tree.Scopes {
		if s.Kind == scope.With {
			withScope = s
		}
	}
	require.NotNil(t, withScope)
	assert.True(t, withScope.HasWith)
}
