package instrument

import "github.com/viant/livepack/ast"

// config collects the instrumentation knobs an embedding host can set. The
// functional-options shape matches the teacher's analyzer/option.go.
type config struct {
	dialect        ast.Dialect
	startStrict    bool
	trackerHandle  string // expression evaluating to the tracker.Registry at runtime
	hasParentScope bool
	parentScope    string
}

// Option configures a single Instrument call.
type Option func(*config)

// WithDialect selects whether src is parsed as a script or a module. Modules
// are implicitly strict (spec.md §4.1 dialect note).
func WithDialect(d ast.Dialect) Option {
	return func(c *config) { c.dialect = d }
}

// WithStartStrict forces the top-level scope to be treated as strict even
// absent a "use strict" directive, for hosts that only ever load strict code.
func WithStartStrict(strict bool) Option {
	return func(c *config) { c.startStrict = strict }
}

// WithTrackerHandle sets the source expression the instrumented code uses to
// reach the runtime tracker (default: the internal identifier prefix chosen
// for the program, e.g. "__lp").
func WithTrackerHandle(expr string) Option {
	return func(c *config) { c.trackerHandle = expr }
}

// WithParentScope threads an already-registered outer scope id into the
// program's top-level scope registration, used when instrumenting a source
// string produced by a direct eval nested inside an already-live scope.
func WithParentScope(scopeID string) Option {
	return func(c *config) {
		c.hasParentScope = true
		c.parentScope = scopeID
	}
}

func newConfig(opts ...Option) *config {
	c := &config{
		dialect: ast.Script,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
