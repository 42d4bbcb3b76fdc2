package tracker

import "fmt"

// EvalContext carries the strict/with/scope context an instrumented direct
// eval call must replay (spec.md §4.4 "instrumented eval: rewrites a source
// string under a provided strict/with/scope context and evaluates it").
type EvalContext struct {
	Strict     bool
	ParentScope ScopeID
	HasParent  bool
}

// Instrumenter is the narrow interface the registry needs back from the
// instrument package to service a direct eval. Depending on an interface
// here (rather than importing instrument directly) keeps tracker a leaf
// package, the same inversion the teacher uses for analyzer.AnalyzerPlugin
// (analyzer/option.go) to let a lower layer call back into caller-supplied
// behavior without owning it.
type Instrumenter interface {
	InstrumentEval(src string, ctx EvalContext) (string, error)
}

// Evaluator is the host collaborator that actually runs source text — the
// host's own evaluator, out of scope per spec.md §1, reached here only by
// narrow interface.
type Evaluator interface {
	Eval(src string, ctx EvalContext) (interface{}, error)
}

// Registry is the runtime tracker: a process-wide, single-threaded registry
// invoked exclusively by instrumented code (spec.md §4.4, §5). There is no
// eviction; cost is proportional to the number of closure instances created,
// never to the number of serializations performed.
type Registry struct {
	scopes    map[ScopeID]*Frame
	functions map[ClosureKey]*CaptureDescriptor

	instrumenter Instrumenter
	evaluator    Evaluator
}

// Option configures a Registry at construction, the same functional-options
// shape the teacher uses throughout (analyzer/option.go).
type Option func(*Registry)

// WithInstrumenter wires the instrumenter collaborator InstrumentedEval needs
// to re-instrument an eval'd source string under the caller's context.
func WithInstrumenter(i Instrumenter) Option {
	return func(r *Registry) { r.instrumenter = i }
}

// WithEvaluator wires the host evaluator InstrumentedEval needs to actually
// run the (re-instrumented) source string.
func WithEvaluator(e Evaluator) Option {
	return func(r *Registry) { r.evaluator = e }
}

// New creates a Registry. Per spec.md §4.4 it is meant to be initialized once
// at process start and live for the process's lifetime.
func New(opts ...Option) *Registry {
	r := &Registry{
		scopes:    make(map[ScopeID]*Frame),
		functions: make(map[ClosureKey]*CaptureDescriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterScope returns a fresh identifier for the current activation of a
// scope, optionally chained to a parent activation (spec.md §4.4).
func (r *Registry) RegisterScope(decl string, parent ScopeID, hasParent bool) ScopeID {
	id := NewScopeID()
	r.scopes[id] = newFrame(id, parent, hasParent, decl)
	return id
}

// Frame looks up a previously registered scope activation by ID.
func (r *Registry) Frame(id ScopeID) (*Frame, bool) {
	f, ok := r.scopes[id]
	return f, ok
}

// Bind records the value of a name within a previously registered scope
// activation, the write path instrumented code uses whenever it assigns a
// binding the tracker already knows about.
func (r *Registry) Bind(id ScopeID, name string, value interface{}) error {
	f, ok := r.scopes[id]
	if !ok {
		return fmt.Errorf("tracker: bind to unregistered scope %q", id)
	}
	c := f.cell(name)
	c.Value = value
	c.WriteCount++
	return nil
}

// RegisterBindingWrite marks name within scope id as wildcard-captured: used
// for scopes known to contain direct eval, where static binding
// classification is impossible (spec.md §4.4).
func (r *Registry) RegisterBindingWrite(id ScopeID, name string, value interface{}) error {
	f, ok := r.scopes[id]
	if !ok {
		return fmt.Errorf("tracker: binding write to unregistered scope %q", id)
	}
	c := f.cell(name)
	c.Value = value
	c.Wildcard = true
	c.WriteCount++
	return nil
}

// RegisterFunction associates key — the host function itself — with its
// compile-time identity and the enclosing scope activations visible to it.
// Re-registering the same key with an identical (id, scopeIDs) pair is a
// no-op (spec.md §5 idempotence); re-registering with a different pair
// overwrites the descriptor, since the host produced a genuinely different
// closure for the same key (this only happens if the embedding host reuses
// keys across distinct closures, which callers should avoid).
func (r *Registry) RegisterFunction(key ClosureKey, id FuncID, scopeIDs []ScopeID, info interface{}) (ClosureKey, error) {
	if existing, ok := r.functions[key]; ok {
		if sameCapture(existing, id, scopeIDs) {
			return key, nil
		}
	}
	r.functions[key] = &CaptureDescriptor{FuncID: id, Scopes: append([]ScopeID(nil), scopeIDs...), Info: info}
	return key, nil
}

// Lookup returns the capture descriptor for a previously registered closure.
func (r *Registry) Lookup(key ClosureKey) (*CaptureDescriptor, bool) {
	d, ok := r.functions[key]
	return d, ok
}

// InstrumentedEval rewrites a direct-eval argument under the provided
// strict/scope context and evaluates it, so that any functions the evaluated
// source defines enter the registry the same way statically instrumented
// functions do (spec.md §4.4, §4.3 "eval handling").
func (r *Registry) InstrumentedEval(src string, ctx EvalContext) (interface{}, error) {
	if r.instrumenter == nil || r.evaluator == nil {
		return nil, fmt.Errorf("tracker: instrumented eval requires both an Instrumenter and an Evaluator")
	}
	instrumented, err := r.instrumenter.InstrumentEval(src, ctx)
	if err != nil {
		return nil, fmt.Errorf("tracker: instrument eval source: %w", err)
	}
	return r.evaluator.Eval(instrumented, ctx)
}

// Len reports how many closure instances are currently registered, the
// tracker's only cost metric (spec.md §4.4: "cost is proportional to the
// number of closure instances created").
func (r *Registry) Len() int { return len(r.functions) }
