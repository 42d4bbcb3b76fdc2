package valuegraph

import (
	"fmt"
	"math"

	"github.com/viant/livepack/host"
	"github.com/viant/livepack/tracker"
)

// Graph is the output of one Build call: every node reachable from Root,
// deduplicated by identity, with cycle edges intact (spec.md §4.5).
type Graph struct {
	Root  *Node
	Nodes []*Node
}

// Option configures a Builder.
type Option func(*Builder)

// WithDegradedMissingCapture opts into emitting a closure's source verbatim
// when a free identifier's value can't be recovered, instead of failing the
// whole build with a MissingCaptureError (spec.md §7: "callers may opt in to
// a degraded mode that emits the function's source verbatim").
func WithDegradedMissingCapture(enabled bool) Option {
	return func(b *Builder) { b.degraded = enabled }
}

// Builder performs the depth-first traversal that produces a Graph.
type Builder struct {
	degraded bool

	nextID     int
	byIdentity map[host.Identity]*Node
	byStruct   map[string]*Node
	byFrame    map[tracker.ScopeID]*Node
	nodes      []*Node
}

// Build traverses root and everything reachable from it — including, for
// every registered closure encountered, the scope frames it captures — and
// returns the resulting Graph (spec.md §4.5).
func Build(root *host.Value, opts ...Option) (*Graph, error) {
	b := &Builder{
		byIdentity: make(map[host.Identity]*Node),
		byStruct:   make(map[string]*Node),
		byFrame:    make(map[tracker.ScopeID]*Node),
	}
	for _, opt := range opts {
		opt(b)
	}
	rootNode, _, err := b.visit(root, nil)
	if err != nil {
		return nil, err
	}
	return &Graph{Root: rootNode, Nodes: b.nodes}, nil
}

func (b *Builder) allocNode(v *host.Value, f *host.Frame) *Node {
	n := &Node{ID: b.nextID, Value: v, Frame: f}
	b.nextID++
	b.nodes = append(b.nodes, n)
	return n
}

// visit returns the node for v, plus whether reaching it closed a cycle back
// to an ancestor still under construction on this DFS path — the caller uses
// that to mark the resulting edge Deferred (spec.md §3 cycle-breaking
// invariant).
func (b *Builder) visit(v *host.Value, path []string) (*Node, bool, error) {
	if v == nil {
		return nil, false, nil
	}
	if v.Kind == host.KindOpaque {
		return nil, false, &UnserializableValueError{Path: path, Kind: v.OpaqueDesc}
	}
	if key, structural := structuralKey(v); structural {
		if n, ok := b.byStruct[key]; ok {
			return n, false, nil
		}
		n := b.allocNode(v, nil)
		b.byStruct[key] = n
		return n, false, nil
	}

	if n, ok := b.byIdentity[v.Identity]; ok {
		if n.OnCyclePath {
			n.Cyclic = true
			return n, true, nil
		}
		return n, false, nil
	}

	n := b.allocNode(v, nil)
	b.byIdentity[v.Identity] = n
	n.OnCyclePath = true
	if err := b.populate(n, v, path); err != nil {
		return nil, false, err
	}
	n.OnCyclePath = false
	return n, false, nil
}

func (b *Builder) populate(n *Node, v *host.Value, path []string) error {
	for _, d := range v.Properties {
		label := propertyLabel(d.Key)
		childPath := append(append([]string(nil), path...), label)
		var keyNode *Node
		if d.Key.Symbol != nil {
			kn, _, err := b.visit(d.Key.Symbol, append(append([]string(nil), path...), "<key>"))
			if err != nil {
				return err
			}
			keyNode = kn
		}
		switch {
		case d.Value != nil:
			c, deferred, err := b.visit(d.Value, childPath)
			if err != nil {
				return err
			}
			n.addKeyedEdge(EdgeProperty, label, c, deferred, keyNode)
		case d.Get != nil || d.Set != nil:
			if d.Get != nil {
				c, deferred, err := b.visit(d.Get, childPath)
				if err != nil {
					return err
				}
				n.addKeyedEdge(EdgeGetter, label, c, deferred, keyNode)
			}
			if d.Set != nil {
				c, deferred, err := b.visit(d.Set, childPath)
				if err != nil {
					return err
				}
				n.addKeyedEdge(EdgeSetter, label, c, deferred, keyNode)
			}
		}
	}

	if v.Prototype != nil {
		c, deferred, err := b.visit(v.Prototype, append(append([]string(nil), path...), "[[Prototype]]"))
		if err != nil {
			return err
		}
		n.addEdge(EdgePrototype, "prototype", c, deferred)
	}

	if v.Closure != nil {
		for _, frame := range v.Closure.Frames {
			fn, err := b.visitFrame(frame)
			if err != nil {
				return err
			}
			n.addEdge(EdgeFrame, frame.DeclSite, fn, false)
		}
		if v.Closure.MissingFree != "" && !b.degraded {
			return &MissingCaptureError{FuncSource: v.Closure.Source, Name: v.Closure.MissingFree}
		}
	}

	if v.Class != nil {
		if v.Class.Constructor != nil {
			c, deferred, err := b.visit(v.Class.Constructor, append(append([]string(nil), path...), "constructor"))
			if err != nil {
				return err
			}
			n.addEdge(EdgeClassPart, "constructor", c, deferred)
		}
		if v.Class.Prototype != nil {
			c, deferred, err := b.visit(v.Class.Prototype, append(append([]string(nil), path...), "prototype"))
			if err != nil {
				return err
			}
			n.addEdge(EdgeClassPart, "prototype", c, deferred)
		}
		for _, d := range v.Class.Statics {
			if d.Value == nil {
				continue
			}
			label := propertyLabel(d.Key)
			c, deferred, err := b.visit(d.Value, append(append([]string(nil), path...), label))
			if err != nil {
				return err
			}
			n.addEdge(EdgeClassPart, "static:"+label, c, deferred)
		}
		if v.Class.Super != nil {
			c, deferred, err := b.visit(v.Class.Super, append(append([]string(nil), path...), "[[super]]"))
			if err != nil {
				return err
			}
			n.addEdge(EdgeClassPart, "super", c, deferred)
		}
	}

	if v.Bound != nil {
		c, deferred, err := b.visit(v.Bound.Target, append(append([]string(nil), path...), "[[BoundTarget]]"))
		if err != nil {
			return err
		}
		n.addEdge(EdgeClassPart, "bound-target", c, deferred)

		if v.Bound.BoundThis != nil {
			c, deferred, err := b.visit(v.Bound.BoundThis, append(append([]string(nil), path...), "[[BoundThis]]"))
			if err != nil {
				return err
			}
			n.addEdge(EdgeClassPart, "bound-this", c, deferred)
		}
		for i, a := range v.Bound.BoundArgs {
			c, deferred, err := b.visit(a, append(append([]string(nil), path...), fmt.Sprintf("[[BoundArgs]][%d]", i)))
			if err != nil {
				return err
			}
			n.addEdge(EdgeElement, fmt.Sprintf("arg%d", i), c, deferred)
		}
	}

	if v.Collection != nil {
		for i, e := range v.Collection.Entries {
			if e.Key != nil {
				c, deferred, err := b.visit(e.Key, append(append([]string(nil), path...), fmt.Sprintf("<key %d>", i)))
				if err != nil {
					return err
				}
				n.addEdge(EdgeEntry, fmt.Sprintf("key%d", i), c, deferred)
			}
			c, deferred, err := b.visit(e.Value, append(append([]string(nil), path...), fmt.Sprintf("<value %d>", i)))
			if err != nil {
				return err
			}
			n.addEdge(EdgeEntry, fmt.Sprintf("value%d", i), c, deferred)
		}
	}

	if v.View != nil && v.View.Buffer != nil {
		c, deferred, err := b.visit(v.View.Buffer, append(append([]string(nil), path...), "[[ViewedBuffer]]"))
		if err != nil {
			return err
		}
		n.addEdge(EdgeElement, "buffer", c, deferred)
	}

	if v.BoxedValue != nil {
		c, deferred, err := b.visit(v.BoxedValue, append(append([]string(nil), path...), "[[PrimitiveValue]]"))
		if err != nil {
			return err
		}
		n.addEdge(EdgeClassPart, "boxed-value", c, deferred)
	}

	if v.Err != nil && v.Err.Cause != nil {
		c, deferred, err := b.visit(v.Err.Cause, append(append([]string(nil), path...), "[[Cause]]"))
		if err != nil {
			return err
		}
		n.addEdge(EdgeClassPart, "cause", c, deferred)
	}

	return nil
}

func (b *Builder) visitFrame(f *host.Frame) (*Node, error) {
	if n, ok := b.byFrame[f.ID]; ok {
		return n, nil
	}
	n := b.allocNode(nil, f)
	b.byFrame[f.ID] = n
	for _, binding := range f.Bindings {
		if binding.Value == nil {
			continue
		}
		c, deferred, err := b.visit(binding.Value, []string{"<frame " + string(f.ID) + ">", binding.Name})
		if err != nil {
			return nil, err
		}
		n.addEdge(EdgeBinding, binding.Name, c, deferred)
	}
	if f.Parent != nil {
		pn, err := b.visitFrame(f.Parent)
		if err != nil {
			return nil, err
		}
		n.addEdge(EdgeFrameLink, "parent", pn, false)
	}
	return n, nil
}

func propertyLabel(k host.PropertyKey) string {
	if k.Symbol != nil {
		return "[Symbol]" // emitter resolves the actual symbol node via the edge target's identity
	}
	return k.Name
}

// structuralKey returns a dedup key for primitive values with structural
// equality, and false for every reference-typed kind, which is deduplicated
// by identity instead (spec.md §3 "Identity map").
func structuralKey(v *host.Value) (string, bool) {
	switch v.Kind {
	case host.KindUndefined:
		return "undefined", true
	case host.KindNull:
		return "null", true
	case host.KindBoolean:
		return fmt.Sprintf("bool:%v", v.Bool), true
	case host.KindNumber:
		return fmt.Sprintf("num:%d", math.Float64bits(v.Number)), true
	case host.KindBigInt:
		return "bigint:" + v.BigInt, true
	case host.KindString:
		return "str:" + v.Str, true
	case host.KindSymbol:
		if v.Symbol != nil && (v.Symbol.Registered || v.Symbol.WellKnown != "") {
			return fmt.Sprintf("sym:%v:%s:%s", v.Symbol.Registered, v.Symbol.WellKnown, v.Symbol.Description), true
		}
		return "", false // unique symbols are identity-keyed like any other reference value
	default:
		return "", false
	}
}
