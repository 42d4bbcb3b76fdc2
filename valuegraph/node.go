// Package valuegraph builds the deduplicated, cycle-safe graph of nodes the
// emitter walks to produce source text (spec.md §4.5). It never evaluates
// host code; it only follows the read-only surface the host package exposes.
package valuegraph

import "github.com/viant/livepack/host"

// EdgeKind names the relationship an Edge represents, the set spec.md §3/§4.5
// calls out as needing explicit traversal: "edges for property/prototype/
// capture relationships".
type EdgeKind string

const (
	EdgeProperty  EdgeKind = "property"
	EdgeGetter    EdgeKind = "getter"
	EdgeSetter    EdgeKind = "setter"
	EdgePrototype EdgeKind = "prototype"
	EdgeFrame     EdgeKind = "frame"     // closure -> captured frame
	EdgeFrameLink EdgeKind = "frame-link" // frame -> parent frame
	EdgeBinding   EdgeKind = "binding"   // frame -> bound value
	EdgeEntry     EdgeKind = "entry"     // collection -> entry key/value
	EdgeElement   EdgeKind = "element"   // array/typed-view -> element
	EdgeClassPart EdgeKind = "class"     // class -> constructor/prototype/static/super
)

// Edge is one outgoing relationship from a Node. Deferred marks a back-edge
// into a node still under construction higher up the same DFS path: the
// emitter cannot inline or forward-reference it, and must install it with a
// post-hoc assignment once the target node's variable exists (spec.md §3
// cycle-breaking invariant, §4.6 "Cycle breaking").
type Edge struct {
	Kind     EdgeKind
	Label    string // property name, binding name, "prototype", "constructor", ...
	Target   *Node
	Deferred bool

	// KeyNode is set only for a symbol-keyed property edge: the node for the
	// symbol itself, which the emitter renders as a computed property key
	// (spec.md §3 "Symbol-keyed properties are first-class").
	KeyNode *Node
}

// Node is one deduplicated entry in the value graph: either a fresh host
// value, encountered once, or a scope frame pulled in because some closure
// captures it (spec.md §3/§4.5).
type Node struct {
	ID    int
	Value *host.Value // nil for a pure frame node
	Frame *host.Frame // non-nil when this node represents a captured scope frame

	Edges []Edge

	// Refs counts how many distinct edges in the whole graph point at this
	// node; the emitter uses Refs > 1 to decide whether a node needs a local
	// variable or can be inlined (spec.md §4.6).
	Refs int

	// OnCyclePath marks a node currently being visited during traversal,
	// used to detect a cyclic own-property chain (spec.md §3 invariant on
	// cycle breaking).
	OnCyclePath bool
	// Cyclic is set once a back-edge into this node has been observed.
	Cyclic bool
}

func (n *Node) addEdge(kind EdgeKind, label string, target *Node, deferred bool) {
	n.addKeyedEdge(kind, label, target, deferred, nil)
}

// addKeyedEdge is addEdge plus an optional key node, used for symbol-keyed
// properties where the key itself is a serialized value, not just a label
// (spec.md §3 "Symbol-keyed properties are first-class").
func (n *Node) addKeyedEdge(kind EdgeKind, label string, target *Node, deferred bool, keyNode *Node) {
	if target == nil {
		return
	}
	target.Refs++
	if keyNode != nil {
		keyNode.Refs++
	}
	n.Edges = append(n.Edges, Edge{Kind: kind, Label: label, Target: target, Deferred: deferred, KeyNode: keyNode})
}
