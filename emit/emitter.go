package emit

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/viant/livepack/host"
	"github.com/viant/livepack/instrument"
	"github.com/viant/livepack/tracker"
	"github.com/viant/livepack/valuegraph"
)

// Output is the result of one Emit call: either a single Code string, for
// FormatBareExpression/FormatSingleExportMod/FormatDefaultExportMod, or a set
// of Files when Options.Entries requests code splitting.
type Output struct {
	Code  string
	Files map[string]string
}

// Emit walks g and produces host-language source text reconstructing the
// graph's root value (spec.md §4.6). blob supplies the per-function metadata
// instrument.Instrument captured; a nil blob, or a closure whose FuncID is
// absent from it, degrades to verbatim source-text round trip for that
// function (spec.md §4.3).
func Emit(g *valuegraph.Graph, blob *instrument.InfoBlob, opts ...Option) (Output, error) {
	o := newOptions(opts...)
	if blob == nil {
		blob = &instrument.InfoBlob{Functions: map[tracker.FuncID]*instrument.InfoRecord{}}
	}
	if o.Entries != nil {
		return emitSplit(g, blob, o)
	}

	e := newEmitterFor(g, blob, o)
	if err := e.declareAndAssignAll(g); err != nil {
		return Output{}, err
	}
	rootExpr, err := e.build(g.Root)
	if err != nil {
		return Output{}, err
	}
	return Output{Code: e.container(rootExpr)}, nil
}

type emitter struct {
	opts     *Options
	blob     *instrument.InfoBlob
	alloc    *allocator
	names    map[*valuegraph.Node]string
	assigned map[*valuegraph.Node]bool

	// superHome records, for a constructor/method node reached through a
	// class's reflective reconstruction, the home-object expression its own
	// "super" uses resolve against: the object super.x looks up on, and the
	// constructor function a bare super(...) call forwards to. Populated by
	// constructClass before building the member, consulted by
	// constructFunction (spec.md §4.6, reflective class reconstruction).
	superHome map[*valuegraph.Node]superHomeRefs

	decls []string
	stmts []string
	post  []string
}

type superHomeRefs struct {
	member string // target of Object.getPrototypeOf(member).x
	ctor   string // target of Object.getPrototypeOf(ctor) for a bare super(...) call
}

func newEmitterFor(g *valuegraph.Graph, blob *instrument.InfoBlob, o *Options) *emitter {
	blocked := map[string]bool{}
	for _, rec := range blob.Functions {
		for _, fn := range rec.FreeNames {
			blocked[fn.Name] = true
		}
	}
	e := &emitter{
		opts:      o,
		blob:      blob,
		alloc:     newAllocator("module", o.Mangle, "", blocked),
		names:     map[*valuegraph.Node]string{},
		assigned:  map[*valuegraph.Node]bool{},
		superHome: map[*valuegraph.Node]superHomeRefs{},
	}
	for _, n := range g.Nodes {
		if e.varNeeded(n) {
			e.names[n] = "" // placeholder, resolved in declareAndAssignAll once alloc runs in Nodes order
		}
	}
	return e
}

// declareAndAssignAll allocates a name for every node that needs one, then
// constructs each in dependency order, ignoring Deferred edges, then installs
// every deferred edge as a post-hoc statement (spec.md §4.6 "Cycle breaking":
// "construct the acyclic parts first ... then apply the cyclic properties
// with plain assignment").
func (e *emitter) declareAndAssignAll(g *valuegraph.Graph) error {
	for _, n := range g.Nodes {
		if _, need := e.names[n]; need {
			name, err := e.alloc.alloc(hintFor(n))
			if err != nil {
				return err
			}
			e.names[n] = name
			e.decls = append(e.decls, "var "+name+";")
		}
	}
	for _, n := range g.Nodes {
		if _, need := e.names[n]; need {
			if err := e.ensureAssigned(n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *emitter) varNeeded(n *valuegraph.Node) bool {
	if hasOutgoingDeferred(n) {
		return true
	}
	if n.Cyclic {
		return true
	}
	if n.Frame != nil {
		return n.Refs > 1
	}
	if n.Value == nil {
		return false
	}
	switch n.Value.Kind {
	case host.KindUndefined, host.KindNull, host.KindBoolean, host.KindNumber,
		host.KindBigInt, host.KindString, host.KindGlobalReference, host.KindModuleReference:
		return false
	case host.KindSymbol:
		if n.Value.Symbol != nil && (n.Value.Symbol.Registered || n.Value.Symbol.WellKnown != "") {
			return false
		}
	}
	if n.Refs > 1 {
		return true
	}
	return !e.opts.Inline
}

func hasOutgoingDeferred(n *valuegraph.Node) bool {
	for _, ed := range n.Edges {
		if ed.Deferred {
			return true
		}
	}
	return false
}

func hintFor(n *valuegraph.Node) string {
	if n.Frame != nil {
		return "frame"
	}
	if n.Value == nil {
		return "v"
	}
	switch n.Value.Kind {
	case host.KindPlainObject:
		return "obj"
	case host.KindArray:
		return "arr"
	case host.KindFunction:
		return "fn"
	case host.KindClass:
		return "cls"
	case host.KindBoundFunction:
		return "bound"
	case host.KindCollection:
		return "coll"
	case host.KindTypedBuffer:
		return "buf"
	case host.KindTypedView:
		return "view"
	case host.KindError:
		return "err"
	case host.KindRegExp:
		return "re"
	case host.KindBoxedPrimitive:
		return "boxed"
	case host.KindSymbol:
		return "sym"
	default:
		return "v"
	}
}

// build returns the expression referencing n: its local variable, ensuring
// it has been constructed first, or an inline constructor expression for a
// single-use or structural node.
func (e *emitter) build(n *valuegraph.Node) (string, error) {
	if n == nil {
		return "undefined", nil
	}
	if name, ok := e.names[n]; ok {
		if err := e.ensureAssigned(n); err != nil {
			return "", err
		}
		return name, nil
	}
	return e.construct(n)
}

func (e *emitter) ensureAssigned(n *valuegraph.Node) error {
	if e.assigned[n] {
		return nil
	}
	e.assigned[n] = true
	expr, err := e.construct(n)
	if err != nil {
		return err
	}
	e.stmts = append(e.stmts, fmt.Sprintf("%s = %s;", e.names[n], expr))
	return e.emitDeferred(n)
}

func (e *emitter) construct(n *valuegraph.Node) (string, error) {
	if n.Frame != nil {
		return e.constructFrame(n)
	}
	v := n.Value
	switch v.Kind {
	case host.KindUndefined:
		return "undefined", nil
	case host.KindNull:
		return "null", nil
	case host.KindBoolean:
		if v.Bool {
			return "true", nil
		}
		return "false", nil
	case host.KindNumber:
		return formatNumber(v.Number), nil
	case host.KindBigInt:
		return v.BigInt + "n", nil
	case host.KindString:
		return jsString(v.Str), nil
	case host.KindSymbol:
		return constructSymbol(v), nil
	case host.KindGlobalReference:
		return strings.Join(v.Global.Path, "."), nil
	case host.KindModuleReference:
		base := fmt.Sprintf("require(%s)", jsString(v.ModuleRef.Module))
		if v.ModuleRef.Export != "" {
			return base + "." + v.ModuleRef.Export, nil
		}
		return base, nil
	case host.KindRegExp:
		return fmt.Sprintf("new RegExp(%s, %s)", jsString(v.Regex.Pattern), jsString(v.Regex.Flags)), nil
	case host.KindError:
		return e.constructError(n)
	case host.KindBoxedPrimitive:
		inner, err := e.build(v.BoxedValue)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Object(%s)", inner), nil
	case host.KindTypedBuffer:
		return constructBuffer(v.Buffer), nil
	case host.KindTypedView:
		return e.constructView(n)
	case host.KindCollection:
		return e.constructCollection(n)
	case host.KindBoundFunction:
		return e.constructBound(n)
	case host.KindFunction:
		return e.constructFunction(n)
	case host.KindClass:
		return e.constructClass(n)
	case host.KindArray, host.KindPlainObject:
		return e.constructObjectLike(n)
	default:
		return "", fmt.Errorf("emit: unsupported value kind %q", v.Kind)
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if f == 0 && math.Signbit(f) {
		return "-0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func constructSymbol(v *host.Value) string {
	s := v.Symbol
	if s == nil {
		return "Symbol()"
	}
	if s.WellKnown != "" {
		return "Symbol." + s.WellKnown
	}
	if s.Registered {
		return fmt.Sprintf("Symbol.for(%s)", jsString(s.Description))
	}
	if s.Description == "" {
		return "Symbol()"
	}
	return fmt.Sprintf("Symbol(%s)", jsString(s.Description))
}

func constructBuffer(buf *host.TypedBuffer) string {
	b64 := base64.StdEncoding.EncodeToString(buf.Bytes)
	if buf.Shared {
		return fmt.Sprintf(
			"(() => { const b = new SharedArrayBuffer(%d); new Uint8Array(b).set(Uint8Array.from(atob(%s), c => c.charCodeAt(0))); return b; })()",
			len(buf.Bytes), jsString(b64))
	}
	return fmt.Sprintf("Uint8Array.from(atob(%s), c => c.charCodeAt(0)).buffer", jsString(b64))
}

func (e *emitter) constructView(n *valuegraph.Node) (string, error) {
	v := n.Value.View
	bufExpr := "undefined"
	if ed := findEdge(n, valuegraph.EdgeElement, "buffer"); ed != nil && !ed.Deferred {
		expr, err := e.build(ed.Target)
		if err != nil {
			return "", err
		}
		bufExpr = expr
	}
	if v.ElemKind == "DataView" {
		return fmt.Sprintf("new DataView(%s, %d, %d)", bufExpr, v.ByteOffset, v.Length), nil
	}
	return fmt.Sprintf("new %sArray(%s, %d, %d)", v.ElemKind, bufExpr, v.ByteOffset, v.Length), nil
}

func (e *emitter) constructError(n *valuegraph.Node) (string, error) {
	v := n.Value.Err
	className := v.ClassName
	if className == "" {
		className = "Error"
	}
	base := fmt.Sprintf("new %s(%s)", className, jsString(v.Message))
	if ed := findEdge(n, valuegraph.EdgeClassPart, "cause"); ed != nil && !ed.Deferred {
		causeExpr, err := e.build(ed.Target)
		if err != nil {
			return "", err
		}
		base = fmt.Sprintf("new %s(%s, { cause: %s })", className, jsString(v.Message), causeExpr)
	}
	return fmt.Sprintf("(() => { const e = %s; e.stack = %s; return e; })()", base, jsString(v.Stack)), nil
}

func (e *emitter) constructBound(n *valuegraph.Node) (string, error) {
	targetExpr := "undefined"
	if ed := findEdge(n, valuegraph.EdgeClassPart, "bound-target"); ed != nil && !ed.Deferred {
		expr, err := e.build(ed.Target)
		if err != nil {
			return "", err
		}
		targetExpr = expr
	}
	thisExpr := "undefined"
	if ed := findEdge(n, valuegraph.EdgeClassPart, "bound-this"); ed != nil && !ed.Deferred {
		expr, err := e.build(ed.Target)
		if err != nil {
			return "", err
		}
		thisExpr = expr
	}
	var args []string
	for i := range n.Value.Bound.BoundArgs {
		ed := findEdge(n, valuegraph.EdgeElement, fmt.Sprintf("arg%d", i))
		if ed == nil || ed.Deferred {
			args = append(args, "undefined")
			continue
		}
		expr, err := e.build(ed.Target)
		if err != nil {
			return "", err
		}
		args = append(args, expr)
	}
	call := targetExpr + ".bind(" + thisExpr
	if len(args) > 0 {
		call += ", " + strings.Join(args, ", ")
	}
	return call + ")", nil
}

func (e *emitter) constructCollection(n *valuegraph.Node) (string, error) {
	v := n.Value.Collection
	ctor := map[host.CollectionKind]string{
		host.Set: "Set", host.Map: "Map", host.WeakSet: "WeakSet", host.WeakMap: "WeakMap",
	}[v.Kind]

	if v.Kind == host.Set || v.Kind == host.WeakSet {
		var items []string
		for i := range v.Entries {
			ed := findEdge(n, valuegraph.EdgeEntry, fmt.Sprintf("value%d", i))
			if ed == nil || ed.Deferred {
				continue
			}
			expr, err := e.build(ed.Target)
			if err != nil {
				return "", err
			}
			items = append(items, expr)
		}
		return fmt.Sprintf("new %s([%s])", ctor, strings.Join(items, ", ")), nil
	}

	var pairs []string
	for i := range v.Entries {
		keyExpr, valExpr := "undefined", "undefined"
		if ed := findEdge(n, valuegraph.EdgeEntry, fmt.Sprintf("key%d", i)); ed != nil && !ed.Deferred {
			expr, err := e.build(ed.Target)
			if err != nil {
				return "", err
			}
			keyExpr = expr
		}
		if ed := findEdge(n, valuegraph.EdgeEntry, fmt.Sprintf("value%d", i)); ed != nil && !ed.Deferred {
			expr, err := e.build(ed.Target)
			if err != nil {
				return "", err
			}
			valExpr = expr
		}
		pairs = append(pairs, fmt.Sprintf("[%s, %s]", keyExpr, valExpr))
	}
	return fmt.Sprintf("new %s([%s])", ctor, strings.Join(pairs, ", ")), nil
}

func (e *emitter) constructFrame(n *valuegraph.Node) (string, error) {
	var props []string
	for _, ed := range n.Edges {
		if ed.Kind != valuegraph.EdgeBinding || ed.Deferred {
			continue
		}
		expr, err := e.build(ed.Target)
		if err != nil {
			return "", err
		}
		props = append(props, fmt.Sprintf("%s: %s", ed.Label, expr))
	}
	return "{ " + strings.Join(props, ", ") + " }", nil
}

type propEdge struct {
	desc      host.PropertyDescriptor
	valueEdge *valuegraph.Edge
	getEdge   *valuegraph.Edge
	setEdge   *valuegraph.Edge
}

// collectPropertyEdges zips v.Properties with the edges populate() appended
// for them, in the same order — the only reliable way to tell two
// symbol-keyed properties apart, since their edge Label collapses to the
// same placeholder (spec.md §3 "Symbol-keyed properties are first-class").
func collectPropertyEdges(n *valuegraph.Node, v *host.Value) []propEdge {
	idx := 0
	out := make([]propEdge, 0, len(v.Properties))
	for _, d := range v.Properties {
		pe := propEdge{desc: d}
		switch {
		case d.Value != nil:
			if idx < len(n.Edges) {
				pe.valueEdge = &n.Edges[idx]
				idx++
			}
		default:
			if d.Get != nil && idx < len(n.Edges) {
				pe.getEdge = &n.Edges[idx]
				idx++
			}
			if d.Set != nil && idx < len(n.Edges) {
				pe.setEdge = &n.Edges[idx]
				idx++
			}
		}
		out = append(out, pe)
	}
	return out
}

func (e *emitter) constructObjectLike(n *valuegraph.Node) (string, error) {
	v := n.Value
	pe := collectPropertyEdges(n, v)

	var base string
	switch {
	case v.IsArray:
		base = "[]"
	case v.NullProto:
		base = "Object.create(null)"
	default:
		base = "{}"
		if ed := findEdge(n, valuegraph.EdgePrototype, "prototype"); ed != nil && !ed.Deferred {
			expr, err := e.build(ed.Target)
			if err != nil {
				return "", err
			}
			base = fmt.Sprintf("Object.create(%s)", expr)
		}
	}

	var body []string
	for _, p := range pe {
		keyExpr := jsString(p.desc.Key.Name)
		if p.desc.Key.Symbol != nil {
			var kn *valuegraph.Node
			switch {
			case p.valueEdge != nil:
				kn = p.valueEdge.KeyNode
			case p.getEdge != nil:
				kn = p.getEdge.KeyNode
			case p.setEdge != nil:
				kn = p.setEdge.KeyNode
			}
			if kn != nil {
				expr, err := e.build(kn)
				if err != nil {
					return "", err
				}
				keyExpr = "[" + expr + "]"
			}
		}

		switch {
		case p.valueEdge != nil:
			if p.valueEdge.Deferred {
				continue
			}
			expr, err := e.build(p.valueEdge.Target)
			if err != nil {
				return "", err
			}
			body = append(body, fmt.Sprintf(
				"Object.defineProperty(o, %s, { value: %s, writable: %v, enumerable: %v, configurable: %v });",
				stripBrackets(keyExpr), expr, p.desc.Writable, p.desc.Enumerable, p.desc.Configurable))
		case (p.getEdge != nil && p.getEdge.Deferred) || (p.setEdge != nil && p.setEdge.Deferred):
			continue
		default:
			getExpr, setExpr := "undefined", "undefined"
			if p.getEdge != nil {
				expr, err := e.build(p.getEdge.Target)
				if err != nil {
					return "", err
				}
				getExpr = expr
			}
			if p.setEdge != nil {
				expr, err := e.build(p.setEdge.Target)
				if err != nil {
					return "", err
				}
				setExpr = expr
			}
			body = append(body, fmt.Sprintf(
				"Object.defineProperty(o, %s, { get: %s, set: %s, enumerable: %v, configurable: %v });",
				stripBrackets(keyExpr), getExpr, setExpr, p.desc.Enumerable, p.desc.Configurable))
		}
	}

	if v.IsArray {
		body = append(body, fmt.Sprintf("o.length = %d;", v.ArrayLength))
	}

	if len(body) == 0 {
		switch v.Extensible {
		case host.PreventExtensions:
			return fmt.Sprintf("Object.preventExtensions(%s)", base), nil
		case host.Sealed:
			return fmt.Sprintf("Object.seal(%s)", base), nil
		case host.Frozen:
			return fmt.Sprintf("Object.freeze(%s)", base), nil
		}
		return base, nil
	}
	switch v.Extensible {
	case host.PreventExtensions:
		body = append(body, "Object.preventExtensions(o);")
	case host.Sealed:
		body = append(body, "Object.seal(o);")
	case host.Frozen:
		body = append(body, "Object.freeze(o);")
	}
	return fmt.Sprintf("(() => { const o = %s; %s return o; })()", base, strings.Join(body, " ")), nil
}

// stripBrackets un-wraps a computed-key expression back to the bare
// expression defineProperty's second argument expects (no surrounding [ ]).
func stripBrackets(keyExpr string) string {
	if strings.HasPrefix(keyExpr, "[") && strings.HasSuffix(keyExpr, "]") {
		return keyExpr[1 : len(keyExpr)-1]
	}
	return keyExpr
}

func propertyLabelFor(d host.PropertyDescriptor) string {
	if d.Key.Symbol != nil {
		return "[Symbol]"
	}
	return d.Key.Name
}

// registerClassSuperHomes tells every member a class construction is about
// to build what its own "super" should resolve against: ctorHome is
// whatever expression currently names the constructor function itself
// ("Ctor" inside constructClass's own IIFE, or the class node's hoisted
// variable name for a member only reachable as a deferred edge).
// registered before any of those members are built, so constructFunction
// can find the mapping by the time it rewrites their captured source.
func (e *emitter) registerClassSuperHomes(n *valuegraph.Node, ctorHome string) {
	protoHome := ctorHome + ".prototype"
	if ed := findEdge(n, valuegraph.EdgeClassPart, "constructor"); ed != nil && ed.Target != nil {
		e.superHome[ed.Target] = superHomeRefs{member: protoHome, ctor: ctorHome}
	}
	if ed := findEdge(n, valuegraph.EdgeClassPart, "prototype"); ed != nil && ed.Target != nil {
		for i := range ed.Target.Edges {
			pe := &ed.Target.Edges[i]
			switch pe.Kind {
			case valuegraph.EdgeProperty, valuegraph.EdgeGetter, valuegraph.EdgeSetter:
				if pe.Target != nil && pe.Target.Value != nil && pe.Target.Value.Kind == host.KindFunction {
					e.superHome[pe.Target] = superHomeRefs{member: protoHome, ctor: protoHome}
				}
			}
		}
	}
	if n.Value != nil && n.Value.Class != nil {
		for _, st := range n.Value.Class.Statics {
			label := "static:" + propertyLabelFor(st)
			if ed := findEdge(n, valuegraph.EdgeClassPart, label); ed != nil && ed.Target != nil &&
				ed.Target.Value != nil && ed.Target.Value.Kind == host.KindFunction {
				e.superHome[ed.Target] = superHomeRefs{member: ctorHome, ctor: ctorHome}
			}
		}
	}
}

func (e *emitter) constructClass(n *valuegraph.Node) (string, error) {
	cls := n.Value.Class
	e.registerClassSuperHomes(n, "Ctor")

	ctorExpr := "function() {}"
	if ed := findEdge(n, valuegraph.EdgeClassPart, "constructor"); ed != nil && !ed.Deferred {
		expr, err := e.build(ed.Target)
		if err != nil {
			return "", err
		}
		ctorExpr = expr
	}
	stmts := []string{fmt.Sprintf("const Ctor = %s;", ctorExpr)}

	if ed := findEdge(n, valuegraph.EdgeClassPart, "prototype"); ed != nil && !ed.Deferred {
		expr, err := e.build(ed.Target)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, fmt.Sprintf("Ctor.prototype = %s;", expr))
	}
	stmts = append(stmts, "Ctor.prototype.constructor = Ctor;")

	if ed := findEdge(n, valuegraph.EdgeClassPart, "super"); ed != nil && !ed.Deferred {
		expr, err := e.build(ed.Target)
		if err != nil {
			return "", err
		}
		stmts = append(stmts,
			fmt.Sprintf("Object.setPrototypeOf(Ctor, %s);", expr),
			fmt.Sprintf("Object.setPrototypeOf(Ctor.prototype, %s.prototype);", expr))
	}

	for _, st := range cls.Statics {
		label := "static:" + propertyLabelFor(st)
		ed := findEdge(n, valuegraph.EdgeClassPart, label)
		if ed == nil || ed.Deferred {
			continue
		}
		expr, err := e.build(ed.Target)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, fmt.Sprintf("Ctor[%s] = %s;", jsString(st.Key.Name), expr))
	}

	if cls.Name != "" || e.opts.AnonClassNameProp {
		stmts = append(stmts, fmt.Sprintf(
			"Object.defineProperty(Ctor, \"name\", { value: %s, configurable: true });", jsString(cls.Name)))
	}
	stmts = append(stmts, "return Ctor;")
	return fmt.Sprintf("(() => { %s })()", strings.Join(stmts, " ")), nil
}

func (e *emitter) constructFunction(n *valuegraph.Node) (string, error) {
	v := n.Value
	rec := e.blob.Functions[v.Closure.FuncID]
	if rec == nil {
		// Uninstrumented function: passed through by source-text round trip
		// only, no closure capture (spec.md §4.3).
		return "(" + v.Closure.Source + ")", nil
	}

	refs := map[string]string{}
	for _, use := range rec.FreeNames {
		if _, already := refs[use.Name]; already {
			continue
		}
		for _, fe := range frameEdges(n) {
			if fe.Deferred {
				continue
			}
			if frameNode, ok := findBindingFrame(fe.Target, use.Name); ok {
				ref, err := e.build(frameNode)
				if err != nil {
					return "", err
				}
				refs[use.Name] = ref + "." + use.Name
				break
			}
		}
	}

	src := v.Closure.Source
	if rec.UsesSuper {
		if homes, ok := e.superHome[n]; ok {
			if rewrittenSuper, ok := rewriteSuperInSource(src, rec.Kind, homes.member, homes.ctor); ok {
				src = rewrittenSuper
			}
		}
	}

	rewritten, ok := rewriteCapturedSource(src, rec.Kind, func(name string) (string, bool) {
		r, found := refs[name]
		return r, found
	})
	if !ok {
		rewritten = src
	}

	var expr string
	switch rec.Kind {
	case instrument.KindMethod, instrument.KindClassConstructor:
		params, body, split := splitFunctionSource(rewritten, rec.Kind)
		if !split {
			expr = "(" + src + ")"
		} else {
			expr = "(function" + params + " " + body + ")"
		}
	default:
		expr = "(" + rewritten + ")"
	}
	return wrapStrict(expr, rec.Strict, e.opts.StrictEnv), nil
}

// wrapStrict reconciles a captured closure's own strictness with the
// container it will run in: a strict function dropped into a sloppy
// container is wrapped in its own strict IIFE; a sloppy function dropped
// into a strict container is re-run through indirect eval, which always
// executes as a fresh, non-strict top-level script regardless of where the
// call site sits (spec.md §4.6 "Strict-mode resolution").
func wrapStrict(expr string, closureStrict, containerStrict bool) string {
	if closureStrict == containerStrict {
		return expr
	}
	if closureStrict {
		return fmt.Sprintf("(function(){ \"use strict\"; return %s; })()", expr)
	}
	return fmt.Sprintf("(0, eval)(%s)", jsString(expr))
}

func frameEdges(n *valuegraph.Node) []valuegraph.Edge {
	var out []valuegraph.Edge
	for _, ed := range n.Edges {
		if ed.Kind == valuegraph.EdgeFrame {
			out = append(out, ed)
		}
	}
	return out
}

func findBindingFrame(start *valuegraph.Node, name string) (*valuegraph.Node, bool) {
	for f := start; f != nil; f = parentFrame(f) {
		for _, ed := range f.Edges {
			if ed.Kind == valuegraph.EdgeBinding && ed.Label == name {
				return f, true
			}
		}
	}
	return nil, false
}

func parentFrame(f *valuegraph.Node) *valuegraph.Node {
	for _, ed := range f.Edges {
		if ed.Kind == valuegraph.EdgeFrameLink {
			return ed.Target
		}
	}
	return nil
}

func findEdge(n *valuegraph.Node, kind valuegraph.EdgeKind, label string) *valuegraph.Edge {
	for i := range n.Edges {
		if n.Edges[i].Kind == kind && n.Edges[i].Label == label {
			return &n.Edges[i]
		}
	}
	return nil
}

// emitDeferred installs every back-edge out of n, now that n has a name and
// every node it points at exists, as a post-hoc statement (spec.md §3 cycle
// breaking invariant).
func (e *emitter) emitDeferred(n *valuegraph.Node) error {
	name := e.names[n]
	if n.Value != nil && n.Value.Kind == host.KindClass {
		e.registerClassSuperHomes(n, name)
	}
	for i := range n.Edges {
		ed := &n.Edges[i]
		if !ed.Deferred {
			continue
		}
		target, err := e.build(ed.Target)
		if err != nil {
			return err
		}
		switch ed.Kind {
		case valuegraph.EdgeProperty:
			keyExpr := jsString(ed.Label)
			if ed.KeyNode != nil {
				k, err := e.build(ed.KeyNode)
				if err != nil {
					return err
				}
				keyExpr = k
			}
			dotted := ed.KeyNode == nil && ed.Label != ""
			for i, r := range ed.Label {
				if !(r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')) {
					dotted = false
					break
				}
			}
			if dotted {
				e.post = append(e.post, fmt.Sprintf("%s.%s = %s;", name, ed.Label, target))
				break
			}
			e.post = append(e.post, fmt.Sprintf("%s[%s] = %s;", name, keyExpr, target))
		case valuegraph.EdgeGetter, valuegraph.EdgeSetter:
			keyExpr := jsString(ed.Label)
			if ed.KeyNode != nil {
				k, err := e.build(ed.KeyNode)
				if err != nil {
					return err
				}
				keyExpr = k
			}
			which := "get"
			if ed.Kind == valuegraph.EdgeSetter {
				which = "set"
			}
			e.post = append(e.post, fmt.Sprintf(
				"Object.defineProperty(%s, %s, { %s: %s, configurable: true, enumerable: true });",
				name, keyExpr, which, target))
		case valuegraph.EdgePrototype:
			e.post = append(e.post, fmt.Sprintf("Object.setPrototypeOf(%s, %s);", name, target))
		case valuegraph.EdgeBinding:
			e.post = append(e.post, fmt.Sprintf("%s.%s = %s;", name, ed.Label, target))
		case valuegraph.EdgeEntry:
			if strings.HasPrefix(ed.Label, "value") {
				idx := strings.TrimPrefix(ed.Label, "value")
				keyExpr := "undefined"
				if ke := findEdge(n, valuegraph.EdgeEntry, "key"+idx); ke != nil {
					k, err := e.build(ke.Target)
					if err != nil {
						return err
					}
					keyExpr = k
				}
				if n.Value != nil && n.Value.Collection != nil &&
					(n.Value.Collection.Kind == host.Map || n.Value.Collection.Kind == host.WeakMap) {
					e.post = append(e.post, fmt.Sprintf("%s.set(%s, %s);", name, keyExpr, target))
				} else {
					e.post = append(e.post, fmt.Sprintf("%s.add(%s);", name, target))
				}
			}
		case valuegraph.EdgeElement:
			e.post = append(e.post, fmt.Sprintf("%s[%s] = %s;", name, ed.Label, target))
		case valuegraph.EdgeClassPart:
			switch {
			case ed.Label == "prototype":
				e.post = append(e.post, fmt.Sprintf("%s.prototype = %s;", name, target))
			case ed.Label == "super":
				e.post = append(e.post,
					fmt.Sprintf("Object.setPrototypeOf(%s, %s);", name, target),
					fmt.Sprintf("Object.setPrototypeOf(%s.prototype, %s.prototype);", name, target))
			case strings.HasPrefix(ed.Label, "static:"):
				staticName := strings.TrimPrefix(ed.Label, "static:")
				e.post = append(e.post, fmt.Sprintf("%s[%s] = %s;", name, jsString(staticName), target))
			}
		}
	}
	if n.Value != nil && (n.Value.Kind == host.KindPlainObject || n.Value.Kind == host.KindArray) {
		switch n.Value.Extensible {
		case host.PreventExtensions:
			e.post = append(e.post, fmt.Sprintf("Object.preventExtensions(%s);", name))
		case host.Sealed:
			e.post = append(e.post, fmt.Sprintf("Object.seal(%s);", name))
		case host.Frozen:
			e.post = append(e.post, fmt.Sprintf("Object.freeze(%s);", name))
		}
	}
	return nil
}

// container wraps the declaration/assignment/post-hoc statement sequence
// into the requested output shape (spec.md §6 "format").
func (e *emitter) container(rootExpr string) string {
	var body strings.Builder
	for _, d := range e.decls {
		body.WriteString(d)
		body.WriteString("\n")
	}
	for _, s := range e.stmts {
		body.WriteString(s)
		body.WriteString("\n")
	}
	for _, s := range e.post {
		body.WriteString(s)
		body.WriteString("\n")
	}

	var out string
	switch e.opts.Format {
	case FormatSingleExportMod:
		out = body.String() + fmt.Sprintf("module.exports = %s;\n", rootExpr)
	case FormatDefaultExportMod:
		out = body.String() + fmt.Sprintf("export default %s;\n", rootExpr)
	default:
		out = fmt.Sprintf("(() => {\n%s  return %s;\n})()", body.String(), rootExpr)
	}
	if e.opts.IncludeSourceMap {
		out += "\n//# sourceMappingURL=data:application/json;base64,\n"
	}
	if e.opts.Minify {
		out = minifyWhitespace(out)
	}
	return out
}

func minifyWhitespace(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		t := strings.TrimSpace(line)
		if t != "" {
			b.WriteString(t)
		}
	}
	return b.String()
}

// jsString renders a Go string as a double-quoted JS string literal. Raw
// non-ASCII runes are left as-is rather than \u-escaped, since the emitted
// file is itself valid UTF-8 source text.
func jsString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case ' ':
			b.WriteString(` `)
		case ' ':
			b.WriteString(` `)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
