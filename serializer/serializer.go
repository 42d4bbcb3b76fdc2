// Package serializer is the façade spec.md §6 names as the "serializer entry
// point": it wires valuegraph.Build and emit.Emit behind one call so callers
// never construct a Graph by hand.
package serializer

import (
	"github.com/viant/livepack/emit"
	"github.com/viant/livepack/host"
	"github.com/viant/livepack/instrument"
	"github.com/viant/livepack/valuegraph"
)

// Options mirrors the recognized options spec.md §6 lists for the serializer
// entry point, one field per bullet.
type Options struct {
	Format           emit.Format
	Minify           bool
	Mangle           bool
	Inline           bool
	Entries          map[string][]int
	StrictEnv        bool
	IncludeSourceMap bool

	// AnonClassNameProp mirrors the target host's convention for anonymous
	// class .name, resolved ahead of time by repository.HostConvention
	// (spec.md §9 open question (a)).
	AnonClassNameProp bool

	// DegradedMissingCapture opts into emitting a closure's source verbatim
	// when a free identifier's value can't be recovered, instead of failing
	// the whole call with a MissingCaptureError (spec.md §7).
	DegradedMissingCapture bool
}

// Option configures an Options value via the functional-options idiom used
// throughout this module.
type Option func(*Options)

func WithFormat(f emit.Format) Option           { return func(o *Options) { o.Format = f } }
func WithMinify(v bool) Option                  { return func(o *Options) { o.Minify = v } }
func WithMangle(v bool) Option                  { return func(o *Options) { o.Mangle = v } }
func WithInline(v bool) Option                  { return func(o *Options) { o.Inline = v } }
func WithEntries(e map[string][]int) Option     { return func(o *Options) { o.Entries = e } }
func WithStrictEnv(v bool) Option               { return func(o *Options) { o.StrictEnv = v } }
func WithSourceMap(v bool) Option               { return func(o *Options) { o.IncludeSourceMap = v } }
func WithAnonClassNameProp(v bool) Option       { return func(o *Options) { o.AnonClassNameProp = v } }
func WithDegradedMissingCapture(v bool) Option  { return func(o *Options) { o.DegradedMissingCapture = v } }

func newOptions(opts ...Option) *Options {
	o := &Options{Format: emit.FormatBareExpression, Inline: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Serialize builds the value graph rooted at root and emits it as host
// source text (spec.md §6 "Serializer entry point"). blob supplies the
// per-function metadata instrument.Instrument captured for any closures
// reachable from root; pass nil when root contains no instrumented closures.
func Serialize(root *host.Value, blob *instrument.InfoBlob, opts ...Option) (emit.Output, error) {
	o := newOptions(opts...)

	g, err := valuegraph.Build(root, valuegraph.WithDegradedMissingCapture(o.DegradedMissingCapture))
	if err != nil {
		return emit.Output{}, err
	}

	emitOpts := []emit.Option{
		emit.WithFormat(o.Format),
		emit.WithMinify(o.Minify),
		emit.WithMangle(o.Mangle),
		emit.WithInline(o.Inline),
		emit.WithStrictEnv(o.StrictEnv),
		emit.WithSourceMap(o.IncludeSourceMap),
		emit.WithAnonClassNameProp(o.AnonClassNameProp),
	}
	if o.Entries != nil {
		emitOpts = append(emitOpts, emit.WithEntries(o.Entries))
	}
	return emit.Emit(g, blob, emitOpts...)
}
