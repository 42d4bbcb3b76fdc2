// Package emit walks a value graph and produces host-language source text
// (spec.md §4.6).
package emit

// Format selects the emitted container shape (spec.md §6 "format").
type Format string

const (
	FormatBareExpression   Format = "bare-expression"
	FormatSingleExportMod  Format = "single-export-module"
	FormatDefaultExportMod Format = "default-export-module"
)

// Options are the serializer's recognized emit-time knobs (spec.md §6).
type Options struct {
	Format            Format
	Minify            bool
	Mangle            bool
	Inline            bool
	Entries           map[string][]int // entry file name -> root node IDs, enables code splitting when non-nil
	StrictEnv         bool
	IncludeSourceMap  bool
	AnonClassNameProp bool // open question (a): whether the target host stamps "" onto anonymous class .name
}

// Option configures an Options value via the functional-options idiom used
// throughout this module.
type Option func(*Options)

func WithFormat(f Format) Option             { return func(o *Options) { o.Format = f } }
func WithMinify(v bool) Option                { return func(o *Options) { o.Minify = v } }
func WithMangle(v bool) Option                { return func(o *Options) { o.Mangle = v } }
func WithInline(v bool) Option                { return func(o *Options) { o.Inline = v } }
func WithEntries(e map[string][]int) Option   { return func(o *Options) { o.Entries = e } }
func WithStrictEnv(v bool) Option             { return func(o *Options) { o.StrictEnv = v } }
func WithSourceMap(v bool) Option             { return func(o *Options) { o.IncludeSourceMap = v } }
func WithAnonClassNameProp(v bool) Option     { return func(o *Options) { o.AnonClassNameProp = v } }

func newOptions(opts ...Option) *Options {
	// Inline defaults true: spec.md §4.6's baseline behavior is that a node
	// referenced exactly once outside a cycle is inlined rather than hoisted
	// to a local; WithInline(false) forces every object-like node to a local
	// instead, a more verbose but more debuggable shape. Primitives, global
	// and module references, and registered or well-known symbols are always
	// inlined.
	o := &Options{Format: FormatBareExpression, Inline: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
