package lanes

import (
	"fmt"

	"github.com/gogpu/shade/ir"
)

// DefaultMaxUnroll is the largest trip count expanded inline when
// Options.MaxUnroll is zero.
const DefaultMaxUnroll = 256

// Options configures lane program generation.
type Options struct {
	// Trace emits trace instructions and per-slot debug records.
	Trace bool

	// MaxUnroll bounds the trip count of statically bounded loops that are
	// expanded inline. Longer loops keep a back edge.
	MaxUnroll int

	// NoCSE disables reuse of identical pure instructions.
	NoCSE bool
}

// DefaultOptions returns options without tracing.
func DefaultOptions() Options {
	return Options{MaxUnroll: DefaultMaxUnroll}
}

// Compile lowers p to a lane program, or returns an error listing every
// problem found.
func Compile(p *ir.Program, options Options) (*Program, error) {
	if options.MaxUnroll <= 0 {
		options.MaxUnroll = DefaultMaxUnroll
	}
	g := NewGenerator(p, options)
	if !g.Generate() {
		return nil, fmt.Errorf("lanes: %w", g.Errors.Err())
	}
	return g.Output(), nil
}
